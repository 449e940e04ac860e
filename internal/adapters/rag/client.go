package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mstefarov/ragchat/internal/domain"
)

// Client implements domain.AnswerClient against the remote RAG service's
// JSON-over-POST protocol. Every Ask is exactly one network exchange; any
// timeout policy lives in the underlying http.Client.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
}

type queryResponse struct {
	Success  bool     `json:"success"`
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
	Message  string   `json:"message"`
}

type statusResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	DatabaseDocuments int    `json:"database_documents"`
}

// Ask sends one question to the remote service. Transport errors, non-2xx
// statuses, and success=false payloads all come back as a plain error whose
// text carries the service's reason where one was given.
func (c *Client) Ask(ctx context.Context, userID domain.UserID, query string) (*domain.Answer, error) {
	body, err := json.Marshal(queryRequest{UserID: string(userID), Query: query})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rag query: %w", err)
	}
	defer res.Body.Close()

	// Decode even on error statuses; the service puts its reason in the
	// payload's message field.
	var qr queryResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&qr)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if decodeErr == nil && qr.Message != "" {
			return nil, fmt.Errorf("rag query: %s", qr.Message)
		}
		return nil, fmt.Errorf("rag query: unexpected status %d", res.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding query response: %w", decodeErr)
	}
	if !qr.Success {
		reason := qr.Message
		if reason == "" {
			reason = "service reported failure"
		}
		return nil, fmt.Errorf("rag query: %s", reason)
	}
	if qr.Response == "" {
		return nil, fmt.Errorf("rag query: empty response text")
	}

	return &domain.Answer{Text: qr.Response, Sources: qr.Sources}, nil
}

// Status probes the remote service's readiness endpoint.
func (c *Client) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("building status request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rag status: %w", err)
	}
	defer res.Body.Close()

	var sr statusResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding status response: %w", err)
	}

	return &domain.ServiceStatus{
		Ready:     sr.Success && res.StatusCode == http.StatusOK,
		Message:   sr.Message,
		Documents: sr.DatabaseDocuments,
	}, nil
}
