package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/mstefarov/ragchat/internal/adapters/http"
	"github.com/mstefarov/ragchat/internal/adapters/rag"
	memory "github.com/mstefarov/ragchat/internal/adapters/storage/memory"
	"github.com/mstefarov/ragchat/internal/app/chat"
)

func newTestServer(t *testing.T, mock *rag.MockClient) http.Handler {
	t.Helper()

	store := memory.NewChatStore()
	notifier := chat.NewNotifier()
	svc := chat.NewService(store, mock, notifier, "test-user")

	return httpadapter.NewServer(svc, notifier)
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, rag.NewMockClient())

	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, rag.NewMockClient())

	w := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Ready bool `json:"ready"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
}

func TestStatusEndpointGatewayDown(t *testing.T) {
	srv := newTestServer(t, &rag.MockClient{Err: errors.New("ECONNREFUSED")})

	w := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "ECONNREFUSED")
}

func TestListSessionsSeeded(t *testing.T) {
	srv := newTestServer(t, rag.NewMockClient())

	w := doJSON(t, srv, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ActiveID string `json:"active_id"`
		Sessions []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			MessageCount int    `json:"message_count"`
			Active       bool   `json:"active"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, resp.ActiveID, resp.Sessions[0].ID)
	assert.Equal(t, "New Chat", resp.Sessions[0].Title)
	assert.Equal(t, 1, resp.Sessions[0].MessageCount)
	assert.True(t, resp.Sessions[0].Active)
}

func TestCreateSelectDeleteSession(t *testing.T) {
	srv := newTestServer(t, rag.NewMockClient())

	w := doJSON(t, srv, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
		Messages []struct {
			Sender string `json:"sender"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Session.ID)
	require.Len(t, created.Messages, 1)
	assert.Equal(t, "assistant", created.Messages[0].Sender)

	w = doJSON(t, srv, http.MethodPost, "/sessions/"+created.Session.ID+"/select", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/sessions/nope/select", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, srv, http.MethodDelete, "/sessions/"+created.Session.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// idempotent
	w = doJSON(t, srv, http.MethodDelete, "/sessions/"+created.Session.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAskRoundTrip(t *testing.T) {
	srv := newTestServer(t, &rag.MockClient{Sources: []string{"doc1"}})

	w := doJSON(t, srv, http.MethodPost, "/ask", map[string]string{"query": "What is RAG?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Failed           bool `json:"failed"`
		AssistantMessage struct {
			Content string `json:"content"`
			Sender  string `json:"sender"`
		} `json:"assistant_message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Failed)
	assert.Equal(t, "assistant", resp.AssistantMessage.Sender)
	assert.Contains(t, resp.AssistantMessage.Content, "Sources:\n1. doc1")
}

func TestAskBlankQuery(t *testing.T) {
	srv := newTestServer(t, rag.NewMockClient())

	w := doJSON(t, srv, http.MethodPost, "/ask", map[string]string{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskGatewayFailureStillOK(t *testing.T) {
	srv := newTestServer(t, &rag.MockClient{Err: errors.New("ECONNREFUSED")})

	w := doJSON(t, srv, http.MethodPost, "/ask", map[string]string{"query": "hello?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Failed           bool `json:"failed"`
		AssistantMessage struct {
			Content string `json:"content"`
		} `json:"assistant_message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Failed)
	assert.Contains(t, resp.AssistantMessage.Content, "ECONNREFUSED")
}

func TestGetMessagesUnknownSession(t *testing.T) {
	srv := newTestServer(t, rag.NewMockClient())

	w := doJSON(t, srv, http.MethodGet, "/sessions/nope/messages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
