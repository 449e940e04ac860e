package rag

import (
	"context"
	"fmt"

	"github.com/mstefarov/ragchat/internal/domain"
)

// MockClient is an AnswerClient with no knowledge base behind it, for local
// development and tests. Zero value answers every question; set Err to
// script a failure.
type MockClient struct {
	Sources []string
	Err     error
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Ask(ctx context.Context, userID domain.UserID, query string) (*domain.Answer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.Answer{
		Text:    fmt.Sprintf("You asked %q. This is a mock answer with no retrieval behind it.", query),
		Sources: m.Sources,
	}, nil
}

func (m *MockClient) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.ServiceStatus{Ready: true, Message: "mock answering service"}, nil
}
