package domain

import (
	"context"
	"errors"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrBlankQuery       = errors.New("query is blank")
	ErrExchangeInFlight = errors.New("an exchange is already in flight for this session")
)

// Answer is one reply from the remote answering service.
type Answer struct {
	Text    string
	Sources []string
}

// ServiceStatus reports whether the remote answering service is ready.
type ServiceStatus struct {
	Ready     bool
	Message   string
	Documents int
}

// AnswerClient defines how the core talks to the remote answering service.
// One Ask call is exactly one network exchange; retries, if ever wanted,
// belong to the caller.
type AnswerClient interface {
	Ask(ctx context.Context, userID UserID, query string) (*Answer, error)
	Status(ctx context.Context) (*ServiceStatus, error)
}

// ChatStore owns every Session and the active-session pointer. It always
// holds at least one session, and the active id always keys into it.
type ChatStore interface {
	CreateSession() SessionID
	SelectSession(id SessionID) error
	DeleteSession(id SessionID)
	AppendMessage(id SessionID, msg Message) error

	ActiveID() SessionID
	Sessions() []SessionSummary
	Session(id SessionID) (*Session, error)
	Messages(id SessionID) ([]Message, error)
}
