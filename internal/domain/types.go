package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string
type UserID string
type MessageID string

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type Timestamp = time.Time

// NewSessionID returns a fresh time-ordered session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// NewMessageID returns a fresh time-ordered message identifier.
func NewMessageID() MessageID {
	return MessageID(uuid.Must(uuid.NewV7()).String())
}
