package domain

import (
	"fmt"
	"time"
)

const (
	// TitleSentinel is the placeholder title a session carries until the
	// first user question names it.
	TitleSentinel = "New Chat"

	// WelcomeText is the assistant message seeded into every new session.
	WelcomeText = "Hello! I'm your RAG AI assistant. I can help answer questions based on your knowledge base. What would you like to know?"

	titleBudget   = 30
	previewBudget = 60
)

// Message is one immutable turn in a conversation.
type Message struct {
	ID        MessageID
	Content   string
	Sender    Sender
	CreatedAt Timestamp
}

// Session is one conversation thread: ordered messages plus the summary
// metadata a sidebar renders.
type Session struct {
	ID           SessionID
	Title        string
	LastMessage  string
	UpdatedAt    Timestamp
	MessageCount int
	Messages     []Message
}

// SessionSummary is the list-view projection of a Session.
type SessionSummary struct {
	ID           SessionID
	Title        string
	LastMessage  string
	UpdatedAt    Timestamp
	MessageCount int
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		Title:        s.Title,
		LastMessage:  s.LastMessage,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: s.MessageCount,
	}
}

// Truncate cuts s to at most budget runes, marking a cut with an ellipsis.
// Short and empty strings pass through untouched.
func Truncate(s string, budget int) string {
	r := []rune(s)
	if len(r) <= budget {
		return s
	}
	return string(r[:budget]) + "…"
}

// TitleFromQuestion derives a session title from its first user question.
func TitleFromQuestion(q string) string {
	return Truncate(q, titleBudget)
}

// PreviewOf derives the short-form preview shown in session lists.
func PreviewOf(content string) string {
	return Truncate(content, previewBudget)
}

// RelativeAge renders how long ago t was, sidebar-style: "now", "5h", "3d".
func RelativeAge(t, now time.Time) string {
	hours := int(now.Sub(t).Hours())
	switch {
	case hours < 1:
		return "now"
	case hours < 24:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dd", hours/24)
	}
}
