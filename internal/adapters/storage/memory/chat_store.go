package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/mstefarov/ragchat/internal/domain"
)

// ChatStore is the in-memory source of truth for every chat session and the
// active-session pointer. All state lives for the life of the process; there
// is deliberately no durable backend.
type ChatStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
	activeID domain.SessionID
	now      func() time.Time
}

// NewChatStore builds a store seeded with exactly one session, which becomes
// the active one.
func NewChatStore() *ChatStore {
	return NewChatStoreWithClock(time.Now)
}

// NewChatStoreWithClock is NewChatStore with an injectable clock for tests.
func NewChatStoreWithClock(now func() time.Time) *ChatStore {
	s := &ChatStore{
		sessions: make(map[domain.SessionID]*domain.Session),
		now:      now,
	}
	s.mu.Lock()
	s.createLocked()
	s.mu.Unlock()
	return s
}

// CreateSession allocates a fresh session with a seeded assistant welcome
// message, makes it active, and returns its id. Existing sessions stay put.
func (s *ChatStore) CreateSession() domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *ChatStore) createLocked() domain.SessionID {
	now := s.now()
	welcome := domain.Message{
		ID:        domain.NewMessageID(),
		Content:   domain.WelcomeText,
		Sender:    domain.SenderAssistant,
		CreatedAt: now,
	}
	sess := &domain.Session{
		ID:          domain.NewSessionID(),
		Title:       domain.TitleSentinel,
		LastMessage: domain.PreviewOf(welcome.Content),
		UpdatedAt:   now,
		Messages:    []domain.Message{welcome},
	}
	sess.MessageCount = len(sess.Messages)

	s.sessions[sess.ID] = sess
	s.activeID = sess.ID
	return sess.ID
}

// SelectSession makes id the active session. On an unknown id the active
// pointer is left untouched.
func (s *ChatStore) SelectSession(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	s.activeID = id
	return nil
}

// DeleteSession removes a session. Deleting an unknown id is a no-op. When
// the active session is deleted the replacement is chosen from what remains
// after removal: the most recently updated survivor, or a freshly created
// session when none remain.
func (s *ChatStore) DeleteSession(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)

	if s.activeID != id {
		return
	}
	if len(s.sessions) == 0 {
		s.createLocked()
		return
	}

	var replacement *domain.Session
	for _, sess := range s.sessions {
		if replacement == nil ||
			sess.UpdatedAt.After(replacement.UpdatedAt) ||
			(sess.UpdatedAt.Equal(replacement.UpdatedAt) && sess.ID > replacement.ID) {
			replacement = sess
		}
	}
	s.activeID = replacement.ID
}

// AppendMessage appends msg to the target session and recomputes its derived
// metadata in the same critical section, so no reader can observe a count
// that disagrees with the message sequence. A session still carrying the
// sentinel title takes its title from the first appended user message.
func (s *ChatStore) AppendMessage(id domain.SessionID, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.Messages = append(sess.Messages, msg)
	sess.MessageCount = len(sess.Messages)
	sess.LastMessage = domain.PreviewOf(msg.Content)
	sess.UpdatedAt = s.now()

	if sess.Title == domain.TitleSentinel && msg.Sender == domain.SenderUser {
		sess.Title = domain.TitleFromQuestion(msg.Content)
	}
	return nil
}

// ActiveID returns the id of the currently selected session.
func (s *ChatStore) ActiveID() domain.SessionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Sessions lists summaries of every session, most recently updated first.
func (s *ChatStore) Sessions() []domain.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Session returns a copy of one session, messages included.
func (s *ChatStore) Session(id domain.SessionID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *sess
	cp.Messages = append([]domain.Message(nil), sess.Messages...)
	return &cp, nil
}

// Messages returns a copy of one session's ordered message sequence.
func (s *ChatStore) Messages(id domain.SessionID) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return append([]domain.Message(nil), sess.Messages...), nil
}
