package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mstefarov/ragchat/internal/domain"
	"github.com/mstefarov/ragchat/internal/metrics"
	"github.com/mstefarov/ragchat/internal/observability"
)

const errorReplyTemplate = "Sorry, I encountered an error while processing your request: %s. Please try again in a moment."

// Service orchestrates question/answer exchanges between the chat store and
// the remote answering service. One Submit is one exchange: the user message
// lands in the transcript before the network call, and exactly one assistant
// message follows it, success or failure.
type Service struct {
	store    domain.ChatStore
	answers  domain.AnswerClient
	notifier *Notifier
	userID   domain.UserID
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[domain.SessionID]bool
}

func NewService(
	store domain.ChatStore,
	answers domain.AnswerClient,
	notifier *Notifier,
	userID domain.UserID,
) *Service {
	return &Service{
		store:    store,
		answers:  answers,
		notifier: notifier,
		userID:   userID,
		now:      time.Now,
		inFlight: make(map[domain.SessionID]bool),
	}
}

type SubmitOutput struct {
	SessionID        domain.SessionID
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
	Failed           bool
}

// Submit runs one exchange for the currently active session. A blank query
// is rejected before anything is touched; a session already waiting on an
// answer rejects a second submission. Gateway failures do not surface as an
// error here: they become a visible assistant reply plus a notification, and
// the exchange still completes.
func (s *Service) Submit(ctx context.Context, query string) (*SubmitOutput, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrBlankQuery
	}

	sessionID := s.store.ActiveID()
	if !s.begin(sessionID) {
		return nil, domain.ErrExchangeInFlight
	}
	defer s.end(sessionID)

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"user_id", s.userID,
	)
	log.Info("submitting question", "query", query)

	userMsg := domain.Message{
		ID:        domain.NewMessageID(),
		Content:   query,
		Sender:    domain.SenderUser,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMessage(sessionID, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	start := time.Now()
	answer, err := s.answers.Ask(ctx, s.userID, query)
	metrics.ExchangeDuration.Observe(time.Since(start).Seconds())

	reply := domain.Message{
		ID:        domain.NewMessageID(),
		Sender:    domain.SenderAssistant,
		CreatedAt: s.now(),
	}
	failed := err != nil
	if failed {
		reason := err.Error()
		log.Error("ask failed", "error", err)
		reply.Content = fmt.Sprintf(errorReplyTemplate, reason)
		s.notifier.Publish(Notification{
			Level: LevelError,
			Title: "Connection Error",
			Body:  reason,
			At:    s.now(),
		})
		metrics.ExchangesTotal.WithLabelValues("failed").Inc()
	} else {
		reply.Content = formatAnswer(answer)
		metrics.ExchangesTotal.WithLabelValues("ok").Inc()
	}

	if err := s.store.AppendMessage(sessionID, reply); err != nil {
		// The session was deleted while the exchange was outstanding.
		// The reply has nowhere to go; dropping it is the right outcome.
		if errors.Is(err, domain.ErrSessionNotFound) {
			log.Info("session gone before reply, dropping it")
		} else {
			log.Error("failed to append reply", "error", err)
			return nil, err
		}
	}

	log.Info("exchange completed", "failed", failed)

	return &SubmitOutput{
		SessionID:        sessionID,
		UserMessage:      &userMsg,
		AssistantMessage: &reply,
		Failed:           failed,
	}, nil
}

// formatAnswer renders the assistant reply: the answer text, then a numbered
// citation list when the service returned sources.
func formatAnswer(a *domain.Answer) string {
	if len(a.Sources) == 0 {
		return a.Text
	}
	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString("\n\nSources:")
	for i, src := range a.Sources {
		fmt.Fprintf(&b, "\n%d. %s", i+1, src)
	}
	return b.String()
}

func (s *Service) begin(id domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Service) end(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// ─────────────────────────────────────────────
// Store commands and read accessors for the presentation layer
// ─────────────────────────────────────────────

func (s *Service) CreateSession(ctx context.Context) domain.SessionID {
	id := s.store.CreateSession()
	metrics.SessionsCreated.Inc()
	observability.LoggerFromContext(ctx).Info("session created", "session_id", id)
	return id
}

func (s *Service) SelectSession(ctx context.Context, id domain.SessionID) error {
	return s.store.SelectSession(id)
}

func (s *Service) DeleteSession(ctx context.Context, id domain.SessionID) {
	s.store.DeleteSession(id)
	metrics.SessionsDeleted.Inc()
	observability.LoggerFromContext(ctx).Info("session deleted", "session_id", id)
}

func (s *Service) ActiveID() domain.SessionID {
	return s.store.ActiveID()
}

func (s *Service) Sessions() []domain.SessionSummary {
	return s.store.Sessions()
}

func (s *Service) Session(id domain.SessionID) (*domain.Session, error) {
	return s.store.Session(id)
}

func (s *Service) Messages(id domain.SessionID) ([]domain.Message, error) {
	return s.store.Messages(id)
}

// ServiceStatus probes the remote answering service.
func (s *Service) ServiceStatus(ctx context.Context) (*domain.ServiceStatus, error) {
	return s.answers.Status(ctx)
}
