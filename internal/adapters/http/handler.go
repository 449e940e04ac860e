package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mstefarov/ragchat/internal/app/chat"
	"github.com/mstefarov/ragchat/internal/domain"
)

type Server struct {
	svc      *chat.Service
	notifier *chat.Notifier
}

func NewServer(svc *chat.Service, notifier *chat.Notifier) http.Handler {
	s := &Server{svc: svc, notifier: notifier}

	r := chi.NewRouter()
	r.Use(withRecovery, withRequestID, withLogging, withMetrics, withCORS)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/status", s.handleStatus)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Post("/{id}/select", s.handleSelectSession)
		r.Delete("/{id}", s.handleDeleteSession)
		r.Get("/{id}/messages", s.handleGetMessages)
	})

	r.Post("/ask", s.handleAsk)
	r.Get("/events", s.handleEvents)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sessionResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"last_message"`
	UpdatedAt    time.Time `json:"updated_at"`
	Age          string    `json:"age"`
	MessageCount int       `json:"message_count"`
	Active       bool      `json:"active"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

type listSessionsResponse struct {
	ActiveID string            `json:"active_id"`
	Sessions []sessionResponse `json:"sessions"`
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	SessionID        string          `json:"session_id"`
	UserMessage      messageResponse `json:"user_message"`
	AssistantMessage messageResponse `json:"assistant_message"`
	Failed           bool            `json:"failed"`
}

type statusResponse struct {
	Ready     bool   `json:"ready"`
	Message   string `json:"message"`
	Documents int    `json:"documents,omitempty"`
}

type notificationResponse struct {
	Level string    `json:"level"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.ServiceStatus(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, statusResponse{
			Ready:   false,
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Ready:     st.Ready,
		Message:   st.Message,
		Documents: st.Documents,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	activeID := s.svc.ActiveID()
	now := time.Now()

	summaries := s.svc.Sessions()
	out := make([]sessionResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, toSessionResponse(sum, activeID, now))
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{
		ActiveID: string(activeID),
		Sessions: out,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := s.svc.CreateSession(r.Context())

	sess, err := s.svc.Session(id)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session":  toSessionResponse(sess.Summary(), id, time.Now()),
		"messages": toMessagesResponse(sess.Messages),
	})
}

func (s *Server) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(chi.URLParam(r, "id"))
	if err := s.svc.SelectSession(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w)
			return
		}
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(chi.URLParam(r, "id"))
	s.svc.DeleteSession(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(chi.URLParam(r, "id"))
	msgs, err := s.svc.Messages(id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": string(id),
		"messages":   toMessagesResponse(msgs),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	out, err := s.svc.Submit(r.Context(), req.Query)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBlankQuery):
		badRequest(w, "query is required")
		return
	case errors.Is(err, domain.ErrExchangeInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "an answer is already on its way for this session",
		})
		return
	case errors.Is(err, domain.ErrSessionNotFound):
		notFound(w)
		return
	default:
		internalError(w, err)
		return
	}

	// A failed exchange is still a completed one: the transcript carries
	// the error reply, so the client gets 200 either way.
	writeJSON(w, http.StatusOK, askResponse{
		SessionID:        string(out.SessionID),
		UserMessage:      toMessageResponse(*out.UserMessage),
		AssistantMessage: toMessageResponse(*out.AssistantMessage),
		Failed:           out.Failed,
	})
}

// handleEvents streams notifications to the front-end as server-sent events,
// decoupled from the conversation transcript.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		internalError(w, errors.New("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	ch, cancel := s.notifier.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case note, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(notificationResponse{
				Level: string(note.Level),
				Title: note.Title,
				Body:  note.Body,
				At:    note.At,
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			fl.Flush()
		}
	}
}

// ─────────────────────────────────────────────
// Conversion Helpers
// ─────────────────────────────────────────────

func toSessionResponse(sum domain.SessionSummary, activeID domain.SessionID, now time.Time) sessionResponse {
	return sessionResponse{
		ID:           string(sum.ID),
		Title:        sum.Title,
		LastMessage:  sum.LastMessage,
		UpdatedAt:    sum.UpdatedAt,
		Age:          domain.RelativeAge(sum.UpdatedAt, now),
		MessageCount: sum.MessageCount,
		Active:       sum.ID == activeID,
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:        string(m.ID),
		Content:   m.Content,
		Sender:    string(m.Sender),
		CreatedAt: m.CreatedAt,
	}
}

func toMessagesResponse(msgs []domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "session not found",
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
