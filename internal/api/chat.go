package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rump-sv/unfallhilfe/internal/dialogue"
	"github.com/rump-sv/unfallhilfe/internal/identity"
	"github.com/rump-sv/unfallhilfe/internal/intake"
	"github.com/rump-sv/unfallhilfe/internal/transcript"
)

// defaultMaxRequestBodySize bounds a chat message body.
const defaultMaxRequestBodySize = 64 << 10

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// HistoryResponse is the rendered state of a session.
type HistoryResponse struct {
	SessionID string            `json:"session_id"`
	State     intake.State      `json:"state"`
	Notified  bool              `json:"notified"`
	Turns     []transcript.Turn `json:"turns"`
}

// ChatHandler serves the conversational API for one visitor tab at a time.
type ChatHandler struct {
	sessions       *intake.Manager
	limiter        *RateLimiter
	maxBodySize    int64
	originPatterns []string
}

// NewChatHandler creates a chat handler. maxBodySize <= 0 selects the default.
func NewChatHandler(sessions *intake.Manager, limiter *RateLimiter, maxBodySize int64, allowedOrigins []string) *ChatHandler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	return &ChatHandler{
		sessions:       sessions,
		limiter:        limiter,
		maxBodySize:    maxBodySize,
		originPatterns: originPatterns(allowedOrigins),
	}
}

// RegisterRoutes registers the chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/chat", h.HandleHistory)
	r.Post("/api/chat", h.HandleSend)
	r.Delete("/api/chat", h.HandleEnd)
	r.Get("/ws/chat", h.ServeWebSocket)
}

// HandleHistory handles GET /api/chat. It starts the session on first contact
// so the welcome turn is always present.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	s, err := h.sessions.GetOrCreate(r.Context(), userID, sessionID)
	if err != nil {
		slog.Error("Failed to start intake session", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusBadGateway, intake.UserMessage(err))
		return
	}

	JSON(w, http.StatusOK, historyResponse(s.Snapshot()))
}

// HandleSend handles POST /api/chat.
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(userID) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.sessions.GetOrCreate(r.Context(), userID, sessionID)
	if err != nil {
		slog.Error("Failed to start intake session", "user_id", userID, "session_id", sessionID, "error", err)
		Error(w, http.StatusBadGateway, intake.UserMessage(err))
		return
	}

	start := time.Now()
	reply, err := h.sessions.Submit(r.Context(), s, req.Message)
	if err != nil {
		status := submitErrorStatus(err)
		slog.Warn("Chat turn failed",
			"user_id", userID,
			"session_id", sessionID,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"status", status,
			"error", err,
		)
		Error(w, status, submitErrorMessage(err))
		return
	}

	slog.Info("Chat turn completed",
		"user_id", userID,
		"session_id", sessionID,
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"message_length", len(req.Message),
		"notified", reply.Notified,
		"duration", time.Since(start),
	)
	JSON(w, http.StatusOK, reply)
}

// HandleEnd handles DELETE /api/chat.
func (h *ChatHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if !h.sessions.End(userID, sessionID) {
		Error(w, http.StatusNotFound, "no active session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func historyResponse(snap intake.Snapshot) HistoryResponse {
	return HistoryResponse{
		SessionID: snap.ID,
		State:     snap.State,
		Notified:  snap.Notified,
		Turns:     snap.RenderedTurns(),
	}
}

func submitErrorStatus(err error) int {
	var upstream *dialogue.UpstreamError
	switch {
	case errors.Is(err, intake.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, intake.ErrSessionEnded):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, intake.ErrEmptyMessage):
		return "message is required"
	case errors.Is(err, intake.ErrSessionEnded):
		return "session has ended"
	default:
		return intake.UserMessage(err)
	}
}
