package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rump-sv/unfallhilfe/internal/identity"
	"github.com/rump-sv/unfallhilfe/internal/intake"
	"github.com/rump-sv/unfallhilfe/internal/transcript"
)

// wsMessage is the frame exchanged on /ws/chat.
type wsMessage struct {
	Type     string            `json:"type"`
	Content  string            `json:"content,omitempty"`
	Notified bool              `json:"notified,omitempty"`
	State    intake.State      `json:"state,omitempty"`
	Turns    []transcript.Turn `json:"turns,omitempty"`
}

const (
	wsTypeMessage = "message"
	wsTypeHistory = "history"
	wsTypeReply   = "reply"
	wsTypeError   = "error"
)

// originPatterns converts configured origins to the host patterns the
// websocket library matches against.
func originPatterns(allowed []string) []string {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(allowed))
	for _, origin := range allowed {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, strings.TrimSpace(origin))
	}
	return patterns
}

// ServeWebSocket runs a chat session over a WebSocket. The server sends the
// rendered history on connect and one reply or error frame per message.
func (h *ChatHandler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	slog.Info("WebSocket chat connection request", "user_id", userID, "session_id", sessionID)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()
	ws.SetReadLimit(h.maxBodySize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s, err := h.sessions.GetOrCreate(ctx, userID, sessionID)
	if err != nil {
		slog.Error("Failed to start intake session", "user_id", userID, "session_id", sessionID, "error", err)
		_ = wsjson.Write(ctx, ws, wsMessage{Type: wsTypeError, Content: intake.UserMessage(err)})
		return
	}

	if err := wsjson.Write(ctx, ws, historyFrame(s.Snapshot())); err != nil {
		slog.Debug("Failed to send history", "error", err, "user_id", userID)
		return
	}

	for {
		var msg wsMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			logReadError(err, userID, sessionID)
			return
		}

		var frames []wsMessage
		s, frames = h.handleFrame(ctx, s, msg)
		for _, out := range frames {
			if err := wsjson.Write(ctx, ws, out); err != nil {
				slog.Debug("Failed to write WebSocket frame", "error", err, "user_id", userID)
				return
			}
		}
	}
}

// handleFrame answers one client frame. When the session was ended while the
// socket stayed open (idle reap or DELETE), it moves to a fresh session,
// sends its history and submits the message there. The returned session is
// the one the connection uses from now on.
func (h *ChatHandler) handleFrame(ctx context.Context, s *intake.Session, msg wsMessage) (*intake.Session, []wsMessage) {
	if msg.Type != wsTypeMessage {
		return s, []wsMessage{{Type: wsTypeError, Content: "unsupported message type"}}
	}
	if h.limiter != nil && !h.limiter.Allow(s.UserID) {
		return s, []wsMessage{{Type: wsTypeError, Content: "rate limit exceeded"}}
	}

	var frames []wsMessage
	reply, err := h.sessions.Submit(ctx, s, msg.Content)
	if errors.Is(err, intake.ErrSessionEnded) {
		fresh, startErr := h.sessions.GetOrCreate(ctx, s.UserID, s.ID)
		if startErr != nil {
			slog.Error("Failed to resume intake session", "user_id", s.UserID, "session_id", s.ID, "error", startErr)
			return s, []wsMessage{{Type: wsTypeError, Content: intake.UserMessage(startErr)}}
		}
		slog.Info("Resumed ended session on open WebSocket", "user_id", s.UserID, "session_id", s.ID)
		s = fresh
		frames = append(frames, historyFrame(s.Snapshot()))
		reply, err = h.sessions.Submit(ctx, s, msg.Content)
	}
	if err != nil {
		slog.Warn("Chat turn failed", "user_id", s.UserID, "session_id", s.ID, "channel", "websocket", "error", err)
		return s, append(frames, wsMessage{Type: wsTypeError, Content: submitErrorMessage(err), Notified: s.Notified()})
	}
	return s, append(frames, wsMessage{Type: wsTypeReply, Content: reply.Text, Notified: reply.Notified})
}

func historyFrame(snap intake.Snapshot) wsMessage {
	return wsMessage{
		Type:     wsTypeHistory,
		Notified: snap.Notified,
		State:    snap.State,
		Turns:    snap.RenderedTurns(),
	}
}

func logReadError(err error, userID, sessionID string) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		slog.Info("WebSocket chat closed by client", "user_id", userID, "session_id", sessionID)
	default:
		slog.Debug("WebSocket read ended", "user_id", userID, "session_id", sessionID, "error", err)
	}
}
