package intake

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rump-sv/unfallhilfe/internal/convlog"
	"github.com/rump-sv/unfallhilfe/internal/dialogue"
	"github.com/rump-sv/unfallhilfe/internal/domain"
	"github.com/rump-sv/unfallhilfe/internal/marker"
	"github.com/rump-sv/unfallhilfe/internal/notify"
	"github.com/rump-sv/unfallhilfe/internal/transcript"
)

var (
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSessionEnded is returned when submitting to a DONE session.
	ErrSessionEnded = errors.New("session has ended")
)

// Notifier dispatches a transcript to the office.
type Notifier interface {
	Notify(ctx context.Context, turns []transcript.Turn) error
}

// LeadRecorder keeps a ledger of notification attempts.
type LeadRecorder interface {
	RecordLead(ctx context.Context, lead *domain.Lead) error
}

// Reply is what the user sees after a successful turn.
type Reply struct {
	// Text is the assistant reply with the sentinel removed.
	Text string `json:"reply"`
	// Notified is the session flag after this turn.
	Notified bool `json:"notified"`
}

// Controller runs the turn cycle for sessions. It holds no per-session state.
type Controller struct {
	starter  dialogue.Starter
	notifier Notifier
	leads    LeadRecorder
	convLog  convlog.Logger
	logger   *slog.Logger
	now      func() time.Time
}

// NewController wires the collaborators. leads and convLog may be nil.
func NewController(starter dialogue.Starter, notifier Notifier, leads LeadRecorder, convLog convlog.Logger, logger *slog.Logger) *Controller {
	if convLog == nil {
		convLog = convlog.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		starter:  starter,
		notifier: notifier,
		leads:    leads,
		convLog:  convLog,
		logger:   logger,
		now:      time.Now,
	}
}

// NewSession opens a model chat and seeds the transcript with the welcome turn.
func (c *Controller) NewSession(ctx context.Context, userID, sessionID string) (*Session, error) {
	chat, err := c.starter.Start(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	s := &Session{
		ID:         sessionID,
		UserID:     userID,
		transcript: transcript.New(),
		dialogue:   chat,
		state:      StateAwaitingInput,
		createdAt:  now,
	}
	s.touch(now)
	s.transcript.Append(transcript.Turn{Role: transcript.RoleAssistant, Text: dialogue.WelcomeMessage, At: now})

	c.logger.Info("Intake session started", "user_id", userID, "session_id", sessionID, "model", c.starter.Model())
	return s, nil
}

// Submit processes one user message to completion. On a model failure the
// user turn stays recorded, no assistant turn is added and the notified flag
// is left alone; the returned error is meant to be shown to the user.
func (c *Controller) Submit(ctx context.Context, s *Session, text string) (Reply, error) {
	if strings.TrimSpace(text) == "" {
		return Reply{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDone {
		return Reply{}, ErrSessionEnded
	}

	now := c.now()
	s.transcript.Append(transcript.Turn{Role: transcript.RoleUser, Text: text, At: now})
	s.touch(now)
	s.state = StateProcessing
	defer func() { s.state = StateAwaitingInput }()

	c.logEvent(s, convlog.EventUserMessage, text, nil)

	raw, err := s.dialogue.Send(ctx, text)
	if err != nil {
		c.logger.Error("Model round-trip failed", "user_id", s.UserID, "session_id", s.ID, "error", err)
		c.logEvent(s, convlog.EventUpstreamError, "", map[string]any{"error": err.Error()})
		return Reply{}, err
	}

	s.transcript.Append(transcript.Turn{Role: transcript.RoleAssistant, Text: raw, At: c.now()})
	c.logEvent(s, convlog.EventAssistantMessage, raw, map[string]any{"sentinel": marker.Detect(raw)})

	if marker.Detect(raw) && !s.notified {
		// The mail goes out even if the client disconnects mid-turn.
		c.notify(context.WithoutCancel(ctx), s)
	}

	return Reply{Text: marker.Strip(raw), Notified: s.notified}, nil
}

// notify must be called with s.mu held.
func (c *Controller) notify(ctx context.Context, s *Session) {
	turns := s.transcript.All()
	err := c.notifier.Notify(ctx, turns)

	lead := &domain.Lead{
		ID:         uuid.NewString(),
		UserID:     s.UserID,
		SessionID:  s.ID,
		Model:      c.starter.Model(),
		Transcript: notify.FormatBody(turns),
		Status:     domain.LeadSent,
		CreatedAt:  c.now(),
	}

	if err != nil {
		lead.Status = domain.LeadFailed
		lead.Error = err.Error()
		c.logger.Warn("Lead captured but notification failed; will retry on next sentinel",
			"user_id", s.UserID, "session_id", s.ID, "error", err)
		c.logEvent(s, convlog.EventLeadNotifyFailed, "", map[string]any{"error": err.Error(), "lead_id": lead.ID})
	} else {
		s.notified = true
		c.logger.Info("Lead notified", "user_id", s.UserID, "session_id", s.ID, "lead_id", lead.ID, "turns", len(turns))
		c.logEvent(s, convlog.EventLeadNotified, "", map[string]any{"lead_id": lead.ID, "turns": len(turns)})
	}

	if c.leads == nil {
		return
	}
	if recErr := c.leads.RecordLead(ctx, lead); recErr != nil {
		c.logger.Error("Failed to record lead", "lead_id", lead.ID, "session_id", s.ID, "error", recErr)
	}
}

func (c *Controller) endSession(s *Session, reason string) {
	s.end()
	c.logEvent(s, convlog.EventSessionEnded, "", map[string]any{"reason": reason})
	c.logger.Info("Intake session ended", "user_id", s.UserID, "session_id", s.ID, "reason", reason)
}

func (c *Controller) logEvent(s *Session, eventType, raw string, meta map[string]any) {
	c.convLog.Log(convlog.Event{
		Timestamp:  c.now().UTC().Format(time.RFC3339Nano),
		UserID:     s.UserID,
		SessionID:  s.ID,
		Channel:    "intake",
		EventType:  eventType,
		ContentRaw: raw,
		Meta:       meta,
	})
}

// UserMessage renders a per-turn error for display.
func UserMessage(err error) string {
	return "Ein Fehler ist aufgetreten: " + err.Error()
}
