// Package notify formats a finished conversation and mails it to the office.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rump-sv/unfallhilfe/internal/marker"
	"github.com/rump-sv/unfallhilfe/internal/transcript"
)

const (
	// Greeting opens every notification body.
	Greeting = "Neuer Lead vom digitalen Unfall-Notdienst:"
	// DefaultSubject is used when no subject is configured.
	DefaultSubject = "Neuer Lead: Unfall-Notdienst Rump"

	labelCustomer  = "KUNDE"
	labelAssistant = "ASSISTENT"
)

// Message is a plain-text mail ready for submission.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer submits a message. Implementations must not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NotifyError reports a failed dispatch. The session stays un-notified.
//
//nolint:revive // NotifyError reads better than Error at call sites.
type NotifyError struct {
	Recipient string
	Err       error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// Notifier turns a transcript into one outbound mail.
type Notifier struct {
	mailer    Mailer
	from      string
	recipient string
	subject   string
	logger    *slog.Logger
}

// New creates a notifier sending from sender to recipient.
func New(mailer Mailer, sender, recipient, subject string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &Notifier{
		mailer:    mailer,
		from:      sender,
		recipient: recipient,
		subject:   subject,
		logger:    logger,
	}
}

// FormatBody renders the greeting followed by one role-labelled line per turn,
// sentinel removed, in conversational order.
func FormatBody(turns []transcript.Turn) string {
	var b strings.Builder
	b.WriteString(Greeting)
	b.WriteString("\n\n")
	for _, turn := range turns {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(marker.Strip(turn.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func roleLabel(role transcript.Role) string {
	if role == transcript.RoleUser {
		return labelCustomer
	}
	return labelAssistant
}

// Notify sends the transcript once. Failures come back as *NotifyError and are
// never retried here.
func (n *Notifier) Notify(ctx context.Context, turns []transcript.Turn) error {
	msg := Message{
		From:    n.from,
		To:      n.recipient,
		Subject: n.subject,
		Body:    FormatBody(turns),
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Error("Lead notification failed", "recipient", n.recipient, "turns", len(turns), "error", err)
		return &NotifyError{Recipient: n.recipient, Err: err}
	}
	n.logger.Info("Lead notification sent", "recipient", n.recipient, "turns", len(turns))
	return nil
}
