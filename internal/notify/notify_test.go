package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rump-sv/unfallhilfe/internal/transcript"
)

type fakeMailer struct {
	sent []Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestFormatBodyLabelsAndStripsInOrder(t *testing.T) {
	t.Parallel()

	body := FormatBody([]transcript.Turn{
		{Role: transcript.RoleUser, Text: "Hallo"},
		{Role: transcript.RoleAssistant, Text: "Wie heißen Sie? [MAIL_SENDEN]"},
	})

	if !strings.HasPrefix(body, Greeting) {
		t.Fatalf("expected body to start with greeting, got %q", body)
	}
	first := strings.Index(body, "KUNDE: Hallo\n")
	second := strings.Index(body, "ASSISTENT: Wie heißen Sie? \n")
	if first < 0 || second < 0 {
		t.Fatalf("expected both labelled lines in body: %q", body)
	}
	if first > second {
		t.Fatalf("expected customer line before assistant line: %q", body)
	}
	if strings.Contains(body, "[MAIL_SENDEN]") {
		t.Fatalf("sentinel leaked into body: %q", body)
	}
}

func TestFormatBodyOneLinePerTurn(t *testing.T) {
	t.Parallel()

	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Text: "Hallo! Hatten Sie einen Unfall?"},
		{Role: transcript.RoleUser, Text: "Ja"},
		{Role: transcript.RoleAssistant, Text: "Wie heißen Sie?"},
		{Role: transcript.RoleUser, Text: "Müller"},
	}
	body := FormatBody(turns)
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	// greeting + blank line + one per turn
	if len(lines) != 2+len(turns) {
		t.Fatalf("expected %d lines, got %d: %q", 2+len(turns), len(lines), body)
	}
}

func TestNotifySendsConfiguredMessage(t *testing.T) {
	t.Parallel()

	m := &fakeMailer{}
	n := New(m, "bot@example.com", "owner@example.com", "", nil)

	err := n.Notify(context.Background(), []transcript.Turn{{Role: transcript.RoleUser, Text: "Hallo"}})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected exactly one mail, got %d", len(m.sent))
	}
	got := m.sent[0]
	if got.From != "bot@example.com" || got.To != "owner@example.com" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.Subject != DefaultSubject {
		t.Fatalf("expected default subject, got %q", got.Subject)
	}
	if !strings.Contains(got.Body, "KUNDE: Hallo") {
		t.Fatalf("unexpected body: %q", got.Body)
	}
}

func TestNotifyWrapsMailerFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("535 authentication failed")
	n := New(&fakeMailer{err: cause}, "bot@example.com", "owner@example.com", "Betreff", nil)

	err := n.Notify(context.Background(), nil)
	var notifyErr *NotifyError
	if !errors.As(err, &notifyErr) {
		t.Fatalf("expected *NotifyError, got %T (%v)", err, err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped: %v", err)
	}
	if notifyErr.Recipient != "owner@example.com" {
		t.Fatalf("unexpected recipient: %q", notifyErr.Recipient)
	}
}

func TestBuildMessageRejectsMalformedRecipient(t *testing.T) {
	t.Parallel()

	_, err := buildMessage(Message{From: "bot@example.com", To: "not an address", Subject: "x", Body: "y"})
	if err == nil {
		t.Fatal("expected malformed recipient to be rejected")
	}
}

func TestNewSMTPMailerValidatesEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewSMTPMailer(SMTPConfig{Port: 587}); err == nil {
		t.Fatal("expected missing host to be rejected")
	}
	if _, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 70000}); err == nil {
		t.Fatal("expected out of range port to be rejected")
	}
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587})
	if err != nil {
		t.Fatalf("NewSMTPMailer failed: %v", err)
	}
	if m.cfg.Timeout <= 0 {
		t.Fatal("expected default timeout to be applied")
	}
}
