package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

var (
	errNoCandidates = errors.New("response contained no candidates")
	errNoText       = errors.New("response contained no text")
)

// chatSender is the subset of *genai.Chat used by a session.
type chatSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GenAIConfig configures the Gemini-backed starter.
type GenAIConfig struct {
	APIKey     string
	Candidates []string
	Timeout    time.Duration
}

// GenAI starts Gemini chat sessions with the fixed system instruction.
type GenAI struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGenAI creates the client and picks the first model in cfg.Candidates
// that the API reports as available. It fails with ErrNoModel when none is.
func NewGenAI(ctx context.Context, cfg GenAIConfig, logger *slog.Logger) (*GenAI, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	probe := func(ctx context.Context, name string) error {
		_, err := client.Models.Get(ctx, name, nil)
		return err
	}
	model, err := SelectModel(ctx, probe, cfg.Candidates, logger)
	if err != nil {
		return nil, err
	}

	return &GenAI{
		client:  client,
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Model returns the selected model identifier.
func (g *GenAI) Model() string {
	return g.model
}

// Start opens a chat with empty history.
func (g *GenAI) Start(ctx context.Context) (Session, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, &UpstreamError{Model: g.model, Err: fmt.Errorf("create chat: %w", err)}
	}
	return newChatSession(chat, g.model, g.timeout), nil
}

type chatSession struct {
	chat    chatSender
	model   string
	timeout time.Duration
}

func newChatSession(chat chatSender, model string, timeout time.Duration) *chatSession {
	return &chatSession{chat: chat, model: model, timeout: timeout}
}

// Send forwards one user turn and returns the whole assistant reply.
func (s *chatSession) Send(ctx context.Context, text string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", &UpstreamError{Model: s.model, Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &UpstreamError{Model: s.model, Err: errNoCandidates}
	}
	cand := resp.Candidates[0]
	if cand == nil {
		return "", &UpstreamError{Model: s.model, Err: errNoCandidates}
	}
	// A blocked candidate carries a finish reason but no content.
	reply := resp.Text()
	if cand.Content == nil || reply == "" {
		return "", &UpstreamError{Model: s.model, Err: fmt.Errorf("%w (finish reason %s)", errNoText, cand.FinishReason)}
	}
	return reply, nil
}
