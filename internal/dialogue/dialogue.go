// Package dialogue wraps a stateful chat with the hosted language model.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoModel is returned when no candidate model could be initialised.
var ErrNoModel = errors.New("no usable model")

// Session is one running conversation with the model. The system instruction
// is fixed when the session is started; Send carries user turns only.
type Session interface {
	Send(ctx context.Context, text string) (string, error)
}

// Starter opens new sessions against a selected model.
type Starter interface {
	Start(ctx context.Context) (Session, error)
	Model() string
}

// UpstreamError reports a failed model round-trip. It is recoverable per turn.
type UpstreamError struct {
	Model string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ProbeFunc checks whether a model identifier can be used.
type ProbeFunc func(ctx context.Context, model string) error

// SelectModel returns the first candidate the probe accepts, in order.
// When every candidate fails the result wraps ErrNoModel and each cause.
// A nil logger selects slog.Default().
func SelectModel(ctx context.Context, probe ProbeFunc, candidates []string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := probe(ctx, name); err != nil {
			logger.Warn("Model candidate unavailable, trying next", "model", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		logger.Info("Model selected", "model", name)
		return name, nil
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: candidate list is empty", ErrNoModel)
	}
	return "", fmt.Errorf("%w: %w", ErrNoModel, errors.Join(errs...))
}
