// Package genai talks to the generative text service that writes query
// hints and venue explanations.
package genai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCompletionTimeout = errors.New("COMPLETION_TIMEOUT")
	ErrCompletionFailed  = errors.New("COMPLETION_FAILED")
	ErrCircuitOpen       = errors.New("COMPLETION_CIRCUIT_OPEN")
	ErrEmptyCompletion   = errors.New("EMPTY_COMPLETION")
)

// Completer turns a system instruction and a user prompt into free text.
// Implementations should honour ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, systemInstruction, userPrompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	return f(ctx, systemInstruction, userPrompt)
}

type completion struct {
	text string
	err  error
}

// CompleteWithTimeout bounds a single completion call by timeout. The
// deadline is derived from ctx but scoped to this call only. The call runs
// in its own goroutine and is abandoned when the deadline passes, so a
// backend that ignores ctx still cannot hold the caller past the limit.
func CompleteWithTimeout(ctx context.Context, c Completer, timeout time.Duration, systemInstruction, userPrompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: no completer configured", ErrCompletionFailed)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		text, err := c.Complete(callCtx, systemInstruction, userPrompt)
		done <- completion{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return "", ErrCompletionTimeout
			}
			return "", res.err
		}
		return res.text, nil
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", ErrCompletionTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, callCtx.Err())
	}
}

// Outcome labels a completion result for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCompletionTimeout):
		return "timeout"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}
