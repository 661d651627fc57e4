// internal/common/genai/eino.go
package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator is the part of an eino chat model the completer needs.
// *ark.ChatModel satisfies it.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// EinoConfig configures the Ark-hosted chat model.
type EinoConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// EinoCompleter sends the system instruction and prompt as a two-message
// chat to an eino model.
type EinoCompleter struct {
	generator   Generator
	maxTokens   int
	temperature float32
}

// NewArkCompleter builds an EinoCompleter over an Ark chat model.
func NewArkCompleter(ctx context.Context, cfg EinoConfig) (*EinoCompleter, error) {
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("init ark chat model: %w", err)
	}
	return NewEinoCompleter(cm, cfg.MaxTokens, cfg.Temperature), nil
}

func NewEinoCompleter(g Generator, maxTokens int, temperature float64) *EinoCompleter {
	return &EinoCompleter{
		generator:   g,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

func (e *EinoCompleter) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	var opts []model.Option
	if e.maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(e.maxTokens))
	}
	if e.temperature > 0 {
		opts = append(opts, model.WithTemperature(e.temperature))
	}

	msg, err := e.generator.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemInstruction),
		schema.UserMessage(userPrompt),
	}, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCompletionTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, ErrEmptyCompletion)
	}
	return msg.Content, nil
}
