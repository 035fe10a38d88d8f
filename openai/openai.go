// Package openai implements redline.Generator on the OpenAI chat completions
// API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/redline"
	"github.com/sashabaranov/go-openai"
)

// Compile-time interface verification.
var _ redline.Generator = (*Generator)(nil)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// DefaultTimeout bounds a single Generate call.
const DefaultTimeout = 90 * time.Second

// ChatClient is the subset of *openai.Client the Generator needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator implements redline.Generator using OpenAI chat completions.
type Generator struct {
	client      ChatClient
	model       string
	formatter   redline.PromptFormatter
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		g.maxTokens = n
	}
}

// WithTimeout sets the timeout for a Generate call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewClient creates an OpenAI API client for apiKey.
func NewClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// NewGenerator creates a Generator. An empty model selects DefaultModel.
func NewGenerator(client ChatClient, model string, opts ...Option) *Generator {
	if model == "" {
		model = DefaultModel
	}
	g := &Generator{
		client:      client,
		model:       model,
		formatter:   &redline.DefaultFormatter{},
		temperature: 0.2,
		timeout:     DefaultTimeout,
		logger:      slog.Default().With(slog.String("component", "openai")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the model for the document re-rendered with CriticMarkup
// markers for the requested edits.
func (g *Generator) Generate(ctx context.Context, document, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: redline.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: g.formatter.Format(document, prompt)},
		},
		Temperature: g.temperature,
	}
	if g.maxTokens > 0 {
		req.MaxCompletionTokens = g.maxTokens
	}

	g.logger.Debug("requesting completion", slog.String("model", g.model), slog.Int("document_bytes", len(document)))
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai: API error (HTTP %d): %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: returned no choices")
	}
	choice := resp.Choices[0]
	g.logger.Debug("received completion", slog.String("finish_reason", string(choice.FinishReason)))
	if choice.FinishReason == openai.FinishReasonLength {
		return "", fmt.Errorf("openai: response truncated at output token limit")
	}

	return redline.Unfence(document, choice.Message.Content), nil
}
