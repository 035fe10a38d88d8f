package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/redline"
)

// Compile-time interface verification.
var _ redline.Generator = (*Generator)(nil)

// DefaultTimeout bounds a single Generate call including retries.
const DefaultTimeout = 90 * time.Second

// DefaultRetries is the number of extra attempts made after a retryable API
// error.
const DefaultRetries = 2

// Generator implements redline.Generator using Google Gemini.
type Generator struct {
	client    GenerativeClient
	model     string
	formatter redline.PromptFormatter
	timeout   time.Duration
	retries   int
	backoff   time.Duration
	thinking  string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithTimeout sets the timeout for a Generate call.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithRetries sets how many times a retryable API error is retried and the
// base delay between attempts. The delay doubles after each attempt.
func WithRetries(n int, backoff time.Duration) GeneratorOption {
	return func(g *Generator) {
		g.retries = n
		g.backoff = backoff
	}
}

// WithThinkingLevel sets the model thinking level ("MINIMAL", "LOW",
// "MEDIUM", "HIGH").
func WithThinkingLevel(level string) GeneratorOption {
	return func(g *Generator) {
		g.thinking = level
	}
}

// WithFormatter overrides how the document and request are rendered.
func WithFormatter(f redline.PromptFormatter) GeneratorOption {
	return func(g *Generator) {
		g.formatter = f
	}
}

// NewGenerator creates a new Generator.
func NewGenerator(client GenerativeClient, model string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:    client,
		model:     model,
		formatter: &redline.DefaultFormatter{},
		timeout:   DefaultTimeout,
		retries:   DefaultRetries,
		backoff:   time.Second,
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

	contents := []*Content{{
		Role:  "user",
		Parts: []*Part{{Text: g.formatter.Format(document, prompt)}},
	}}
	config := BuildConfig()
	config.ThinkingLevel = g.thinking

	var (
		resp *GenerateContentResponse
		err  error
	)
	delay := g.backoff
	for attempt := 0; ; attempt++ {
		resp, err = g.client.GenerateContent(ctx, g.model, contents, config)
		if err == nil || attempt >= g.retries || !Retryable(err) {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("gemini: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: returned nil response")
	}
	if resp.FinishReason == "MAX_TOKENS" {
		return "", fmt.Errorf("gemini: response truncated at output token limit")
	}

	return redline.Unfence(document, resp.Text), nil
}

// BuildConfig returns the GenerateContentConfig for suggestion requests.
func BuildConfig() *GenerateContentConfig {
	temp := float32(0.2)
	return &GenerateContentConfig{
		SystemInstruction: &Content{
			Parts: []*Part{{Text: redline.SystemInstruction}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "text/plain",
	}
}

// Retryable reports whether err is an API error worth retrying: rate limits
// and server-side failures.
func Retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
}

// GenerativeClient abstracts the Gemini API for testing.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error)
}

// Content represents a message in a Gemini conversation.
type Content struct {
	Role  string
	Parts []*Part
}

// Part represents a part of a message.
type Part struct {
	Text string
}

// GenerateContentConfig holds configuration for content generation.
type GenerateContentConfig struct {
	SystemInstruction *Content
	Temperature       *float32
	ResponseMIMEType  string
	MaxOutputTokens   int32
	ThinkingLevel     string // "", "MINIMAL", "LOW", "MEDIUM", "HIGH"
}

// GenerateContentResponse holds the response from content generation.
type GenerateContentResponse struct {
	Text         string
	FinishReason string
}

// MockGenerativeClient is a mock implementation of GenerativeClient for testing.
type MockGenerativeClient struct {
	GenerateContentFn func(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error)
}

func (m *MockGenerativeClient) GenerateContent(ctx context.Context, model string, contents []*Content, config *GenerateContentConfig) (*GenerateContentResponse, error) {
	return m.GenerateContentFn(ctx, model, contents, config)
}

// APIError represents an error from the Gemini API with HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError with the given status code and message.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}
