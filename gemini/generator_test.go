package gemini_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate_ReturnsMarkup(t *testing.T) {
	t.Parallel()

	var gotModel string
	var gotContents []*gemini.Content
	var gotConfig *gemini.GenerateContentConfig
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			gotModel, gotContents, gotConfig = model, contents, config
			return &gemini.GenerateContentResponse{Text: "This is {++new ++}content."}, nil
		},
	}

	gen := gemini.NewGenerator(client, gemini.DefaultModel, gemini.WithThinkingLevel("LOW"))
	got, err := gen.Generate(context.Background(), "This is content.", "add a word")

	require.NoError(t, err)
	assert.Equal(t, "This is {++new ++}content.", got)
	assert.Equal(t, gemini.DefaultModel, gotModel)
	require.Len(t, gotContents, 1)
	assert.Contains(t, gotContents[0].Parts[0].Text, "This is content.")
	assert.Contains(t, gotContents[0].Parts[0].Text, "add a word")
	assert.Equal(t, "LOW", gotConfig.ThinkingLevel)
}

func TestGenerator_Generate_StripsFence(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return &gemini.GenerateContentResponse{Text: "```markdown\nHi{++ there++}.\n```"}, nil
		},
	}

	got, err := gemini.NewGenerator(client, gemini.DefaultModel).Generate(context.Background(), "Hi.", "greet")

	require.NoError(t, err)
	assert.Equal(t, "Hi{++ there++}.", got)
}

func TestGenerator_Generate_PropagatesAPIError(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("API unavailable")
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return nil, expectedErr
		},
	}

	_, err := gemini.NewGenerator(client, gemini.DefaultModel).Generate(context.Background(), "doc", "p")

	require.ErrorIs(t, err, expectedErr)
}

func TestGenerator_Generate_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			if calls < 3 {
				return nil, gemini.NewAPIError(http.StatusTooManyRequests, "slow down")
			}
			return &gemini.GenerateContentResponse{Text: "ok"}, nil
		},
	}

	gen := gemini.NewGenerator(client, gemini.DefaultModel, gemini.WithRetries(2, time.Millisecond))
	got, err := gen.Generate(context.Background(), "doc", "p")

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestGenerator_Generate_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			calls++
			return nil, gemini.NewAPIError(http.StatusBadRequest, "bad request")
		},
	}

	gen := gemini.NewGenerator(client, gemini.DefaultModel, gemini.WithRetries(3, time.Millisecond))
	_, err := gen.Generate(context.Background(), "doc", "p")

	var apiErr *gemini.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestGenerator_Generate_ReturnsErrorOnNilResponse(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return nil, nil
		},
	}

	_, err := gemini.NewGenerator(client, gemini.DefaultModel).Generate(context.Background(), "doc", "p")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil response")
}

func TestGenerator_Generate_ReturnsErrorOnTruncation(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(context.Context, string, []*gemini.Content, *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			return &gemini.GenerateContentResponse{Text: "half a doc", FinishReason: "MAX_TOKENS"}, nil
		},
	}

	_, err := gemini.NewGenerator(client, gemini.DefaultModel).Generate(context.Background(), "doc", "p")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestGenerator_Generate_AppliesTimeout(t *testing.T) {
	t.Parallel()

	client := &gemini.MockGenerativeClient{
		GenerateContentFn: func(ctx context.Context, _ string, _ []*gemini.Content, _ *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	gen := gemini.NewGenerator(client, gemini.DefaultModel, gemini.WithTimeout(10*time.Millisecond))
	_, err := gen.Generate(context.Background(), "doc", "p")

	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, redline.SystemInstruction, config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "text/plain", config.ResponseMIMEType)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.2, *config.Temperature, 0.001)
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, gemini.Retryable(gemini.NewAPIError(http.StatusTooManyRequests, "")))
	assert.True(t, gemini.Retryable(gemini.NewAPIError(http.StatusServiceUnavailable, "")))
	assert.False(t, gemini.Retryable(gemini.NewAPIError(http.StatusNotFound, "")))
	assert.False(t, gemini.Retryable(errors.New("other")))
}
