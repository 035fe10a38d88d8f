package openai_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/fwojciec/redline"
	"github.com/fwojciec/redline/openai"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatClient struct {
	fn func(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

func (c *chatClient) CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	return c.fn(ctx, req)
}

func reply(content string, reason goopenai.FinishReason) goopenai.ChatCompletionResponse {
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{
			Message:      goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: content},
			FinishReason: reason,
		}},
	}
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	t.Run("sends system instruction and document", func(t *testing.T) {
		t.Parallel()

		var got goopenai.ChatCompletionRequest
		client := &chatClient{fn: func(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			got = req
			return reply("This is {++new ++}content.", goopenai.FinishReasonStop), nil
		}}

		gen := openai.NewGenerator(client, "", openai.WithMaxTokens(512))
		out, err := gen.Generate(context.Background(), "This is content.", "add a word")

		require.NoError(t, err)
		assert.Equal(t, "This is {++new ++}content.", out)
		assert.Equal(t, openai.DefaultModel, got.Model)
		assert.Equal(t, 512, got.MaxCompletionTokens)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, redline.SystemInstruction, got.Messages[0].Content)
		assert.Contains(t, got.Messages[1].Content, "add a word")
	})

	t.Run("strips a wrapping fence", func(t *testing.T) {
		t.Parallel()

		client := &chatClient{fn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return reply("```\nHi{++ there++}.\n```", goopenai.FinishReasonStop), nil
		}}

		out, err := openai.NewGenerator(client, "gpt-4o").Generate(context.Background(), "Hi.", "greet")

		require.NoError(t, err)
		assert.Equal(t, "Hi{++ there++}.", out)
	})

	t.Run("no choices", func(t *testing.T) {
		t.Parallel()

		client := &chatClient{fn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return goopenai.ChatCompletionResponse{}, nil
		}}

		_, err := openai.NewGenerator(client, "").Generate(context.Background(), "doc", "p")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})

	t.Run("truncated response", func(t *testing.T) {
		t.Parallel()

		client := &chatClient{fn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return reply("half", goopenai.FinishReasonLength), nil
		}}

		_, err := openai.NewGenerator(client, "").Generate(context.Background(), "doc", "p")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "truncated")
	})

	t.Run("api error keeps status", func(t *testing.T) {
		t.Parallel()

		apiErr := &goopenai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
		client := &chatClient{fn: func(context.Context, goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
			return goopenai.ChatCompletionResponse{}, apiErr
		}}

		_, err := openai.NewGenerator(client, "").Generate(context.Background(), "doc", "p")

		require.ErrorIs(t, err, apiErr)
		assert.Contains(t, err.Error(), "HTTP 401")
	})
}
