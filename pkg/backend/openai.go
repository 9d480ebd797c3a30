package backend

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// OpenAIBackend implements the Backend interface for OpenAI models.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(apiKey string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient()
	return &OpenAIBackend{client: client}, nil
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// Models returns the list of supported OpenAI models.
func (b *OpenAIBackend) Models() []string {
	return []string{
		"gpt-5.2-instant",
		"gpt-5.2-thinking",
	}
}

// Invoke sends a prompt to OpenAI and returns the response text.
func (b *OpenAIBackend) Invoke(ctx context.Context, model string, prompt string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Temporary: true, Err: fmt.Errorf("openai returned no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}
