package backend

import (
	"context"
	"fmt"
)

// MockBackend returns deterministic responses for local runs and tests.
type MockBackend struct {
	responses       map[string]string
	defaultResponse string

	// Script, when non-empty, is consumed one entry per Invoke regardless of
	// prompt; a nil entry error means success with the entry's text.
	Script []ScriptedResponse

	Calls int
}

// ScriptedResponse is one entry of a mock invocation script.
type ScriptedResponse struct {
	Text string
	Err  error
}

// NewMockBackend creates a mock backend with a default response.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockBackendWithResponses creates a mock backend with predefined responses.
func NewMockBackendWithResponses(responses map[string]string, defaultResponse string) *MockBackend {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockBackend{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the backend identifier.
func (b *MockBackend) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (b *MockBackend) Models() []string {
	return []string{"mock-1"}
}

// Invoke returns a deterministic response for the prompt.
func (b *MockBackend) Invoke(_ context.Context, model string, prompt string) (string, error) {
	b.Calls++
	if len(b.Script) > 0 {
		idx := b.Calls - 1
		if idx >= len(b.Script) {
			idx = len(b.Script) - 1
		}
		entry := b.Script[idx]
		if entry.Err != nil {
			return "", entry.Err
		}
		return entry.Text, nil
	}
	if response, ok := b.responses[prompt]; ok {
		return response, nil
	}
	return fmt.Sprintf("%s\n%s", b.defaultResponse, prompt), nil
}
