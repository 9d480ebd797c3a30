// Package backend provides provider-neutral access to remote inference
// services and the web-search tool the pipeline consumes.
package backend

import "context"

// Backend defines the interface for remote inference providers.
//
// Implementations carry no retry logic of their own: a call either returns
// the model's text or an error, and the retry layer decides what to do with
// the failure.
type Backend interface {
	// Invoke sends a prompt to the model and returns the response text.
	Invoke(ctx context.Context, model string, prompt string) (string, error)

	// Name returns the backend's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}
