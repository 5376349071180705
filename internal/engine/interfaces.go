// Package engine implements the conversation state machine and the
// recommendation procedure that turns user events into backend prompts
// and parsed recommendation batches.
package engine

import "context"

// Backend abstracts the generative-text service. The prompt is plain
// text; the return is plain text that may contain multiple lines and
// markdown emphasis markers. Whether the backend keeps conversational
// context across calls is its own policy: the engine restates the
// exclusion history in every prompt regardless.
type Backend interface {
	// Generate produces recommendation text for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
