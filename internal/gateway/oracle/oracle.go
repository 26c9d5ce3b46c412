// Package oracle talks to the external decision source: an OpenAI-compatible
// chat completion endpoint that returns a free-form trade proposal.
package oracle

import "context"

// Oracle produces one raw proposal per cycle. The returned string is the
// model's verbatim reply; extraction and normalization happen downstream.
type Oracle interface {
	Propose(ctx context.Context, strategy, systemPrompt, userPrompt string) (string, error)
}
