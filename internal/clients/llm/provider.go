package llm

import "context"

// Provider is the text-generation capability the pipeline consumes. A call
// may fail with a connectivity or HTTP-style error; callers decide whether
// that is fatal (reply generation) or recoverable (analysis, via fallback).
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
	HealthCheck(ctx context.Context) bool
}
