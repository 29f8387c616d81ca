package llm

import "context"

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

type Message struct {
	Role    string
	Content string
}

// LLM is the reasoning capability: prompt in, text out. Decision and
// consolidation contracts are enforced by the callers, not here.
type LLM interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}
