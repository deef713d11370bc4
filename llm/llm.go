package llm

import "context"

// Message is a single chat turn sent to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client abstracts a text-generation backend. The attempt loop sends one
// user message per request and treats any returned error as fatal for the
// run; clients do not retry on their own.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
