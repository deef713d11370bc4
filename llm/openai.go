package llm

import (
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to the OpenAI chat completions API, or to any
// compatible server when a base URL is supplied.
type OpenAIClient struct {
	Model  string
	client *openai.Client
	Debug  bool
}

// NewOpenAIClient builds a client for the given API key and model.
// baseURL overrides the default API endpoint when non-empty.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		Model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Chat sends the messages as a chat completion request and returns the
// first choice's content.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.Model,
		Messages: convertOpenAIMessages(messages),
	}
	c.logf("request model=%s messages=%d", req.Model, len(req.Messages))
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	c.logf("response finish_reason=%s", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// SetDebugLogging enables or disables verbose logging for requests/responses.
func (c *OpenAIClient) SetDebugLogging(enabled bool) {
	c.Debug = enabled
}

func convertOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func (c *OpenAIClient) logf(format string, args ...interface{}) {
	if !c.Debug {
		return
	}
	log.Printf("[openai] "+format, args...)
}
