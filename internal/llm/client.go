package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Role strings as sent to the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Profile fixes the sampling settings for a call site. The service does not
// expose these as request-tunable parameters.
type Profile struct {
	MaxTokens   int
	Temperature float32
}

var (
	// ChatProfile is used for conversational turns.
	ChatProfile = Profile{MaxTokens: 1000, Temperature: 0.7}
	// ExtractProfile is used for structured field extraction, where low
	// temperature keeps the output close to the requested JSON shape.
	ExtractProfile = Profile{MaxTokens: 500, Temperature: 0.1}
)

type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a completion client. baseURL overrides the API endpoint
// when non-empty, which is how tests point the client at a fake server.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends the ordered message sequence and returns the text of the
// first choice.
func (c *Client) Complete(ctx context.Context, messages []Message, profile Profile) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   profile.MaxTokens,
		Temperature: profile.Temperature,
		Messages:    toAPIMessages(messages),
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toAPIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
