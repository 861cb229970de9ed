package llm

import (
	"context"
	"strings"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
	"github.com/yanqian/nutriforecast/internal/infra/llm/chatgpt"
)

const maxNarrativeTokens = 600

// ChatGPTLLM adapts the ChatGPT client to the analysis narrative.
type ChatGPTLLM struct {
	client      *chatgpt.Client
	model       string
	temperature float32
}

// NewChatGPTLLM constructs the adapter.
func NewChatGPTLLM(client *chatgpt.Client, model string, temperature float32) *ChatGPTLLM {
	return &ChatGPTLLM{client: client, model: model, temperature: temperature}
}

// Chat sends a chat completion request.
func (l *ChatGPTLLM) Chat(ctx context.Context, messages []analysis.LLMMessage) (string, error) {
	req := chatgpt.ChatCompletionRequest{
		Model:       l.model,
		Temperature: l.temperature,
		MaxTokens:   maxNarrativeTokens,
		Messages:    make([]chatgpt.Message, 0, len(messages)),
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, chatgpt.Message{Role: msg.Role, Content: msg.Content})
	}
	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ analysis.LLM = (*ChatGPTLLM)(nil)
