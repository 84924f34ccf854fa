package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"mabletask/companion/config"
	"mabletask/companion/models"
)

// Message is one turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Responder produces the assistant's reply to a conversation.
type Responder interface {
	Respond(ctx context.Context, messages []Message) (string, error)
}

// OpenAIResponder calls the chat completions API of OpenAI or any
// compatible server.
type OpenAIResponder struct {
	client openai.Client
	model  string
}

func NewOpenAIResponder(cfg config.OpenAIConfig) (*OpenAIResponder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIResponder{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

func (r *OpenAIResponder) Respond(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(r.model),
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   openai.Int(800),
		Temperature: openai.Float(0.7),
	}
	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
