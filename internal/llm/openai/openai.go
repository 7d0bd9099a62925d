package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"recyclebot/internal/domain"
)

// Generator sends chat completions to an OpenAI-compatible endpoint.
type Generator struct {
	api   *goopenai.Client
	model string
}

// Config configures the chat completion client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai chat: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai chat: model is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Generator{api: goopenai.NewClientWithConfig(apiCfg), model: cfg.Model}, nil
}

func (g *Generator) Name() string { return "openai:" + g.model }

// Complete returns the first choice's content.
func (g *Generator) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float32) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("openai chat: messages are required")
	}
	req := goopenai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    toMessages(messages),
		Temperature: temperature,
	}
	// Temperature is omitempty in the request type; a literal zero would be
	// dropped and the server default (1.0) used instead.
	if temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	resp, err := g.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func toMessages(in []domain.ChatMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		role := goopenai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = goopenai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = goopenai.ChatMessageRoleAssistant
		}
		out = append(out, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
