// Package llm talks to the chat-completion providers that write challenges and grade answers.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/pblagro/config"
	"github.com/rs/zerolog/log"
)

var ErrUnavailable = errors.New("llm provider is not configured")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string // empty means the client's default model
	Messages    []Message
	Temperature float64
	MaxTokens   int // zero leaves the provider default
}

type Client interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Provider() string
	Close() error
}

// NewClient builds the client for cfg.LLM.Provider. A missing API key yields a client
// whose calls fail with ErrUnavailable, so the API still boots without credentials.
func NewClient(cfg *config.Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.LLM.GeminiApiKey == "" {
			log.Warn().Msg("GEMINI_API_KEY is not set. Challenge generation and evaluation will be unavailable.")
			return unavailable{provider: "gemini"}, nil
		}
		client, err = NewGeminiClient(context.Background(), cfg.LLM.GeminiApiKey, cfg.LLM.GeminiModel)
	case "openai":
		if cfg.LLM.OpenAIApiKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is not set. Challenge generation and evaluation will be unavailable.")
			return unavailable{provider: "openai"}, nil
		}
		client = NewOpenAIClient(cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAIApiKey, cfg.LLM.OpenAIModel, cfg.LLM.Timeout)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTracing(client), nil
}

type unavailable struct {
	provider string
}

func (u unavailable) Complete(context.Context, ChatRequest) (string, error) {
	return "", ErrUnavailable
}

func (u unavailable) Provider() string { return u.provider }

func (u unavailable) Close() error { return nil }
