package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Provider() string { return "gemini" }

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Complete maps system messages onto the system instruction and earlier turns onto chat history;
// the final user message is sent as the new turn.
func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	name := req.Model
	if name == "" {
		name = c.model
	}
	model := c.client.GenerativeModel(name)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	var system []genai.Part
	var turns []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, genai.Text(m.Content))
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("gemini request has no user message")
	}

	chat := model.StartChat()
	chat.History = turns[:len(turns)-1]
	resp, err := chat.SendMessage(ctx, turns[len(turns)-1].Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
