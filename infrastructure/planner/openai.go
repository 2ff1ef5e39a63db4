package planner

import (
	"context"
	"errors"
	"net/http"
)

// OpenAIConfig configures the OpenAI provider. Any OpenAI-compatible
// server works through BaseURL.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // default https://api.openai.com
	Model   string
	Timeout int // seconds, default 120
}

// OpenAIProvider calls a chat completions endpoint.
type OpenAIProvider struct {
	endpoint
	model string
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &OpenAIProvider{
		endpoint: newEndpoint("openai", cfg.BaseURL, "https://api.openai.com", cfg.Timeout, header),
		model:    cfg.Model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage Usage     `json:"usage"`
	Error *APIError `json:"error,omitempty"`
}

// Complete sends req with the merged system prompt as the leading message
// and returns the first choice.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	msgs := conversation(req.Messages)
	if system := systemPrompt(req); system != "" {
		msgs = append([]chatMessage{{Role: "system", Content: system}}, msgs...)
	}

	var out openAIResponse
	err := p.post(ctx, "/v1/chat/completions", openAIRequest{
		Model:       pickModel(req.Model, p.model),
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &out)
	if err != nil {
		return CompletionResponse{}, err
	}
	if out.Error != nil {
		return CompletionResponse{Error: out.Error}, nil
	}
	if len(out.Choices) == 0 {
		return CompletionResponse{}, errors.New("openai: reply has no choices")
	}

	first := out.Choices[0].Message
	return CompletionResponse{
		ID:      out.ID,
		Model:   out.Model,
		Message: Message{Role: first.Role, Content: first.Content},
		Usage:   out.Usage,
	}, nil
}
