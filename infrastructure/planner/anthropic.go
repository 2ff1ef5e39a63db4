package planner

import (
	"context"
	"net/http"
	"strings"
)

// anthropicMaxTokens is sent when the request leaves MaxTokens unset; the
// Messages API requires it.
const anthropicMaxTokens = 2000

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string // default https://api.anthropic.com
	Model   string
	Timeout int // seconds, default 120
}

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	endpoint
	model string
}

func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", "2023-06-01")
	return &AnthropicProvider{
		endpoint: newEndpoint("anthropic", cfg.BaseURL, "https://api.anthropic.com", cfg.Timeout, header),
		model:    cfg.Model,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *APIError `json:"error,omitempty"`
}

// Complete sends req as a single Messages call. Text blocks of the reply
// are concatenated.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	in := anthropicRequest{
		Model:       pickModel(req.Model, p.model),
		System:      systemPrompt(req),
		Messages:    conversation(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if in.MaxTokens == 0 {
		in.MaxTokens = anthropicMaxTokens
	}

	var out anthropicResponse
	if err := p.post(ctx, "/v1/messages", in, &out); err != nil {
		return CompletionResponse{}, err
	}
	if out.Error != nil {
		return CompletionResponse{Error: out.Error}, nil
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return CompletionResponse{
		ID:      out.ID,
		Model:   out.Model,
		Message: Message{Role: out.Role, Content: text.String()},
		Usage: Usage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		},
	}, nil
}
