// Package planner provides reasoning providers and the action planning step.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dokkiitech/LinkDeck-sub000/domain/agent"
)

// Provider defines the interface for reasoning providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Name returns the provider name for logging.
	Name() string
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content,omitempty"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Message Message   `json:"message"`
	Usage   Usage     `json:"usage"`
	Error   *APIError `json:"error,omitempty"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError represents an API error response.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Type + ": " + e.Message + " (" + e.Code + ")"
	}
	return e.Type + ": " + e.Message
}

// ProviderError is a non-200 reply from a provider endpoint.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// sanitizeProviderError extracts the provider's error message without echoing
// the raw body, which may contain request content.
func sanitizeProviderError(provider string, status int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := "request failed"
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = truncate(envelope.Error.Message, 200)
	}
	return &ProviderError{Provider: provider, StatusCode: status, Message: msg}
}

// Complete sends one system preamble and user prompt and returns the reply text.
// An empty system preamble is omitted.
func Complete(ctx context.Context, p Provider, system, prompt string, maxTokens int) (string, error) {
	resp, err := p.Complete(ctx, CompletionRequest{
		System:    system,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.Name(), err)
	}
	if resp.Error != nil {
		return "", resp.Error
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", agent.ErrEmptyResponse
	}
	return resp.Message.Content, nil
}

// systemPrompt returns the request's system text, merging any system-role messages.
func systemPrompt(req CompletionRequest) string {
	parts := make([]string, 0, 1)
	if req.System != "" {
		parts = append(parts, req.System)
	}
	for _, m := range req.Messages {
		if m.Role == "system" && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
