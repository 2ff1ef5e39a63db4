package planner

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted indicates a scripted provider ran out of replies.
var ErrScriptExhausted = errors.New("scripted provider has no replies left")

// ScriptedProvider returns queued replies in order for deterministic runs.
type ScriptedProvider struct {
	replies     []string
	index       int
	onExhausted func(CompletionRequest) (string, error)
	requests    []CompletionRequest
	mu          sync.Mutex
}

// NewScriptedProvider creates a provider that answers with replies in order.
func NewScriptedProvider(replies ...string) *ScriptedProvider {
	return &ScriptedProvider{
		replies: replies,
		onExhausted: func(CompletionRequest) (string, error) {
			return "", ErrScriptExhausted
		},
	}
}

// OnExhausted sets the handler used once every reply was consumed.
func (p *ScriptedProvider) OnExhausted(handler func(CompletionRequest) (string, error)) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onExhausted = handler
	return p
}

// Name returns the provider name.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Complete records the request and returns the next reply.
func (p *ScriptedProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if p.index >= len(p.replies) {
		text, err := p.onExhausted(req)
		if err != nil {
			return CompletionResponse{}, err
		}
		return textResponse(text), nil
	}
	text := p.replies[p.index]
	p.index++
	return textResponse(text), nil
}

// Requests returns a copy of every request received.
func (p *ScriptedProvider) Requests() []CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Remaining returns the number of unconsumed replies.
func (p *ScriptedProvider) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.replies) - p.index
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f.
func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	text, err := f(ctx, req)
	if err != nil {
		return CompletionResponse{}, err
	}
	return textResponse(text), nil
}

// Name returns the provider name.
func (f ProviderFunc) Name() string {
	return "func"
}

func textResponse(text string) CompletionResponse {
	return CompletionResponse{
		Model:   "scripted",
		Message: Message{Role: "assistant", Content: text},
	}
}

var (
	_ Provider = (*ScriptedProvider)(nil)
	_ Provider = ProviderFunc(nil)
)
