package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout applies when a provider is configured with Timeout 0.
const defaultTimeout = 120 * time.Second

// endpoint posts JSON to one provider API.
type endpoint struct {
	provider string
	baseURL  string
	header   http.Header
	client   *http.Client
}

func newEndpoint(provider, baseURL, fallbackURL string, timeoutSecs int, header http.Header) endpoint {
	if baseURL == "" {
		baseURL = fallbackURL
	}
	timeout := defaultTimeout
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}
	header.Set("Content-Type", "application/json")
	return endpoint{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		header:   header,
		client:   &http.Client{Timeout: timeout},
	}
}

// post sends in to path and decodes a 200 reply into out. Any other status
// becomes a *ProviderError.
func (e endpoint) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", e.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", e.provider, err)
	}
	req.Header = e.header.Clone()

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", e.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", e.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return sanitizeProviderError(e.provider, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", e.provider, err)
	}
	return nil
}

// pickModel prefers the per-request model.
func pickModel(requested, configured string) string {
	if requested != "" {
		return requested
	}
	return configured
}

// chatMessage is the role/content pair both HTTP APIs use.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// conversation drops system-role messages, which are folded into the
// system prompt instead.
func conversation(msgs []Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != "system" {
			out = append(out, chatMessage{Role: m.Role, Content: m.Content})
		}
	}
	return out
}
