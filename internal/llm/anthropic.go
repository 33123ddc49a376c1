package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/itinera/internal/util"
)

const anthropicDefaultModel = "claude-sonnet-4-5"

// AnthropicProvider implements the Provider interface for Anthropic Claude models.
// PDFs are sent as document blocks, so the model reads them natively.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Anthropic API structures
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &AnthropicProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	req := anthropicRequest{
		Model:     p.model(""),
		MaxTokens: 10,
		Messages: []anthropicMessage{
			{Role: "user", Content: []anthropicContent{{Type: "text", Text: "Hi"}}},
		},
	}

	if _, err := p.makeRequest(ctx, req); err != nil {
		slog.Warn("llm.available.failed", "provider", p.Name(), "error", err)
		return false
	}
	return true
}

// Complete sends the request through the Messages API
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	content := make([]anthropicContent, 0, len(req.Parts))
	for _, part := range req.Parts {
		block, err := anthropicBlock(part)
		if err != nil {
			return nil, err
		}
		content = append(content, block)
	}
	if len(content) == 0 {
		return nil, errors.New("anthropic: empty request")
	}

	apiReq := anthropicRequest{
		Model:       p.model(req.Model),
		MaxTokens:   p.config.maxTokens(req),
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: content}},
		Temperature: 0,
	}

	resp, err := p.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("no content in Anthropic response")
	}

	return &Response{
		Text:       strings.TrimSpace(text.String()),
		Model:      resp.Model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

func (p *AnthropicProvider) model(override string) string {
	switch {
	case override != "":
		return override
	case p.config.Model != "":
		return p.config.Model
	}
	return anthropicDefaultModel
}

func anthropicBlock(part Part) (anthropicContent, error) {
	if part.Document == nil {
		return anthropicContent{Type: "text", Text: part.Text}, nil
	}
	doc := part.Document
	switch {
	case doc.MediaType == "application/pdf":
		return anthropicContent{
			Type:   "document",
			Source: &anthropicSource{Type: "base64", MediaType: doc.MediaType, Data: base64.StdEncoding.EncodeToString(doc.Data)},
		}, nil
	case strings.HasPrefix(doc.MediaType, "image/"):
		return anthropicContent{
			Type:   "image",
			Source: &anthropicSource{Type: "base64", MediaType: doc.MediaType, Data: base64.StdEncoding.EncodeToString(doc.Data)},
		}, nil
	case isTextMedia(doc.MediaType):
		return anthropicContent{Type: "text", Text: string(doc.Data)}, nil
	}
	return anthropicContent{}, fmt.Errorf("anthropic: %s: %w", doc.MediaType, errUnsupportedDocument)
}

var errUnsupportedDocument = errors.New("unsupported document type")

// makeRequest makes an HTTP request to the Anthropic API
func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Type + " - " + apiErr.Error.Message
		}
		return nil, &APIError{Provider: p.Name(), StatusCode: httpResp.StatusCode, Message: msg}
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &resp, nil
}
