package llm

import (
	"context"
	"strings"

	"github.com/ppiankov/itinera/internal/model"
)

// Provider defines the interface for text-understanding providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one request and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Part is one piece of user content: plain text or an attached document
type Part struct {
	Text     string
	Document *Attachment
}

// Attachment is raw document bytes sent to providers that read documents natively
type Attachment struct {
	Name      string
	MediaType string
	Data      []byte
}

// TextPart wraps plain text
func TextPart(s string) Part {
	return Part{Text: s}
}

// DocumentPart wraps a binary document such as a PDF
func DocumentPart(name, mediaType string, data []byte) Part {
	return Part{Document: &Attachment{Name: name, MediaType: mediaType, Data: data}}
}

// Request contains the input for one completion
type Request struct {
	// Tag identifies the call site in logs, e.g. "normalize" or "extract.flight"
	Tag string

	// System is the instruction block
	System string

	// Parts is the user content in order
	Parts []Part

	// JSON asks providers that support it for a JSON object response
	JSON bool

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Response contains the provider output
type Response struct {
	// Text is the generated text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "anthropic",
		Timeout:   120,
		MaxTokens: 4096,
	}
}

func (c Config) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4096
}

// textOnly flattens parts for providers without document input.
// PDFs and other binary documents are rejected.
func textOnly(parts []Part) (string, error) {
	var b strings.Builder
	for _, p := range parts {
		if p.Document != nil {
			if !isTextMedia(p.Document.MediaType) {
				return "", model.ErrUnsupportedPart
			}
			b.WriteString(string(p.Document.Data))
		} else {
			b.WriteString(p.Text)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func isTextMedia(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/")
}

// Completer is what pipeline stages call: a Provider or a Client
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
