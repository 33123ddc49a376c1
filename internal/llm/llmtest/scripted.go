// Package llmtest provides a scripted llm.Provider for tests
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/itinera/internal/llm"
)

// Reply is the scripted answer for one request tag
type Reply struct {
	Text  string
	Err   error
	Delay time.Duration
	// Func computes the answer from the request when set
	Func func(req llm.Request) (string, error)
}

// Provider answers requests by tag. Tags without a script fail.
type Provider struct {
	mu      sync.Mutex
	replies map[string]Reply
	calls   []llm.Request
}

// New creates an empty scripted provider
func New() *Provider {
	return &Provider{replies: make(map[string]Reply)}
}

// On scripts the reply for a tag
func (p *Provider) On(tag string, r Reply) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies[tag] = r
	return p
}

// Reply scripts a text answer for a tag
func (p *Provider) Reply(tag, text string) *Provider {
	return p.On(tag, Reply{Text: text})
}

// Fail scripts an error for a tag
func (p *Provider) Fail(tag string, err error) *Provider {
	return p.On(tag, Reply{Err: err})
}

// Name returns the provider name
func (p *Provider) Name() string { return "scripted" }

// IsAvailable always reports true
func (p *Provider) IsAvailable(context.Context) bool { return true }

// Complete returns the scripted reply for req.Tag, honouring Delay and ctx
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	r, ok := p.replies[req.Tag]
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("llmtest: no reply scripted for tag %q", req.Tag)
	}

	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	text, err := r.Text, r.Err
	if r.Func != nil {
		text, err = r.Func(req)
	}
	if err != nil {
		return nil, err
	}
	return &llm.Response{Text: text, Model: "scripted"}, nil
}

// Calls returns a copy of every request received
func (p *Provider) Calls() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.calls...)
}

// CallCount returns how many requests carried tag
func (p *Provider) CallCount(tag string) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Tag == tag {
			n++
		}
	}
	return n
}

// Prompt joins the text parts of a request, for assertions on what was sent
func Prompt(req llm.Request) string {
	var b strings.Builder
	for _, part := range req.Parts {
		if part.Document == nil {
			b.WriteString(part.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
