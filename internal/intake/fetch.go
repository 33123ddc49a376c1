package intake

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/util"
	"github.com/ppiankov/itinera/internal/worker"
)

const maxFetchAttempts = 3

// fetchSleepFunc waits between attempts; replaced in tests
var fetchSleepFunc = time.Sleep

// Fetcher downloads documents listed by URL in a manifest
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *worker.Limiter // Per-host politeness; nil disables
}

// NewFetcher creates a Fetcher from the HTTP configuration. limiter may be nil.
func NewFetcher(cfg model.HTTPConfig, limiter *worker.Limiter) *Fetcher {
	client := util.NewHTTPClient(cfg.Timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	return &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		limiter:    limiter,
	}
}

// Fetch retrieves one document
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (model.Document, error) {
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
			return model.Document{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return model.Document{}, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/pdf,message/rfc822,text/plain,text/markdown,application/zip;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Document{}, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Document{}, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return model.Document{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return model.Document{}, fmt.Errorf("read body: document larger than %d bytes", f.maxBytes)
	}

	return model.Document{
		Name:      documentName(resp),
		MediaType: resp.Header.Get("Content-Type"),
		Data:      body,
	}, nil
}

// FetchWithRetry wraps Fetch with retry for transient errors (5xx, 429, connection failures).
// Attempts are spaced 1s, 2s apart.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (model.Document, error) {
	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(time.Duration(1<<(attempt-1)) * time.Second)
			if ctx.Err() != nil {
				return model.Document{}, ctx.Err()
			}
		}
		doc, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return model.Document{}, err
		}
	}
	return model.Document{}, lastErr
}

// isRetryableFetchError reports whether a fetch error is worth another attempt
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "fetch: ") {
		return true
	}
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		return strings.HasPrefix(rest, "429") || strings.HasPrefix(rest, "5")
	}
	return false
}

// documentName prefers the Content-Disposition filename, then the last path segment
func documentName(resp *http.Response) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		return path.Base(params["filename"])
	}
	return nameFromURL(resp.Request.URL)
}

func nameFromURL(u *url.URL) string {
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return u.Host
	}
	return path.Base(p)
}
