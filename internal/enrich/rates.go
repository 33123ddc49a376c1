package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/itinera/internal/cache"
	"github.com/ppiankov/itinera/internal/model"
	"github.com/ppiankov/itinera/internal/util"
	"github.com/ppiankov/itinera/internal/worker"
	"github.com/shopspring/decimal"
)

// RateSource looks up how many units of to one unit of from buys on day
type RateSource interface {
	Rate(ctx context.Context, from, to string, day time.Time) (*model.ConversionRate, error)
}

// ErrRateMissing is returned when the source answered without the requested currency
var ErrRateMissing = errors.New("conversion rate missing from response")

// Frankfurter reads ECB reference rates from a Frankfurter-compatible API
type Frankfurter struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *worker.Limiter
}

// NewFrankfurter creates a Frankfurter client. limiter may be nil.
func NewFrankfurter(rates model.RatesConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter) *Frankfurter {
	timeout := rates.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Frankfurter{
		baseURL:   strings.TrimRight(rates.BaseURL, "/"),
		userAgent: httpCfg.UserAgent,
		client:    util.NewHTTPClient(timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		limiter:   limiter,
	}
}

type frankfurterResponse struct {
	Amount decimal.Decimal            `json:"amount"`
	Base   string                     `json:"base"`
	Date   string                     `json:"date"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// Rate fetches the latest published rate; day is only used by caching layers
func (f *Frankfurter) Rate(ctx context.Context, from, to string, day time.Time) (*model.ConversionRate, error) {
	endpoint := fmt.Sprintf("%s/latest?%s", f.baseURL, url.Values{"from": {from}, "to": {to}}.Encode())

	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out frankfurterResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	r, ok := out.Rates[to]
	if !ok || !r.IsPositive() {
		return nil, fmt.Errorf("%w: %s to %s", ErrRateMissing, from, to)
	}
	// rates are quoted per amount units of base
	if out.Amount.IsPositive() && !out.Amount.Equal(decimal.NewFromInt(1)) {
		r = r.Div(out.Amount)
	}

	asOf, err := time.Parse(time.DateOnly, out.Date)
	if err != nil {
		asOf = day
	}
	return &model.ConversionRate{From: from, To: to, Rate: r, AsOf: asOf}, nil
}

// CachedSource remembers rates per (from, to, day)
type CachedSource struct {
	source RateSource
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachedSource wraps source with c
func NewCachedSource(source RateSource, c cache.Cache, ttl time.Duration) *CachedSource {
	return &CachedSource{source: source, cache: c, ttl: ttl}
}

// Rate returns a cached rate or asks the wrapped source. Failures are not cached.
func (s *CachedSource) Rate(ctx context.Context, from, to string, day time.Time) (*model.ConversionRate, error) {
	key := cache.Key("rates", from, to, day.Format(time.DateOnly))
	if r, ok := cache.GetJSON[model.ConversionRate](s.cache, key); ok {
		return &r, nil
	}

	r, err := s.source.Rate(ctx, from, to, day)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(s.cache, key, r, s.ttl)
	return r, nil
}
