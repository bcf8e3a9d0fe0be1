// Package rates provides the USD→LKR exchange rate used at payment time.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var ErrNoRate = errors.New("response carries no LKR rate")

// Provider fetches the current USD→LKR rate.
// Satisfied by *HTTPProvider; narrow interface for testability.
type Provider interface {
	FetchRate(ctx context.Context) (decimal.Decimal, error)
}

// HTTPProvider reads rates from an open.er-api.com style endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for url. A zero timeout means 5s.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{url: url, client: &http.Client{Timeout: timeout}}
}

type ratesResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (p *HTTPProvider) FetchRate(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("rates api error %d: %s", resp.StatusCode, string(body))
	}

	var out ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("decode rates: %w", err)
	}
	lkr, ok := out.Rates["LKR"]
	if !ok || !lkr.IsPositive() {
		return decimal.Zero, ErrNoRate
	}
	return lkr, nil
}

// Converter holds the last known rate. It starts at the fallback and only
// moves when a refresh succeeds.
type Converter struct {
	provider Provider

	mu   sync.RWMutex
	rate decimal.Decimal
}

func NewConverter(p Provider, fallback decimal.Decimal) *Converter {
	return &Converter{provider: p, rate: fallback}
}

// Refresh asks the provider once. Failures are logged and the previous rate
// is kept; the returned value is always usable.
func (c *Converter) Refresh(ctx context.Context) decimal.Decimal {
	rate, err := c.provider.FetchRate(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("rate", c.Rate().String()).Msg("rate refresh failed, keeping previous rate")
		return c.Rate()
	}

	c.mu.Lock()
	c.rate = rate
	c.mu.Unlock()
	return rate
}

func (c *Converter) Rate() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}
