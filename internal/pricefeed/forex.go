package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRateTTL bounds how long a fetched exchange rate is reused.
	DefaultRateTTL = 10 * time.Minute
	// DefaultRateTimeout bounds one shared rate fetch.
	DefaultRateTimeout = 3 * time.Second
)

type cachedRate struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// ForexConverter converts prices into a target currency using Yahoo Finance
// currency pairs (e.g. USDKES=X). Rates are cached for the TTL and concurrent
// lookups for the same currency share one request.
type ForexConverter struct {
	yahoo          *YahooProvider
	targetCurrency string
	ttl            time.Duration
	fetchTimeout   time.Duration
	now            func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	rates map[string]cachedRate
}

// NewForexConverter creates a converter into targetCurrency.
func NewForexConverter(httpClient *http.Client, targetCurrency string) *ForexConverter {
	return &ForexConverter{
		yahoo:          NewYahooProvider(httpClient),
		targetCurrency: strings.ToUpper(targetCurrency),
		ttl:            DefaultRateTTL,
		fetchTimeout:   DefaultRateTimeout,
		now:            time.Now,
		rates:          make(map[string]cachedRate),
	}
}

// TargetCurrency returns the target currency code (e.g. "KES").
func (f *ForexConverter) TargetCurrency() string {
	return f.targetCurrency
}

// NeedsConversion returns true if the given currency differs from the target.
func (f *ForexConverter) NeedsConversion(fromCurrency string) bool {
	return strings.ToUpper(fromCurrency) != f.targetCurrency
}

// GetRate returns how many target units one unit of fromCurrency buys.
func (f *ForexConverter) GetRate(ctx context.Context, fromCurrency string) (decimal.Decimal, error) {
	from := strings.ToUpper(fromCurrency)
	if from == f.targetCurrency {
		return decimal.NewFromInt(1), nil
	}

	f.mu.RLock()
	cached, ok := f.rates[from]
	f.mu.RUnlock()
	if ok && f.now().Sub(cached.fetchedAt) < f.ttl {
		return cached.rate, nil
	}

	// The shared fetch runs detached from any one caller, so a caller whose
	// deadline fires only abandons its own wait.
	ch := f.group.DoChan(from, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.fetchTimeout)
		defer cancel()
		price, _, err := f.yahoo.chartPrice(fetchCtx, forexTicker(from, f.targetCurrency))
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.rates[from] = cachedRate{rate: price.Value, fetchedAt: f.now()}
		f.mu.Unlock()
		return price.Value, nil
	})

	select {
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("forex rate %s->%s: %w", from, f.targetCurrency, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return decimal.Zero, fmt.Errorf("forex rate %s->%s: %w", from, f.targetCurrency, res.Err)
		}
		return res.Val.(decimal.Decimal), nil
	}
}

// Convert converts a price into the target currency.
func (f *ForexConverter) Convert(ctx context.Context, p Price) (decimal.Decimal, error) {
	if p.Currency == "" || !f.NeedsConversion(p.Currency) {
		return p.Value, nil
	}
	rate, err := f.GetRate(ctx, p.Currency)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Value.Mul(rate), nil
}
