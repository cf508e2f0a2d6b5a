// Package pricefeed produces market quotes for the fixed asset catalog.
// Live prices are best-effort; any asset whose fetch fails, times out or
// panics is priced by a bounded random walk around its base price instead.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pesaprime/internal/logger"
)

// Quote sources.
const (
	SourceLive      = "live"
	SourceSimulated = "simulated"
)

// Trend values.
const (
	TrendUp   = "up"
	TrendDown = "down"
)

var (
	errLiveDisabled = errors.New("live prices disabled")
	errNoProvider   = errors.New("no provider supports this asset")
)

// Quote is a point-in-time market view of one asset. Money is in KES.
type Quote struct {
	AssetID          int             `json:"asset_id"`
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	Type             AssetClass      `json:"type"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	ChangePercentage decimal.Decimal `json:"change_percentage"`
	MovingAverage    decimal.Decimal `json:"moving_average"`
	Trend            string          `json:"trend"`
	HourlyIncome     decimal.Decimal `json:"hourly_income"`
	MinInvestment    decimal.Decimal `json:"min_investment"`
	Duration         int             `json:"duration"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	ROIPercentage    decimal.Decimal `json:"roi_percentage"`
	Source           string          `json:"source"`
	FallbackReason   string          `json:"fallback_reason,omitempty"`
	QuotedAt         time.Time       `json:"quoted_at"`
}

// Random is the subset of *rand.Rand the feed draws from.
type Random interface {
	Float64() float64
}

// Config tunes a Feed.
type Config struct {
	// Live enables provider fetches; when false every quote is simulated.
	Live bool
	// Timeout bounds each asset's live fetch, conversion included.
	Timeout time.Duration
	// Rand overrides the random source; nil seeds one from the clock.
	Rand Random
	// Now overrides the clock.
	Now func() time.Time
}

// Feed quotes catalog assets.
type Feed struct {
	catalog   *Catalog
	providers []Provider
	converter *ForexConverter
	live      bool
	timeout   time.Duration
	now       func() time.Time
	log       *zap.SugaredLogger

	randMu sync.Mutex
	rand   Random
}

// NewFeed creates a feed over catalog. converter may be nil when every
// provider reports prices in KES.
func NewFeed(catalog *Catalog, cfg Config, converter *ForexConverter, providers ...Provider) *Feed {
	f := &Feed{
		catalog:   catalog,
		providers: providers,
		converter: converter,
		live:      cfg.Live,
		timeout:   cfg.Timeout,
		now:       cfg.Now,
		rand:      cfg.Rand,
		log:       logger.Named("pricefeed"),
	}
	if f.timeout <= 0 {
		f.timeout = 3 * time.Second
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.rand == nil {
		f.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return f
}

// NewDefaultFeed wires the default catalog to CoinGecko and Yahoo Finance,
// converting to the given currency.
func NewDefaultFeed(cfg Config, currency string) *Feed {
	client := &http.Client{Timeout: cfg.Timeout + time.Second}
	forex := NewForexConverter(client, currency)
	if cfg.Timeout > 0 {
		forex.fetchTimeout = cfg.Timeout
	}
	return NewFeed(DefaultCatalog(), cfg,
		forex,
		NewCoinGeckoProvider(client),
		NewYahooProvider(client),
	)
}

// Catalog returns the catalog the feed quotes.
func (f *Feed) Catalog() *Catalog {
	return f.catalog
}

// Quote returns fresh quotes for the given asset ids, or for the whole
// catalog when none are given. Unknown ids are skipped. Assets are priced
// concurrently and a failure for one never affects another.
func (f *Feed) Quote(ctx context.Context, assetIDs ...int) ([]Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var assets []Asset
	if len(assetIDs) == 0 {
		assets = f.catalog.Assets()
	} else {
		seen := make(map[int]bool, len(assetIDs))
		for _, id := range assetIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if a, ok := f.catalog.Lookup(id); ok {
				assets = append(assets, a)
			}
		}
	}

	quotes := make([]Quote, len(assets))
	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset Asset) {
			defer wg.Done()
			quotes[i] = f.quoteOne(ctx, asset)
		}(i, asset)
	}
	wg.Wait()

	return quotes, nil
}

// quoteOne prices a single asset, falling back to simulation on any failure.
func (f *Feed) quoteOne(ctx context.Context, asset Asset) Quote {
	q := Quote{Source: SourceLive}

	price, err := f.livePrice(ctx, asset)
	if err != nil {
		if errors.Is(err, errLiveDisabled) {
			f.log.Debugw("simulating price", "asset", asset.Symbol)
		} else {
			f.log.Warnw("live price unavailable, simulating", "asset", asset.Symbol, "error", err)
		}
		price = f.simulatedPrice(asset)
		q.Source = SourceSimulated
		q.FallbackReason = err.Error()
	}

	f.fill(&q, asset, price)
	return q
}

// livePrice fetches and converts a price under the per-asset timeout.
// Panics inside providers are recovered and reported as errors.
func (f *Feed) livePrice(ctx context.Context, asset Asset) (price decimal.Decimal, err error) {
	if !f.live {
		return decimal.Zero, &FetchError{AssetID: asset.ID, Symbol: asset.Symbol, Err: errLiveDisabled}
	}

	var provider Provider
	for _, p := range f.providers {
		if p.Supports(asset.Source) {
			provider = p
			break
		}
	}
	if provider == nil {
		return decimal.Zero, &FetchError{AssetID: asset.ID, Symbol: asset.Symbol, Err: errNoProvider}
	}

	defer func() {
		if r := recover(); r != nil {
			price = decimal.Zero
			err = &FetchError{AssetID: asset.ID, Symbol: asset.Symbol, Provider: provider.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := provider.FetchPrice(ctx, asset)
	if err != nil {
		return decimal.Zero, &FetchError{AssetID: asset.ID, Symbol: asset.Symbol, Provider: provider.Name(), Err: err}
	}

	converted := raw.Value
	if f.converter != nil {
		converted, err = f.converter.Convert(ctx, raw)
		if err != nil {
			return decimal.Zero, &FetchError{AssetID: asset.ID, Symbol: asset.Symbol, Provider: provider.Name(), Err: err}
		}
	}
	if !converted.IsPositive() {
		return decimal.Zero, &FetchError{AssetID: asset.ID, Symbol: asset.Symbol, Provider: provider.Name(), Err: fmt.Errorf("non-positive price %s", converted)}
	}
	return converted.Round(4), nil
}

// simulatedPrice draws base * (1 + U(-v, v)).
func (f *Feed) simulatedPrice(asset Asset) decimal.Decimal {
	v := asset.Class.Volatility()
	shift := f.uniform(v.Neg(), v)
	return asset.BasePrice.Mul(decimal.NewFromInt(1).Add(shift)).Round(4)
}

// fill derives the display fields from the chosen price.
func (f *Feed) fill(q *Quote, asset Asset, price decimal.Decimal) {
	q.AssetID = asset.ID
	q.Name = asset.Name
	q.Symbol = asset.Symbol
	q.Type = asset.Class
	q.CurrentPrice = price
	q.MinInvestment = asset.MinInvestment
	q.Duration = asset.DurationHours
	q.QuotedAt = f.now().UTC()

	q.ChangePercentage = price.Sub(asset.BasePrice).Div(asset.BasePrice).Mul(decimal.NewFromInt(100)).Round(2)
	q.MovingAverage = price.Mul(f.uniform(decimal.RequireFromString("0.98"), decimal.RequireFromString("1.02"))).Round(4)
	if q.ChangePercentage.IsNegative() {
		q.Trend = TrendDown
	} else {
		q.Trend = TrendUp
	}

	q.HourlyIncome = f.uniform(asset.Income.Min, asset.Income.Max).Round(2)
	q.TotalIncome = q.HourlyIncome.Mul(decimal.NewFromInt(int64(asset.DurationHours))).Round(2)
	if asset.MinInvestment.IsPositive() {
		q.ROIPercentage = q.TotalIncome.Div(asset.MinInvestment).Mul(decimal.NewFromInt(100)).Round(2)
	}
}

// uniform draws from [lo, hi).
func (f *Feed) uniform(lo, hi decimal.Decimal) decimal.Decimal {
	f.randMu.Lock()
	r := f.rand.Float64()
	f.randMu.Unlock()
	return lo.Add(hi.Sub(lo).Mul(decimal.NewFromFloat(r)))
}
