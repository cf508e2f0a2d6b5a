package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

const (
	yahooPricePath    = "$.chart.result[0].meta.regularMarketPrice"
	yahooCurrencyPath = "$.chart.result[0].meta.currency"
)

// YahooProvider prices stocks and currency pairs from the Yahoo Finance chart API.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance price provider.
func NewYahooProvider(httpClient *http.Client) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, baseURL: yahooChartBaseURL}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// Supports returns true for stock and forex sources.
func (p *YahooProvider) Supports(src Source) bool {
	switch src.(type) {
	case StockSource, ForexSource:
		return true
	}
	return false
}

// FetchPrice returns the regular market price for the asset's ticker.
func (p *YahooProvider) FetchPrice(ctx context.Context, asset Asset) (Price, error) {
	var ticker, fallbackCurrency string
	switch src := asset.Source.(type) {
	case StockSource:
		ticker, fallbackCurrency = src.Ticker, "USD"
	case ForexSource:
		ticker, fallbackCurrency = forexTicker(src.Base, src.Quote), strings.ToUpper(src.Quote)
	default:
		return Price{}, fmt.Errorf("unsupported source for %s", asset.Symbol)
	}

	price, currency, err := p.chartPrice(ctx, ticker)
	if err != nil {
		return Price{}, err
	}
	if currency == "" {
		currency = fallbackCurrency
	}
	return Price{Value: price.Value, Currency: currency}, nil
}

// chartPrice fetches a ticker's chart meta and returns its price and currency.
func (p *YahooProvider) chartPrice(ctx context.Context, ticker string) (Price, string, error) {
	u := p.baseURL + "/" + url.PathEscape(ticker) + "?interval=1d&range=1d"
	body, err := getJSON(ctx, p.httpClient, u)
	if err != nil {
		return Price{}, "", fmt.Errorf("%s: %w", ticker, err)
	}

	if desc := lookupString("$.chart.error.description", body); desc != "" {
		return Price{}, "", fmt.Errorf("%s: chart error: %s", ticker, desc)
	}

	price, err := lookupPrice(yahooPricePath, body)
	if err != nil {
		return Price{}, "", fmt.Errorf("%s: %w", ticker, err)
	}
	currency := strings.ToUpper(lookupString(yahooCurrencyPath, body))
	return Price{Value: price, Currency: currency}, currency, nil
}

// forexTicker builds Yahoo's currency pair symbol, e.g. USDKES=X.
func forexTicker(base, quote string) string {
	return strings.ToUpper(base) + strings.ToUpper(quote) + "=X"
}
