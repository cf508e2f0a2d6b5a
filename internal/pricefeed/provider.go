package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// Price is a live price in the currency the provider reported it in.
type Price struct {
	Value    decimal.Decimal
	Currency string
}

// Provider fetches a live price for a single catalog asset.
type Provider interface {
	// Name returns the provider's display name (e.g., "Yahoo Finance", "CoinGecko").
	Name() string

	// Supports returns true if this provider can price the given source.
	Supports(src Source) bool

	// FetchPrice returns the latest price for the asset.
	FetchPrice(ctx context.Context, asset Asset) (Price, error)
}

// FetchError records why a live fetch for one asset was not used.
type FetchError struct {
	AssetID  int
	Symbol   string
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("no live price for %s (ID %d): %v", e.Symbol, e.AssetID, e.Err)
	}
	return fmt.Sprintf("%s failed to fetch price for %s (ID %d): %v", e.Provider, e.Symbol, e.AssetID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// getJSON performs a GET and decodes the body into a generic JSON value.
func getJSON(ctx context.Context, client *http.Client, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return body, nil
}

// lookup evaluates a JSONPath expression and unwraps single-element results.
func lookup(path string, body any) (any, error) {
	val, err := jsonpath.Get(path, body)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", path, err)
	}
	// jsonpath returns a list for wildcard and index expressions; keep the first match.
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("no match for %s", path)
		}
		val = list[0]
	}
	return val, nil
}

// lookupPrice evaluates path and requires a strictly positive number.
func lookupPrice(path string, body any) (decimal.Decimal, error) {
	val, err := lookup(path, body)
	if err != nil {
		return decimal.Zero, err
	}
	f, ok := val.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s is not a number: %v", path, val)
	}
	price := decimal.NewFromFloat(f)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price at %s: %s", path, price)
	}
	return price, nil
}

// lookupString evaluates path and returns the string found there, or "".
func lookupString(path string, body any) string {
	val, err := lookup(path, body)
	if err != nil {
		return ""
	}
	s, _ := val.(string)
	return s
}
