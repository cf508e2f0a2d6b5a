package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3/simple/price"

// CoinGeckoProvider prices crypto assets in USD from the CoinGecko simple-price API.
type CoinGeckoProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewCoinGeckoProvider creates a new CoinGecko price provider.
func NewCoinGeckoProvider(httpClient *http.Client) *CoinGeckoProvider {
	return &CoinGeckoProvider{httpClient: httpClient, baseURL: coinGeckoBaseURL}
}

// Name returns the provider's display name.
func (p *CoinGeckoProvider) Name() string { return "CoinGecko" }

// Supports returns true for crypto sources only.
func (p *CoinGeckoProvider) Supports(src Source) bool {
	_, ok := src.(CryptoSource)
	return ok
}

// FetchPrice returns the USD price of the asset's coin.
func (p *CoinGeckoProvider) FetchPrice(ctx context.Context, asset Asset) (Price, error) {
	src, ok := asset.Source.(CryptoSource)
	if !ok {
		return Price{}, fmt.Errorf("unsupported source for %s", asset.Symbol)
	}

	q := url.Values{}
	q.Set("ids", src.CoinID)
	q.Set("vs_currencies", "usd")

	body, err := getJSON(ctx, p.httpClient, p.baseURL+"?"+q.Encode())
	if err != nil {
		return Price{}, err
	}

	price, err := lookupPrice(fmt.Sprintf("$[%q].usd", src.CoinID), body)
	if err != nil {
		return Price{}, err
	}
	return Price{Value: price, Currency: "USD"}, nil
}
