package pricefeed

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AssetClass groups catalog assets by market.
type AssetClass string

const (
	ClassCrypto    AssetClass = "crypto"
	ClassForex     AssetClass = "forex"
	ClassCommodity AssetClass = "commodity"
	ClassStock     AssetClass = "stock"
	ClassFutures   AssetClass = "futures"
)

// Volatility is the half-width of the uniform band used for simulated prices.
func (c AssetClass) Volatility() decimal.Decimal {
	switch c {
	case ClassForex, ClassCommodity:
		return decimal.RequireFromString("0.01")
	case ClassStock:
		return decimal.RequireFromString("0.015")
	case ClassCrypto, ClassFutures:
		return decimal.RequireFromString("0.02")
	}
	return decimal.RequireFromString("0.02")
}

// Source says where a live price for an asset comes from. The concrete
// types below are the only implementations.
type Source interface {
	sourceKind() string
}

// CryptoSource is priced by CoinGecko coin id, in USD.
type CryptoSource struct {
	CoinID string
}

// ForexSource is a currency pair, priced as Base in units of Quote.
type ForexSource struct {
	Base  string
	Quote string
}

// StockSource is an exchange ticker, priced in its listing currency.
type StockSource struct {
	Ticker string
}

// StaticSource has no live feed and is always simulated.
type StaticSource struct{}

func (CryptoSource) sourceKind() string { return "crypto" }
func (ForexSource) sourceKind() string  { return "forex" }
func (StockSource) sourceKind() string  { return "stock" }
func (StaticSource) sourceKind() string { return "static" }

// IncomeRange bounds the simulated hourly income in KES.
type IncomeRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Asset is a static catalog entry. Prices and amounts are in KES.
type Asset struct {
	ID            int
	Name          string
	Symbol        string
	Class         AssetClass
	BasePrice     decimal.Decimal
	MinInvestment decimal.Decimal
	DurationHours int
	Income        IncomeRange
	Source        Source
}

// Catalog is an immutable set of assets keyed by id.
type Catalog struct {
	assets []Asset
	byID   map[int]Asset
}

// NewCatalog builds a catalog; later duplicates of an id replace earlier ones.
func NewCatalog(assets ...Asset) *Catalog {
	c := &Catalog{byID: make(map[int]Asset, len(assets))}
	for _, a := range assets {
		c.byID[a.ID] = a
	}
	for _, a := range c.byID {
		c.assets = append(c.assets, a)
	}
	sort.Slice(c.assets, func(i, j int) bool { return c.assets[i].ID < c.assets[j].ID })
	return c
}

// Lookup returns the asset with the given id.
func (c *Catalog) Lookup(id int) (Asset, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Assets returns every asset ordered by id.
func (c *Catalog) Assets() []Asset {
	out := make([]Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func incomeRange(lo, hi string) IncomeRange {
	return IncomeRange{Min: d(lo), Max: d(hi)}
}

// DefaultCatalog is the marketplace offered to users.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Asset{ID: 1, Name: "US Dollar / Kenyan Shilling", Symbol: "USDKES", Class: ClassForex,
			BasePrice: d("129.20"), MinInvestment: d("500"), DurationHours: 12,
			Income: incomeRange("5", "15"), Source: ForexSource{Base: "USD", Quote: "KES"}},
		Asset{ID: 2, Name: "Euro / Kenyan Shilling", Symbol: "EURKES", Class: ClassForex,
			BasePrice: d("140.60"), MinInvestment: d("500"), DurationHours: 12,
			Income: incomeRange("5", "15"), Source: ForexSource{Base: "EUR", Quote: "KES"}},
		Asset{ID: 3, Name: "Apple Inc", Symbol: "AAPL", Class: ClassStock,
			BasePrice: d("23966.60"), MinInvestment: d("1000"), DurationHours: 24,
			Income: incomeRange("20", "60"), Source: StockSource{Ticker: "AAPL"}},
		Asset{ID: 4, Name: "Tesla Inc", Symbol: "TSLA", Class: ClassStock,
			BasePrice: d("31750.90"), MinInvestment: d("1000"), DurationHours: 24,
			Income: incomeRange("25", "70"), Source: StockSource{Ticker: "TSLA"}},
		Asset{ID: 5, Name: "Bitcoin", Symbol: "BTC", Class: ClassCrypto,
			BasePrice: d("5587900"), MinInvestment: d("2000"), DurationHours: 48,
			Income: incomeRange("60", "150"), Source: CryptoSource{CoinID: "bitcoin"}},
		Asset{ID: 6, Name: "Ethereum", Symbol: "ETH", Class: ClassCrypto,
			BasePrice: d("297160"), MinInvestment: d("1500"), DurationHours: 48,
			Income: incomeRange("40", "110"), Source: CryptoSource{CoinID: "ethereum"}},
		Asset{ID: 7, Name: "Gold", Symbol: "XAU", Class: ClassCommodity,
			BasePrice: d("262922"), MinInvestment: d("1000"), DurationHours: 72,
			Income: incomeRange("15", "45"), Source: StaticSource{}},
		Asset{ID: 8, Name: "Crude Oil Futures", Symbol: "CL", Class: ClassFutures,
			BasePrice: d("10129.28"), MinInvestment: d("800"), DurationHours: 36,
			Income: incomeRange("10", "35"), Source: StaticSource{}},
	)
}
