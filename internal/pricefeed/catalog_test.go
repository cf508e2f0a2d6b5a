package pricefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assets := c.Assets()
	require.Len(t, assets, 8)

	for i, a := range assets {
		assert.Equal(t, i+1, a.ID, "assets should be ordered by id")
		assert.True(t, a.BasePrice.IsPositive(), "%s base price", a.Symbol)
		assert.True(t, a.MinInvestment.IsPositive(), "%s minimum", a.Symbol)
		assert.True(t, a.Income.Min.LessThan(a.Income.Max), "%s income range", a.Symbol)
		assert.NotNil(t, a.Source, "%s source", a.Symbol)
	}

	btc, ok := c.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, CryptoSource{CoinID: "bitcoin"}, btc.Source)

	_, ok = c.Lookup(42)
	assert.False(t, ok)
}

func TestVolatilityByClass(t *testing.T) {
	assert.Equal(t, "0.01", ClassForex.Volatility().String())
	assert.Equal(t, "0.01", ClassCommodity.Volatility().String())
	assert.Equal(t, "0.015", ClassStock.Volatility().String())
	assert.Equal(t, "0.02", ClassCrypto.Volatility().String())
	assert.Equal(t, "0.02", ClassFutures.Volatility().String())
}

func TestNewCatalogLastDuplicateWins(t *testing.T) {
	c := NewCatalog(Asset{ID: 1, Name: "old"}, Asset{ID: 1, Name: "new"})
	require.Len(t, c.Assets(), 1)
	a, _ := c.Lookup(1)
	assert.Equal(t, "new", a.Name)
}
