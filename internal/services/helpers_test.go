package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pesaprime/internal/lock"
	"pesaprime/internal/logger"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/store"
	"pesaprime/internal/testutil"
)

func init() {
	logger.Init("test")
}

var testSettings = Settings{Currency: "KES", SignupBonus: decimal.Zero}

// fakeQuoter prices assets from a table. Unknown assets are omitted from the
// result, the way the feed skips ids missing from the catalog.
type fakeQuoter struct {
	mu     sync.Mutex
	prices map[int]decimal.Decimal
	calls  int
	err    error
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{prices: map[int]decimal.Decimal{}}
}

func (f *fakeQuoter) set(assetID int, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[assetID] = decimal.RequireFromString(price)
}

func (f *fakeQuoter) Quote(_ context.Context, ids ...int) ([]pricefeed.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var quotes []pricefeed.Quote
	for _, id := range ids {
		p, ok := f.prices[id]
		if !ok {
			continue
		}
		quotes = append(quotes, pricefeed.Quote{
			AssetID:       id,
			Name:          fmt.Sprintf("Asset %d", id),
			CurrentPrice:  p,
			MinInvestment: decimal.NewFromInt(500),
			Duration:      24,
		})
	}
	return quotes, nil
}

// fixedClock returns a settable clock.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testServices wires every service over one SQLite database.
type testServices struct {
	db          *gorm.DB
	quoter      *fakeQuoter
	clock       *fixedClock
	activities  ActivityServicer
	users       UserServicer
	investments InvestmentServicer
	wallets     WalletServicer
}

func newTestServices(t *testing.T, settings Settings) *testServices {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	ledger := store.NewGormLedger(db)
	locker := lock.NewLocalLocker()
	quoter := newFakeQuoter()
	clk := &fixedClock{t: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)}

	activities := NewActivityService(ledger)
	activities.(*activityService).now = clk.now
	users := NewUserService(ledger, activities, settings)
	users.(*userService).hashCost = bcrypt.MinCost
	investments := NewInvestmentService(ledger, locker, quoter, activities, settings)
	investments.(*investmentService).now = clk.now
	wallets := NewWalletService(ledger, locker, investments, activities, settings)
	wallets.(*walletService).now = clk.now

	return &testServices{
		db:          db,
		quoter:      quoter,
		clock:       clk,
		activities:  activities,
		users:       users,
		investments: investments,
		wallets:     wallets,
	}
}

var errQuoteDown = errors.New("quote service down")
