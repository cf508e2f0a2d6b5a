package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/models"
	"pesaprime/internal/testutil"
)

var txIDPattern = regexp.MustCompile(`^(DEP|WD)\d{14}-\d+$`)

func TestDeposit(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")

		r, err := s.wallets.Deposit(context.Background(), user.ID, decimal.NewFromInt(2000), user.PhoneNumber)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, r.NewBalance, "7000", "new balance")
		testutil.AssertDecimal(t, r.NewEquity, "7000", "new equity")
		if !txIDPattern.MatchString(r.TransactionID) || r.TransactionID[:17] != "DEP20260115093000" {
			t.Errorf("unexpected transaction id %q", r.TransactionID)
		}

		var activity models.Activity
		s.db.Where("user_id = ?", user.ID).First(&activity)
		if activity.ActivityType != models.ActivityDeposit {
			t.Errorf("expected deposit activity, got %s", activity.ActivityType)
		}
		if activity.Description != "Deposit of KSh 2,000.00" {
			t.Errorf("unexpected description %q", activity.Description)
		}
	})

	t.Run("phone_mismatch", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")

		_, err := s.wallets.Deposit(context.Background(), user.ID, decimal.NewFromInt(2000), "+254799999999")
		testutil.AssertAppError(t, err, "PHONE_MISMATCH")
		assertBalance(t, s, user.ID, "5000")
	})

	t.Run("non_positive", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")

		_, err := s.wallets.Deposit(context.Background(), user.ID, decimal.NewFromInt(-1), user.PhoneNumber)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("sub_scale", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")

		_, err := s.wallets.Deposit(context.Background(), user.ID, decimal.RequireFromString("0.000000001"), user.PhoneNumber)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
		assertBalance(t, s, user.ID, "5000")
		assertNoActivities(t, s, user.ID)
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")

		r, err := s.wallets.Withdraw(context.Background(), user.ID, decimal.RequireFromString("1250.50"), user.PhoneNumber)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, r.NewBalance, "3749.5", "new balance")
		testutil.AssertDecimal(t, r.NewEquity, "3749.5", "new equity")
		if r.TransactionID[:2] != "WD" {
			t.Errorf("expected WD prefix, got %q", r.TransactionID)
		}
	})

	t.Run("exact_balance", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "300")

		r, err := s.wallets.Withdraw(context.Background(), user.ID, decimal.NewFromInt(300), user.PhoneNumber)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, r.NewBalance, "0", "new balance")
	})

	t.Run("sub_scale", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")

		_, err := s.wallets.Withdraw(context.Background(), user.ID, decimal.RequireFromString("0.000000001"), user.PhoneNumber)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
		assertBalance(t, s, user.ID, "5000")
		assertNoActivities(t, s, user.ID)
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "300")

		_, err := s.wallets.Withdraw(context.Background(), user.ID, decimal.NewFromInt(301), user.PhoneNumber)
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")
		assertBalance(t, s, user.ID, "300")

		var count int64
		s.db.Model(&models.Activity{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no activity on failed withdrawal, got %d", count)
		}
	})

	t.Run("concurrent_never_overdraws", func(t *testing.T) {
		s := newTestServices(t, testSettings)
		user, _ := testutil.CreateTestUserWithWallet(t, s.db, "500")

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			rejected  int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.wallets.Withdraw(context.Background(), user.ID, decimal.NewFromInt(100), user.PhoneNumber)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, apperrors.ErrInsufficientFunds):
					rejected++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if succeeded != 5 || rejected != 5 {
			t.Errorf("expected 5 successes and 5 rejections, got %d and %d", succeeded, rejected)
		}
		assertBalance(t, s, user.ID, "0")
	})
}

func TestGetBalance(t *testing.T) {
	s := newTestServices(t, testSettings)
	user, _ := testutil.CreateTestUserWithWallet(t, s.db, "6000")
	testutil.CreateTestInvestment(t, s.db, user.ID, 5, "1000", "100", 0)
	s.quoter.set(5, "105")

	b, err := s.wallets.GetBalance(context.Background(), user.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, b.Balance, "6000", "balance")
	testutil.AssertDecimal(t, b.Equity, "7050", "equity")
	if b.Currency != "KES" {
		t.Errorf("expected KES, got %s", b.Currency)
	}
}

// TestWalletLifecycle walks a deposit, a buy and a price move end to end.
func TestWalletLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, testSettings)
	user, _ := testutil.CreateTestUserWithWallet(t, s.db, "5000")
	s.quoter.set(5, "100")

	_, err := s.wallets.Deposit(ctx, user.ID, decimal.NewFromInt(2000), user.PhoneNumber)
	testutil.AssertNoError(t, err)

	_, err = s.investments.Buy(ctx, user.ID, 5, decimal.NewFromInt(1000), user.PhoneNumber)
	testutil.AssertNoError(t, err)

	b, err := s.wallets.GetBalance(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, b.Balance, "6000", "balance after buy")
	testutil.AssertDecimal(t, b.Equity, "7000", "equity after buy")

	s.quoter.set(5, "110")

	b, err = s.wallets.GetBalance(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, b.Equity, "7100", "equity after price move")

	pnl, err := s.wallets.GetPnL(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, pnl.ProfitLoss, "100", "profit/loss")
	testutil.AssertDecimal(t, pnl.Percentage, "10", "percentage")
	if pnl.Trend != TrendUp {
		t.Errorf("expected up trend, got %s", pnl.Trend)
	}

	recent, err := s.activities.ListRecent(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if len(recent) != 2 || recent[0].ActivityType != models.ActivityInvestment {
		t.Errorf("expected investment then deposit, got %+v", recent)
	}
}

func assertBalance(t *testing.T, s *testServices, userID, want string) {
	t.Helper()
	var wallet models.Wallet
	if err := s.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	testutil.AssertDecimal(t, wallet.Balance, want, "stored balance")
}

func assertNoActivities(t *testing.T, s *testServices, userID string) {
	t.Helper()
	var count int64
	s.db.Model(&models.Activity{}).Where("user_id = ?", userID).Count(&count)
	if count != 0 {
		t.Errorf("expected no activities, got %d", count)
	}
}
