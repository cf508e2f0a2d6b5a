package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"pesaprime/internal/models"
	"pesaprime/internal/pagination"
	"pesaprime/internal/testutil"
)

func TestGormLedger_Users(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := NewGormLedger(db)
	ctx := context.Background()

	user := testutil.CreateTestUserWith(t, db, "amina@test.com", "+254700000001")

	got, err := ledger.GetUserByEmail(ctx, "AMINA@test.com")
	testutil.AssertNoError(t, err)
	if got.ID != user.ID {
		t.Errorf("expected %s, got %s", user.ID, got.ID)
	}

	if _, err := ledger.GetUserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	taken, err := ledger.EmailTaken(ctx, "Amina@Test.com")
	testutil.AssertNoError(t, err)
	if !taken {
		t.Error("email should be taken")
	}
	taken, err = ledger.PhoneTaken(ctx, "+254700000002")
	testutil.AssertNoError(t, err)
	if taken {
		t.Error("phone should be free")
	}
}

func TestGormLedger_WalletRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := NewGormLedger(db)
	ctx := context.Background()

	user, _ := testutil.CreateTestUserWithWallet(t, db, "5000")

	err := ledger.Atomic(ctx, func(tx Ledger) error {
		w, err := tx.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		w.Balance = w.Balance.Add(testutil.Dec(t, "2000.25"))
		w.Equity = w.Equity.Add(testutil.Dec(t, "2000.25"))
		return tx.SaveWallet(ctx, w)
	})
	testutil.AssertNoError(t, err)

	w, err := ledger.GetWallet(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, w.Balance, "7000.25", "balance")
	testutil.AssertDecimal(t, w.Equity, "7000.25", "equity")

	if _, err := ledger.GetWallet(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGormLedger_AtomicRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := NewGormLedger(db)
	ctx := context.Background()

	user, _ := testutil.CreateTestUserWithWallet(t, db, "100")
	boom := errors.New("boom")

	err := ledger.Atomic(ctx, func(tx Ledger) error {
		w, err := tx.GetWalletForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		w.Balance = testutil.Dec(t, "0")
		if err := tx.SaveWallet(ctx, w); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, &models.Activity{
			UserID: user.ID, UserPhone: user.PhoneNumber, ActivityType: models.ActivityWithdraw,
			Amount: testutil.Dec(t, "100"), Description: "rolled back", Status: models.ActivityStatusCompleted,
			Timestamp: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	w, _ := ledger.GetWallet(ctx, user.ID)
	testutil.AssertDecimal(t, w.Balance, "100", "balance after rollback")

	_, total, err := ledger.ListActivities(ctx, ActivityQuery{UserID: user.ID, Page: pagination.PageRequest{Page: 1, PageSize: 20}})
	testutil.AssertNoError(t, err)
	if total != 0 {
		t.Errorf("expected no activities after rollback, got %d", total)
	}
}

func TestGormLedger_Investments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := NewGormLedger(db)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	first := testutil.CreateTestInvestment(t, db, user.ID, 5, "2000", "100", time.Hour)
	second := testutil.CreateTestInvestment(t, db, user.ID, 3, "1000", "50", time.Hour)
	testutil.CreateTestInvestment(t, db, other.ID, 5, "2000", "100", time.Hour)

	second.Revalue(testutil.Dec(t, "55"))
	second.Status = models.InvestmentStatusClosed
	now := time.Now()
	second.ClosedAt = &now
	testutil.AssertNoError(t, ledger.SaveInvestments(ctx, second))

	active, err := ledger.ListInvestments(ctx, user.ID, models.InvestmentStatusActive)
	testutil.AssertNoError(t, err)
	if len(active) != 1 || active[0].ID != first.ID {
		t.Fatalf("expected only the first investment to be active, got %+v", active)
	}

	all, err := ledger.ListInvestments(ctx, user.ID, "")
	testutil.AssertNoError(t, err)
	if len(all) != 2 {
		t.Fatalf("expected 2 investments, got %d", len(all))
	}

	reloaded, err := ledger.GetInvestment(ctx, user.ID, second.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, reloaded.CurrentValue, "1100", "current value")
	testutil.AssertDecimal(t, reloaded.ProfitLoss, "100", "profit")
	if reloaded.Status != models.InvestmentStatusClosed || reloaded.ClosedAt == nil {
		t.Errorf("expected closed investment, got %s", reloaded.Status)
	}

	if _, err := ledger.GetInvestment(ctx, other.ID, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("another user's investment should not be visible, got %v", err)
	}
}

func TestGormLedger_ListActivities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ledger := NewGormLedger(db)
	ctx := context.Background()

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		testutil.CreateTestActivity(t, db, user, models.ActivityDeposit, "100", base.Add(time.Duration(i)*time.Minute))
	}
	latest := testutil.CreateTestActivity(t, db, user, models.ActivityWithdraw, "50", base.Add(time.Hour))
	testutil.CreateTestActivity(t, db, other, models.ActivityDeposit, "100", base)

	page, total, err := ledger.ListActivities(ctx, ActivityQuery{UserID: user.ID, Page: pagination.PageRequest{Page: 1, PageSize: 4}})
	testutil.AssertNoError(t, err)
	if total != 6 {
		t.Errorf("expected 6 activities, got %d", total)
	}
	if len(page) != 4 {
		t.Fatalf("expected page of 4, got %d", len(page))
	}
	if page[0].ID != latest.ID {
		t.Errorf("expected newest first, got id %d", page[0].ID)
	}

	deposits, total, err := ledger.ListActivities(ctx, ActivityQuery{
		UserID: user.ID, Type: models.ActivityDeposit, Page: pagination.PageRequest{Page: 2, PageSize: 4},
	})
	testutil.AssertNoError(t, err)
	if total != 5 || len(deposits) != 1 {
		t.Errorf("expected 1 deposit on page 2 of 5, got %d of %d", len(deposits), total)
	}
}
