package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pesaprime/internal/amount"
	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/lock"
	"pesaprime/internal/logger"
	"pesaprime/internal/models"
	"pesaprime/internal/store"
)

// Transaction ID prefixes.
const (
	depositPrefix  = "DEP"
	withdrawPrefix = "WD"
)

// walletService handles wallet balance changes.
type walletService struct {
	ledger      store.Ledger
	locker      lock.Locker
	investments InvestmentServicer
	activities  ActivityServicer
	settings    Settings
	now         clock
	log         *zap.SugaredLogger
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(
	ledger store.Ledger,
	locker lock.Locker,
	investments InvestmentServicer,
	activities ActivityServicer,
	settings Settings,
) WalletServicer {
	return &walletService{
		ledger:      ledger,
		locker:      locker,
		investments: investments,
		activities:  activities,
		settings:    settings,
		now:         time.Now,
		log:         logger.Named("wallet"),
	}
}

// GetBalance refreshes valuations and returns balance and equity.
func (s *walletService) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	v, err := s.investments.RefreshValuation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Balance:  v.Wallet.Balance,
		Equity:   v.Wallet.Equity,
		Currency: v.Wallet.Currency,
	}, nil
}

// GetPnL delegates to the investment service.
func (s *walletService) GetPnL(ctx context.Context, userID string) (*PnL, error) {
	return s.investments.GetPnL(ctx, userID)
}

// Deposit credits amount to balance and equity.
func (s *walletService) Deposit(ctx context.Context, userID string, amt decimal.Decimal, phone string) (*Receipt, error) {
	return s.move(ctx, userID, amt, phone, models.ActivityDeposit)
}

// Withdraw debits amount from balance and equity. The balance never goes negative.
func (s *walletService) Withdraw(ctx context.Context, userID string, amt decimal.Decimal, phone string) (*Receipt, error) {
	return s.move(ctx, userID, amt, phone, models.ActivityWithdraw)
}

func (s *walletService) move(
	ctx context.Context,
	userID string,
	amt decimal.Decimal,
	phone string,
	kind models.ActivityType,
) (*Receipt, error) {
	// Amounts below the persisted scale round to zero and are rejected.
	amt = amount.Normalize(amt)
	if !amt.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	user, err := loadUser(ctx, s.ledger, userID)
	if err != nil {
		return nil, err
	}
	if !phoneMatches(user, phone) {
		return nil, apperrors.ErrPhoneMismatch
	}

	var receipt Receipt
	err = withWalletLock(ctx, s.locker, s.ledger, userID, func(tx store.Ledger) error {
		wallet, err := loadWallet(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		delta, prefix, desc := amt, depositPrefix, "Deposit of "
		if kind == models.ActivityWithdraw {
			if wallet.Balance.LessThan(amt) {
				return apperrors.ErrInsufficientFunds
			}
			delta, prefix, desc = amt.Neg(), withdrawPrefix, "Withdrawal of "
		}
		wallet.Balance = wallet.Balance.Add(delta)
		wallet.Equity = wallet.Equity.Add(delta)
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		activity, err := s.activities.Record(ctx, tx, user, kind, amt, desc+amount.Format(amt, s.settings.Currency))
		if err != nil {
			return err
		}
		receipt = Receipt{
			NewBalance:    wallet.Balance,
			NewEquity:     wallet.Equity,
			TransactionID: transactionID(prefix, s.now(), activity.ID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("wallet updated",
		"user_id", userID, "type", kind, "amount", amt.String(), "transaction_id", receipt.TransactionID)
	return &receipt, nil
}

// transactionID renders e.g. "DEP20260115093000-42".
func transactionID(prefix string, at time.Time, activityID uint) string {
	return fmt.Sprintf("%s%s-%d", prefix, at.UTC().Format("20060102150405"), activityID)
}
