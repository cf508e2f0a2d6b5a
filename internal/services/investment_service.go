package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pesaprime/internal/amount"
	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/lock"
	"pesaprime/internal/logger"
	"pesaprime/internal/models"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/store"
	"pesaprime/internal/uuid"
)

// unitScale matches the units column.
const unitScale = 12

// investmentService handles the investment lifecycle and valuation.
type investmentService struct {
	ledger     store.Ledger
	locker     lock.Locker
	quoter     Quoter
	activities ActivityServicer
	settings   Settings
	now        clock
	log        *zap.SugaredLogger
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(
	ledger store.Ledger,
	locker lock.Locker,
	quoter Quoter,
	activities ActivityServicer,
	settings Settings,
) InvestmentServicer {
	return &investmentService{
		ledger:     ledger,
		locker:     locker,
		quoter:     quoter,
		activities: activities,
		settings:   settings,
		now:        time.Now,
		log:        logger.Named("investments"),
	}
}

// withWalletLock runs fn in a transaction while holding the user's wallet lock.
func withWalletLock(ctx context.Context, locker lock.Locker, ledger store.Ledger, userID string, fn func(tx store.Ledger) error) error {
	unlock, err := locker.Lock(ctx, walletLockKey(userID))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer unlock()
	return ledger.Atomic(ctx, fn)
}

// quoteMap fetches quotes for ids and indexes them by asset.
func (s *investmentService) quoteMap(ctx context.Context, ids []int) (map[int]pricefeed.Quote, error) {
	if len(ids) == 0 {
		return map[int]pricefeed.Quote{}, nil
	}
	quotes, err := s.quoter.Quote(ctx, ids...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byID := make(map[int]pricefeed.Quote, len(quotes))
	for _, q := range quotes {
		byID[q.AssetID] = q
	}
	return byID, nil
}

// Buy opens a position in assetID funded from the wallet balance.
func (s *investmentService) Buy(
	ctx context.Context,
	userID string,
	assetID int,
	amt decimal.Decimal,
	phone string,
) (*InvestmentResult, error) {
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

	wallet, err := loadWallet(ctx, s.ledger, userID, false)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(amt) {
		return nil, apperrors.ErrInsufficientFunds
	}

	quotes, err := s.quoteMap(ctx, []int{assetID})
	if err != nil {
		return nil, err
	}
	quote, ok := quotes[assetID]
	if !ok {
		return nil, apperrors.ErrAssetNotFound
	}
	if amt.LessThan(quote.MinInvestment) {
		return nil, apperrors.WithMessage(apperrors.ErrBelowMinimum, fmt.Sprintf(
			"Minimum investment for %s is %s", quote.Name, amount.Format(quote.MinInvestment, s.settings.Currency)))
	}
	if !quote.CurrentPrice.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInternalServer, "no usable price for "+quote.Name)
	}

	units := amt.DivRound(quote.CurrentPrice, unitScale)
	now := s.now()
	inv := &models.Investment{
		UserID:         userID,
		AssetID:        quote.AssetID,
		AssetName:      quote.Name,
		InvestedAmount: amt,
		CurrentValue:   amt,
		Units:          units,
		EntryPrice:     quote.CurrentPrice,
		CurrentPrice:   quote.CurrentPrice,
		ProfitLoss:     decimal.Zero,
		Status:         models.InvestmentStatusActive,
		CompletionTime: now.Add(time.Duration(quote.Duration) * time.Hour),
	}

	var newBalance decimal.Decimal
	err = withWalletLock(ctx, s.locker, s.ledger, userID, func(tx store.Ledger) error {
		wallet, err := loadWallet(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(amt) {
			return apperrors.ErrInsufficientFunds
		}
		wallet.Balance = wallet.Balance.Sub(amt)
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.CreateInvestment(ctx, inv); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		desc := fmt.Sprintf("Investment in %s - %s units", quote.Name, units.StringFixed(4))
		if _, err := s.activities.Record(ctx, tx, user, models.ActivityInvestment, amt, desc); err != nil {
			return err
		}
		newBalance = wallet.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("investment opened",
		"user_id", userID, "investment_id", inv.ID, "asset_id", inv.AssetID, "amount", amt.String())
	return &InvestmentResult{Investment: inv, NewBalance: newBalance}, nil
}

// RefreshValuation marks the user's active investments to a fresh quote and
// recomputes wallet equity as balance plus the value of active positions.
// Quotes are fetched before the wallet lock is taken.
func (s *investmentService) RefreshValuation(ctx context.Context, userID string) (*Valuation, error) {
	active, err := s.ledger.ListInvestments(ctx, userID, models.InvestmentStatusActive)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	seen := make(map[int]bool, len(active))
	var ids []int
	for _, inv := range active {
		if !seen[inv.AssetID] {
			seen[inv.AssetID] = true
			ids = append(ids, inv.AssetID)
		}
	}
	quotes, err := s.quoteMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	var v Valuation
	err = withWalletLock(ctx, s.locker, s.ledger, userID, func(tx store.Ledger) error {
		wallet, err := loadWallet(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		// Re-read under the lock; a close or buy may have landed meanwhile.
		invs, err := tx.ListInvestments(ctx, userID, models.InvestmentStatusActive)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		changed := make([]*models.Investment, 0, len(invs))
		for i := range invs {
			q, ok := quotes[invs[i].AssetID]
			if !ok {
				continue
			}
			invs[i].Revalue(q.CurrentPrice)
			changed = append(changed, &invs[i])
		}
		if err := tx.SaveInvestments(ctx, changed...); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		wallet.Equity = equityOf(wallet.Balance, invs)
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		v = Valuation{Wallet: wallet, Investments: invs}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if v.Investments == nil {
		v.Investments = []models.Investment{}
	}
	return &v, nil
}

func equityOf(balance decimal.Decimal, active []models.Investment) decimal.Decimal {
	equity := balance
	for _, inv := range active {
		equity = equity.Add(inv.CurrentValue)
	}
	return amount.Normalize(equity)
}

// GetPnL refreshes valuations and aggregates unrealised P/L over active investments.
func (s *investmentService) GetPnL(ctx context.Context, userID string) (*PnL, error) {
	v, err := s.RefreshValuation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(v.Investments) == 0 {
		return &PnL{
			ProfitLoss:    decimal.Zero,
			Percentage:    decimal.Zero,
			Trend:         TrendNeutral,
			TotalInvested: decimal.Zero,
			CurrentValue:  decimal.Zero,
		}, nil
	}

	invested, current := decimal.Zero, decimal.Zero
	for _, inv := range v.Investments {
		invested = invested.Add(inv.InvestedAmount)
		current = current.Add(inv.CurrentValue)
	}
	pl := current.Sub(invested)
	trend := TrendUp
	if pl.IsNegative() {
		trend = TrendDown
	}
	return &PnL{
		ProfitLoss:    amount.Normalize(pl),
		Percentage:    amount.Percent(pl, invested, 2),
		Trend:         trend,
		TotalInvested: amount.Normalize(invested),
		CurrentValue:  amount.Normalize(current),
	}, nil
}

// ListActive refreshes valuations and returns the active investments, newest first.
func (s *investmentService) ListActive(ctx context.Context, userID string) ([]models.Investment, error) {
	v, err := s.RefreshValuation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return v.Investments, nil
}

// Close realises a matured investment at a fresh quote and credits its value
// to the wallet balance. Equity is recomputed, so it only moves by whatever
// the fresh quote changed since the last refresh.
func (s *investmentService) Close(ctx context.Context, userID, investmentID string) (*InvestmentResult, error) {
	inv, err := s.getInvestment(ctx, s.ledger, userID, investmentID)
	if err != nil {
		return nil, err
	}
	if err := s.checkClosable(inv); err != nil {
		return nil, err
	}
	user, err := loadUser(ctx, s.ledger, userID)
	if err != nil {
		return nil, err
	}

	// A missing quote leaves the last recorded price in place.
	quotes, err := s.quoteMap(ctx, []int{inv.AssetID})
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	err = withWalletLock(ctx, s.locker, s.ledger, userID, func(tx store.Ledger) error {
		wallet, err := loadWallet(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		inv, err = s.getInvestment(ctx, tx, userID, investmentID)
		if err != nil {
			return err
		}
		if err := s.checkClosable(inv); err != nil {
			return err
		}

		price := inv.CurrentPrice
		if q, ok := quotes[inv.AssetID]; ok {
			price = q.CurrentPrice
		}
		inv.Revalue(price)
		closedAt := s.now().UTC()
		inv.Status = models.InvestmentStatusClosed
		inv.ClosedAt = &closedAt
		if err := tx.SaveInvestments(ctx, inv); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		remaining, err := tx.ListInvestments(ctx, userID, models.InvestmentStatusActive)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		wallet.Balance = wallet.Balance.Add(inv.CurrentValue)
		wallet.Equity = equityOf(wallet.Balance, remaining)
		if err := tx.SaveWallet(ctx, wallet); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		desc := fmt.Sprintf("Payout from %s - %s", inv.AssetName, amount.Format(inv.CurrentValue, s.settings.Currency))
		if _, err := s.activities.Record(ctx, tx, user, models.ActivityPayout, inv.CurrentValue, desc); err != nil {
			return err
		}
		newBalance = wallet.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("investment closed",
		"user_id", userID, "investment_id", inv.ID, "payout", inv.CurrentValue.String())
	return &InvestmentResult{Investment: inv, NewBalance: newBalance}, nil
}

func (s *investmentService) getInvestment(ctx context.Context, ledger store.Ledger, userID, id string) (*models.Investment, error) {
	if !uuid.IsValid(id) {
		return nil, apperrors.ErrInvestmentNotFound
	}
	inv, err := ledger.GetInvestment(ctx, userID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return inv, nil
}

func (s *investmentService) checkClosable(inv *models.Investment) error {
	if !inv.IsActive() {
		return apperrors.ErrInvestmentNotActive
	}
	if s.now().Before(inv.CompletionTime) {
		return apperrors.ErrInvestmentNotMatured
	}
	return nil
}
