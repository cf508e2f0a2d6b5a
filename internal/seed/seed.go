// Package seed loads a demo account through the public services, so the
// seeded data obeys the same ledger rules as real traffic.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/logger"
	"pesaprime/internal/models"
	"pesaprime/internal/services"
)

// Position is an asset to buy for the demo user.
type Position struct {
	AssetID int
	Amount  decimal.Decimal
}

// Options describes the account to seed.
type Options struct {
	Name      string
	Email     string
	Phone     string
	Password  string
	Deposit   decimal.Decimal
	Positions []Position
}

// DemoOptions returns the stock demo account: a KSh 30,000 deposit and
// positions in Bitcoin, Ethereum and Apple.
func DemoOptions() Options {
	return Options{
		Name:     "Demo User",
		Email:    "demo@pesaprime.com",
		Phone:    "+254712345678",
		Password: "demo-password",
		Deposit:  decimal.NewFromInt(30000),
		Positions: []Position{
			{AssetID: 5, Amount: decimal.NewFromInt(8000)},
			{AssetID: 6, Amount: decimal.NewFromInt(6000)},
			{AssetID: 3, Amount: decimal.NewFromInt(4000)},
		},
	}
}

// Result summarises the seeded account.
type Result struct {
	User        *models.User
	Created     bool
	Balance     *services.Balance
	Investments []models.Investment
}

// Run registers the account, funds it and opens the positions. An account
// that already exists is left untouched and only reported.
func Run(ctx context.Context, b *services.Bundle, opts Options) (*Result, error) {
	log := logger.Named("seed")

	user, err := b.Users.Register(ctx, services.RegisterInput{
		Name:        opts.Name,
		Email:       opts.Email,
		PhoneNumber: opts.Phone,
		Password:    opts.Password,
	})
	created := err == nil
	switch {
	case created:
		log.Infow("Demo user created", "email", user.Email)
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		user, err = b.Users.Authenticate(ctx, opts.Email, opts.Password)
		if err != nil {
			return nil, fmt.Errorf("demo user exists with a different password: %w", err)
		}
		log.Infow("Demo user already exists", "email", user.Email)
	default:
		return nil, fmt.Errorf("register demo user: %w", err)
	}

	if created {
		if opts.Deposit.IsPositive() {
			if _, err := b.Wallets.Deposit(ctx, user.ID, opts.Deposit, opts.Phone); err != nil {
				return nil, fmt.Errorf("deposit: %w", err)
			}
		}
		for _, p := range opts.Positions {
			if _, err := b.Investments.Buy(ctx, user.ID, p.AssetID, p.Amount, opts.Phone); err != nil {
				return nil, fmt.Errorf("buy asset %d: %w", p.AssetID, err)
			}
		}
	}

	balance, err := b.Wallets.GetBalance(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	investments, err := b.Investments.ListActive(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("investments: %w", err)
	}

	return &Result{User: user, Created: created, Balance: balance, Investments: investments}, nil
}
