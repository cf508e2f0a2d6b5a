package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pesaprime/internal/models"
	"pesaprime/internal/pagination"
	"pesaprime/internal/pricefeed"
	"pesaprime/internal/store"
)

// Quoter supplies fresh market quotes. *pricefeed.Feed implements it.
type Quoter interface {
	Quote(ctx context.Context, assetIDs ...int) ([]pricefeed.Quote, error)
}

// Settings carries wallet-wide parameters shared by the services.
type Settings struct {
	Currency    string
	SignupBonus decimal.Decimal
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Password    string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Balance is the wallet summary returned after a valuation refresh.
type Balance struct {
	Balance  decimal.Decimal `json:"balance"`
	Equity   decimal.Decimal `json:"equity"`
	Currency string          `json:"currency"`
}

// Receipt is the outcome of a deposit or withdrawal.
type Receipt struct {
	NewBalance    decimal.Decimal `json:"new_balance"`
	NewEquity     decimal.Decimal `json:"new_equity"`
	TransactionID string          `json:"transaction_id"`
}

// PnL summarises unrealised profit and loss over active investments.
type PnL struct {
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	Percentage    decimal.Decimal `json:"percentage"`
	Trend         string          `json:"trend"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	CurrentValue  decimal.Decimal `json:"current_value"`
}

// PnL trends.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// WalletServicer defines the contract for wallet balance changes.
type WalletServicer interface {
	GetBalance(ctx context.Context, userID string) (*Balance, error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, phone string) (*Receipt, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal, phone string) (*Receipt, error)
	GetPnL(ctx context.Context, userID string) (*PnL, error)
}

// Valuation is the state of a wallet right after its investments were marked to market.
type Valuation struct {
	Wallet      *models.Wallet
	Investments []models.Investment
}

// InvestmentResult pairs an investment with the wallet balance after the change.
type InvestmentResult struct {
	Investment *models.Investment `json:"investment"`
	NewBalance decimal.Decimal    `json:"new_balance"`
}

// InvestmentServicer defines the contract for the investment lifecycle.
type InvestmentServicer interface {
	Buy(ctx context.Context, userID string, assetID int, amount decimal.Decimal, phone string) (*InvestmentResult, error)
	RefreshValuation(ctx context.Context, userID string) (*Valuation, error)
	GetPnL(ctx context.Context, userID string) (*PnL, error)
	ListActive(ctx context.Context, userID string) ([]models.Investment, error)
	Close(ctx context.Context, userID, investmentID string) (*InvestmentResult, error)
}

// ActivityFilter narrows an activity listing. An empty Type matches all types.
type ActivityFilter struct {
	Type models.ActivityType
}

// RecentActivityLimit is how many entries the "my activities" view returns.
const RecentActivityLimit = 20

// ActivityServicer defines the contract for the activity log.
type ActivityServicer interface {
	Record(ctx context.Context, tx store.Ledger, user *models.User, activityType models.ActivityType, amount decimal.Decimal, description string) (*models.Activity, error)
	ListRecent(ctx context.Context, userID string) ([]models.Activity, error)
	List(ctx context.Context, userID string, filter ActivityFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Activity], error)
}

// clock is overridden in tests.
type clock func() time.Time
