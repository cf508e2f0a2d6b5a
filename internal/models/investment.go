package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an investment.
type InvestmentStatus string

const (
	InvestmentStatusActive InvestmentStatus = "active"
	InvestmentStatusClosed InvestmentStatus = "closed"
)

// Investment is a position opened by buying a catalog asset with wallet cash.
type Investment struct {
	Base
	UserID               string           `gorm:"type:uuid;not null;index:idx_investments_user_status" json:"user_id"`
	AssetID              int              `gorm:"not null" json:"asset_id"`
	AssetName            string           `gorm:"not null" json:"asset_name"`
	InvestedAmount       decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"invested_amount"`
	CurrentValue         decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"current_value"`
	Units                decimal.Decimal  `gorm:"type:numeric(28,12);not null" json:"units"`
	EntryPrice           decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"entry_price"`
	CurrentPrice         decimal.Decimal  `gorm:"type:numeric(20,8);not null" json:"current_price"`
	ProfitLoss           decimal.Decimal  `gorm:"type:numeric(20,8);not null;default:0" json:"profit_loss"`
	ProfitLossPercentage decimal.Decimal  `gorm:"type:numeric(12,4);not null;default:0" json:"profit_loss_percentage"`
	Status               InvestmentStatus `gorm:"size:16;not null;default:active;index:idx_investments_user_status" json:"status"`
	CompletionTime       time.Time        `gorm:"not null" json:"completion_time"`
	ClosedAt             *time.Time       `json:"closed_at,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// IsActive reports whether the investment is still open.
func (i *Investment) IsActive() bool {
	return i.Status == InvestmentStatusActive
}

// Revalue marks the position to price and recomputes value and P/L.
// Value is units × price, taken as invested × price / entry so that the
// rounding applied to units never moves an unchanged quote off cost.
// Stored units × current_price can therefore differ from current_value by up
// to half a unit in the 12th decimal place of units, times the price.
func (i *Investment) Revalue(price decimal.Decimal) {
	i.CurrentPrice = price
	if i.EntryPrice.IsPositive() {
		i.CurrentValue = i.InvestedAmount.Mul(price).Div(i.EntryPrice).Round(8)
	} else {
		i.CurrentValue = i.Units.Mul(price).Round(8)
	}
	i.ProfitLoss = i.CurrentValue.Sub(i.InvestedAmount)
	if i.InvestedAmount.IsZero() {
		i.ProfitLossPercentage = decimal.Zero
		return
	}
	i.ProfitLossPercentage = i.ProfitLoss.Div(i.InvestedAmount).Mul(decimal.NewFromInt(100)).Round(4)
}
