package models

import "github.com/shopspring/decimal"

// Wallet is the single cash wallet owned by a user.
// Balance is spendable cash; Equity is Balance plus the current value of
// the user's active investments as of the last valuation refresh.
type Wallet struct {
	Base
	UserID   string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance  decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"balance"`
	Equity   decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"equity"`
	Currency string          `gorm:"size:3;not null;default:KES" json:"currency"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
