package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType categorises an activity log entry.
type ActivityType string

const (
	ActivityRegistration ActivityType = "registration"
	ActivityDeposit      ActivityType = "deposit"
	ActivityWithdraw     ActivityType = "withdraw"
	ActivityInvestment   ActivityType = "investment"
	ActivityPayout       ActivityType = "payout"
)

// ActivityTypes lists every recognised activity type.
var ActivityTypes = []ActivityType{
	ActivityRegistration,
	ActivityDeposit,
	ActivityWithdraw,
	ActivityInvestment,
	ActivityPayout,
}

// ActivityStatusCompleted is the only status written today.
const ActivityStatusCompleted = "completed"

// Activity is an append-only record of something that happened to a user's
// money. IDs are auto-incremented so ordering by ID matches insertion order.
type Activity struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	UserPhone    string          `gorm:"not null" json:"user_phone"`
	ActivityType ActivityType    `gorm:"size:32;not null;index" json:"activity_type"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"amount"`
	Description  string          `gorm:"not null" json:"description"`
	Status       string          `gorm:"size:16;not null;default:completed" json:"status"`
	Timestamp    time.Time       `gorm:"not null;index" json:"timestamp"`
}
