package models

import (
	"time"

	"pesaprime/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Money fields go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Wallet{},
		&Investment{},
		&Activity{},
	}
}
