// Package store is the persistence layer for users, wallets, investments and
// the activity log.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pesaprime/internal/models"
	"pesaprime/internal/pagination"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ActivityQuery filters the activity log.
type ActivityQuery struct {
	UserID string
	Type   models.ActivityType
	Page   pagination.PageRequest
}

// Ledger is the repository used by the services. Every method honours ctx.
// Inside Atomic, the Ledger passed to fn runs on one database transaction.
type Ledger interface {
	Atomic(ctx context.Context, fn func(tx Ledger) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	PhoneTaken(ctx context.Context, phone string) (bool, error)

	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	GetWalletForUpdate(ctx context.Context, userID string) (*models.Wallet, error)
	SaveWallet(ctx context.Context, wallet *models.Wallet) error

	CreateInvestment(ctx context.Context, inv *models.Investment) error
	GetInvestment(ctx context.Context, userID, id string) (*models.Investment, error)
	ListInvestments(ctx context.Context, userID string, status models.InvestmentStatus) ([]models.Investment, error)
	SaveInvestments(ctx context.Context, invs ...*models.Investment) error

	AppendActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, q ActivityQuery) ([]models.Activity, int64, error)
}

// GormLedger implements Ledger on GORM.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger creates a Ledger backed by db.
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Atomic runs fn in a transaction; any error rolls it back.
func (l *GormLedger) Atomic(ctx context.Context, fn func(tx Ledger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormLedger{db: tx})
	})
}

func (l *GormLedger) CreateUser(ctx context.Context, user *models.User) error {
	return l.db.WithContext(ctx).Create(user).Error
}

func (l *GormLedger) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (l *GormLedger) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (l *GormLedger) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error
	return count > 0, err
}

func (l *GormLedger) PhoneTaken(ctx context.Context, phone string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.User{}).Where("phone_number = ?", phone).Count(&count).Error
	return count > 0, err
}

func (l *GormLedger) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return l.db.WithContext(ctx).Create(wallet).Error
}

func (l *GormLedger) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, notFound(err)
	}
	return &wallet, nil
}

// GetWalletForUpdate reads the wallet with a row lock. SQLite has no row
// locks and serialises writers at the database level instead.
func (l *GormLedger) GetWalletForUpdate(ctx context.Context, userID string) (*models.Wallet, error) {
	q := l.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var wallet models.Wallet
	if err := q.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, notFound(err)
	}
	return &wallet, nil
}

func (l *GormLedger) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	return l.db.WithContext(ctx).Model(wallet).Updates(map[string]interface{}{
		"balance": wallet.Balance,
		"equity":  wallet.Equity,
	}).Error
}

func (l *GormLedger) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	return l.db.WithContext(ctx).Create(inv).Error
}

func (l *GormLedger) GetInvestment(ctx context.Context, userID, id string) (*models.Investment, error) {
	var inv models.Investment
	if err := l.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&inv).Error; err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// ListInvestments returns the user's investments, newest first. An empty
// status matches every status.
func (l *GormLedger) ListInvestments(ctx context.Context, userID string, status models.InvestmentStatus) ([]models.Investment, error) {
	q := l.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var invs []models.Investment
	if err := q.Order("created_at DESC").Order("id DESC").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (l *GormLedger) SaveInvestments(ctx context.Context, invs ...*models.Investment) error {
	db := l.db.WithContext(ctx)
	for _, inv := range invs {
		if err := db.Model(inv).Select(
			"current_value", "current_price", "profit_loss", "profit_loss_percentage", "status", "closed_at",
		).Updates(inv).Error; err != nil {
			return err
		}
	}
	return nil
}

func (l *GormLedger) AppendActivity(ctx context.Context, activity *models.Activity) error {
	return l.db.WithContext(ctx).Create(activity).Error
}

// ListActivities returns one page of matching activities, newest first, and
// the total number of matches.
func (l *GormLedger) ListActivities(ctx context.Context, q ActivityQuery) ([]models.Activity, int64, error) {
	base := l.db.WithContext(ctx).Model(&models.Activity{}).Where("user_id = ?", q.UserID)
	if q.Type != "" {
		base = base.Where("activity_type = ?", q.Type)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []models.Activity
	err := base.Scopes(pagination.Paginate(q.Page)).
		Order("timestamp DESC").Order("id DESC").
		Find(&activities).Error
	if err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}
