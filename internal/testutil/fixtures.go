package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pesaprime/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing the test on bad input.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password, unique email and unique phone.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWith(t, db, fmt.Sprintf("user%d@test.com", n), fmt.Sprintf("+2547%08d", n))
}

// CreateTestUserWith creates a user with the given email and phone.
func CreateTestUserWith(t *testing.T, db *gorm.DB, email, phone string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:        "Test User",
		Email:       email,
		PhoneNumber: phone,
		Password:    string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestWallet creates a KES wallet whose balance and equity both equal balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID, balance string) *models.Wallet {
	t.Helper()

	b := Dec(t, balance)
	wallet := &models.Wallet{
		UserID:   userID,
		Balance:  b,
		Equity:   b,
		Currency: "KES",
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestUserWithWallet creates a user and a wallet holding balance.
func CreateTestUserWithWallet(t *testing.T, db *gorm.DB, balance string) (*models.User, *models.Wallet) {
	t.Helper()
	user := CreateTestUser(t, db)
	return user, CreateTestWallet(t, db, user.ID, balance)
}

// CreateTestInvestment creates an active investment of amount at price,
// maturing after the given duration.
func CreateTestInvestment(t *testing.T, db *gorm.DB, userID string, assetID int, amount, price string, matures time.Duration) *models.Investment {
	t.Helper()

	amt := Dec(t, amount)
	p := Dec(t, price)
	inv := &models.Investment{
		UserID:         userID,
		AssetID:        assetID,
		AssetName:      fmt.Sprintf("Test Asset %d", assetID),
		InvestedAmount: amt,
		CurrentValue:   amt,
		Units:          amt.Div(p),
		EntryPrice:     p,
		CurrentPrice:   p,
		Status:         models.InvestmentStatusActive,
		CompletionTime: time.Now().Add(matures),
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv
}

// CreateTestActivity appends an activity for user.
func CreateTestActivity(t *testing.T, db *gorm.DB, user *models.User, activityType models.ActivityType, amount string, at time.Time) *models.Activity {
	t.Helper()

	a := &models.Activity{
		UserID:       user.ID,
		UserPhone:    user.PhoneNumber,
		ActivityType: activityType,
		Amount:       Dec(t, amount),
		Description:  fmt.Sprintf("test %s %d", activityType, nextID()),
		Status:       models.ActivityStatusCompleted,
		Timestamp:    at,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("failed to create test activity: %v", err)
	}
	return a
}
