package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/models"
	"pesaprime/internal/store"
)

// userService handles user-related business logic.
type userService struct {
	ledger     store.Ledger
	activities ActivityServicer
	settings   Settings
	hashCost   int
}

// NewUserService creates a new UserServicer.
func NewUserService(ledger store.Ledger, activities ActivityServicer, settings Settings) UserServicer {
	return &userService{
		ledger:     ledger,
		activities: activities,
		settings:   settings,
		hashCost:   bcrypt.DefaultCost,
	}
}

// Register creates the user, their wallet and the registration entry in one
// transaction. The signup bonus is credited to both balance and equity.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.PhoneNumber)
	if email == "" || in.Password == "" || phone == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email, phone number and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		PhoneNumber: phone,
		Password:    string(hashedPassword),
	}

	err = s.ledger.Atomic(ctx, func(tx store.Ledger) error {
		taken, err := tx.EmailTaken(ctx, email)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if taken {
			return apperrors.ErrDuplicateEmail
		}
		if taken, err = tx.PhoneTaken(ctx, phone); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if taken {
			return apperrors.ErrDuplicatePhone
		}

		if err := tx.CreateUser(ctx, user); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		wallet := &models.Wallet{
			UserID:   user.ID,
			Balance:  s.settings.SignupBonus,
			Equity:   s.settings.SignupBonus,
			Currency: s.settings.Currency,
		}
		if err := tx.CreateWallet(ctx, wallet); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		_, err = s.activities.Record(ctx, tx, user, models.ActivityRegistration,
			s.settings.SignupBonus, "User registered successfully")
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user whose email and password match.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.ledger.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return loadUser(ctx, s.ledger, id)
}

func loadUser(ctx context.Context, ledger store.Ledger, id string) (*models.User, error) {
	user, err := ledger.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

func loadWallet(ctx context.Context, ledger store.Ledger, userID string, forUpdate bool) (*models.Wallet, error) {
	get := ledger.GetWallet
	if forUpdate {
		get = ledger.GetWalletForUpdate
	}
	wallet, err := get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return wallet, nil
}

// phoneMatches is the per-request authorization check on money movement.
func phoneMatches(user *models.User, phone string) bool {
	return strings.TrimSpace(phone) == user.PhoneNumber
}

func walletLockKey(userID string) string {
	return "wallet:" + userID
}
