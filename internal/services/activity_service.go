package services

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/models"
	"pesaprime/internal/pagination"
	"pesaprime/internal/store"
)

// activityService handles the append-only activity log.
type activityService struct {
	ledger store.Ledger
	now    clock
}

// NewActivityService creates a new ActivityServicer.
func NewActivityService(ledger store.Ledger) ActivityServicer {
	return &activityService{ledger: ledger, now: time.Now}
}

// Record appends an entry through tx so it commits or rolls back with the
// caller's balance change.
func (s *activityService) Record(
	ctx context.Context,
	tx store.Ledger,
	user *models.User,
	activityType models.ActivityType,
	amount decimal.Decimal,
	description string,
) (*models.Activity, error) {
	activity := &models.Activity{
		UserID:       user.ID,
		UserPhone:    user.PhoneNumber,
		ActivityType: activityType,
		Amount:       amount,
		Description:  description,
		Status:       models.ActivityStatusCompleted,
		Timestamp:    s.now().UTC(),
	}
	if err := tx.AppendActivity(ctx, activity); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return activity, nil
}

// ListRecent returns the user's latest activities, newest first.
func (s *activityService) ListRecent(ctx context.Context, userID string) ([]models.Activity, error) {
	activities, _, err := s.ledger.ListActivities(ctx, store.ActivityQuery{
		UserID: userID,
		Page:   pagination.PageRequest{Page: 1, PageSize: RecentActivityLimit},
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, nil
}

// List returns one page of the user's activities, optionally filtered by type.
func (s *activityService) List(
	ctx context.Context,
	userID string,
	filter ActivityFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Activity], error) {
	if filter.Type != "" && !slices.Contains(models.ActivityTypes, filter.Type) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown activity type: "+string(filter.Type))
	}
	page.Defaults()

	activities, total, err := s.ledger.ListActivities(ctx, store.ActivityQuery{
		UserID: userID,
		Type:   filter.Type,
		Page:   page,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(activities, page.Page, page.PageSize, total)
	return &resp, nil
}
