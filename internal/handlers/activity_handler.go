package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/models"
	"pesaprime/internal/pagination"
	"pesaprime/internal/services"
)

// ActivityHandler serves the activity log.
type ActivityHandler struct {
	activityService services.ActivityServicer
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService services.ActivityServicer) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// ActivityListQuery holds the filters and paging for the activity listing.
type ActivityListQuery struct {
	pagination.PageRequest
	Type string `form:"type" binding:"omitempty,activity_type"`
}

// GetMyActivities returns the 20 most recent activities.
// @Summary     Recent activities
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Activity
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /activities/my [get]
func (h *ActivityHandler) GetMyActivities(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	activities, err := h.activityService.ListRecent(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// ListActivities returns a filtered, paginated activity listing.
// @Summary     List activities
// @Tags        activities
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Activity type" Enums(registration, deposit, withdraw, investment, payout)
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size (max 100)"
// @Success     200 {object} pagination.PageResponse[models.Activity]
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Router      /activities [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ActivityListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	page, err := h.activityService.List(c.Request.Context(), userID,
		services.ActivityFilter{Type: models.ActivityType(q.Type)}, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
