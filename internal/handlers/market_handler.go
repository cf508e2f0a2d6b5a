package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/services"
)

// MarketHandler serves the public market view.
type MarketHandler struct {
	quoter services.Quoter
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(quoter services.Quoter) *MarketHandler {
	return &MarketHandler{quoter: quoter}
}

// GetMarket returns a fresh quote for every catalog asset
// @Summary     Market quotes
// @Description Live prices where available, simulated otherwise. Public.
// @Tags        assets
// @Produce     json
// @Success     200 {array} pricefeed.Quote
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/market [get]
func (h *MarketHandler) GetMarket(c *gin.Context) {
	quotes, err := h.quoter.Quote(c.Request.Context())
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusOK, quotes)
}
