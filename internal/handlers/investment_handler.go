package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/services"
)

// InvestmentHandler handles investment-related HTTP requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

// BuyRequest represents the payload for buying into an asset.
type BuyRequest struct {
	AssetID     int             `json:"asset_id" binding:"required,min=1" example:"5"`
	Amount      decimal.Decimal `json:"amount" binding:"required" swaggertype:"number" example:"2000"`
	PhoneNumber string          `json:"phone_number" binding:"required" example:"+254712345678"`
}

// Buy opens a new investment funded from the wallet.
// @Summary     Buy an asset
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BuyRequest true "Purchase"
// @Success     201 {object} services.InvestmentResult
// @Failure     400 {object} ErrorResponse "Invalid input, below minimum or insufficient funds"
// @Failure     403 {object} ErrorResponse "Phone number mismatch"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Router      /investments/buy [post]
func (h *InvestmentHandler) Buy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	res, err := h.investmentService.Buy(c.Request.Context(), userID, req.AssetID, req.Amount, req.PhoneNumber)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetMyInvestments returns the active investments, freshly revalued.
// @Summary     List my investments
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Investment
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /investments/my [get]
func (h *InvestmentHandler) GetMyInvestments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invs, err := h.investmentService.ListActive(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

// Close realises a matured investment into the wallet.
// @Summary     Close an investment
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} services.InvestmentResult
// @Failure     400 {object} ErrorResponse "Not active or not matured"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id}/close [post]
func (h *InvestmentHandler) Close(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	res, err := h.investmentService.Close(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
