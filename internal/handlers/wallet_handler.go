package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/services"
)

// WalletHandler handles wallet-related requests
type WalletHandler struct {
	walletService services.WalletServicer
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService services.WalletServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// MoneyMovementRequest is the payload for deposits and withdrawals. The phone
// number must match the account's phone.
type MoneyMovementRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required" swaggertype:"number" example:"2000"`
	PhoneNumber string          `json:"phone_number" binding:"required" example:"+254712345678"`
}

// GetBalance returns the wallet balance and equity
// @Summary     Get wallet balance
// @Description Revalues active investments, then returns balance and equity
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Balance
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /wallet/balance [get]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// Deposit credits the wallet
// @Summary     Deposit funds
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MoneyMovementRequest true "Deposit"
// @Success     200 {object} services.Receipt
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     403 {object} ErrorResponse "Phone number mismatch"
// @Router      /wallet/deposit [post]
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.move(c, h.walletService.Deposit)
}

// Withdraw debits the wallet
// @Summary     Withdraw funds
// @Tags        wallet
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MoneyMovementRequest true "Withdrawal"
// @Success     200 {object} services.Receipt
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient funds"
// @Failure     403 {object} ErrorResponse "Phone number mismatch"
// @Router      /wallet/withdraw [post]
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.move(c, h.walletService.Withdraw)
}

type moveFunc func(ctx context.Context, userID string, amount decimal.Decimal, phone string) (*services.Receipt, error)

func (h *WalletHandler) move(c *gin.Context, fn moveFunc) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MoneyMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	receipt, err := fn(c.Request.Context(), userID, req.Amount, req.PhoneNumber)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// GetPnL returns unrealised profit and loss
// @Summary     Get profit and loss
// @Description Aggregate P/L over active investments after a valuation refresh
// @Tags        wallet
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PnL
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /wallet/pnl [get]
func (h *WalletHandler) GetPnL(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pnl, err := h.walletService.GetPnL(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pnl)
}
