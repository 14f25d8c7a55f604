package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
)

// WalletHandler serves balances, history and transfers
type WalletHandler struct {
	ledger domain.LedgerUseCase
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(ledger domain.LedgerUseCase) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

// TransferRequest represents a P2P transfer
type TransferRequest struct {
	ToUserID    int64           `json:"to_user_id" binding:"required,gt=0" example:"8"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Description string          `json:"description" binding:"max=200" example:"thanks"`
}

// FreezeRequest carries the admin's reason
type FreezeRequest struct {
	Reason string `json:"reason" binding:"max=200" example:"chargeback under review"`
}

// GetWallet handles reading the caller's wallet
// @Summary My wallet
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Wallet
// @Failure 404 {object} domain.ErrorResponse
// @Router /wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	wallet, err := h.ledger.GetWallet(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// OpenWallet handles opening the caller's wallet; it is idempotent
// @Summary Open wallet
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Wallet
// @Router /wallet [post]
func (h *WalletHandler) OpenWallet(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	wallet, err := h.ledger.OpenWallet(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// History handles the caller's ledger rows
// @Summary Transaction history
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {array} domain.Transaction
// @Router /wallet/transactions [get]
func (h *WalletHandler) History(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	limit, offset := page(c)
	rows, err := h.ledger.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Transfer handles a P2P transfer from the caller
// @Summary Transfer Perlas
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "Transfer"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} domain.ErrorResponse
// @Failure 402 {object} domain.ErrorResponse
// @Router /wallet/transfer [post]
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	var req TransferRequest
	if !bind(c, &req) {
		return
	}
	txn, err := h.ledger.Transfer(c.Request.Context(), userID, req.ToUserID, req.Amount, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// Freeze handles freezing a wallet
// @Summary Freeze wallet
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param request body FreezeRequest false "Reason"
// @Success 200 {object} domain.Wallet
// @Router /admin/wallets/{userId}/freeze [post]
func (h *WalletHandler) Freeze(c *gin.Context) {
	h.setFrozen(c, true)
}

// Unfreeze handles unfreezing a wallet
// @Summary Unfreeze wallet
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param request body FreezeRequest false "Reason"
// @Success 200 {object} domain.Wallet
// @Router /admin/wallets/{userId}/unfreeze [post]
func (h *WalletHandler) Unfreeze(c *gin.Context) {
	h.setFrozen(c, false)
}

func (h *WalletHandler) setFrozen(c *gin.Context, frozen bool) {
	adminID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	var req FreezeRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	wallet, err := h.ledger.SetFrozen(c.Request.Context(), adminID, userID, frozen, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
