package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
)

// FundingHandler serves deposit and withdrawal requests
type FundingHandler struct {
	deposits    domain.DepositUseCase
	withdrawals domain.WithdrawalUseCase
}

// NewFundingHandler creates a new funding handler
func NewFundingHandler(deposits domain.DepositUseCase, withdrawals domain.WithdrawalUseCase) *FundingHandler {
	return &FundingHandler{
		deposits:    deposits,
		withdrawals: withdrawals,
	}
}

// CreateDepositRequest represents a deposit claim
type CreateDepositRequest struct {
	Amount        decimal.Decimal      `json:"amount" swaggertype:"string" example:"100"`
	PaymentMethod domain.PaymentMethod `json:"payment_method" binding:"required" example:"YAPE"`
	BankAccount   string               `json:"bank_account" binding:"max=64" example:"191-0000000-0-00"`
}

// CreateWithdrawalRequest represents a withdrawal request
type CreateWithdrawalRequest struct {
	PearlsAmount decimal.Decimal `json:"pearls_amount" swaggertype:"string" example:"50"`
	domain.BankDetails
}

// ReviewRequest carries the admin's decision details
type ReviewRequest struct {
	BankReference string `json:"bank_reference" binding:"max=64" example:"OP-778812"`
	Notes         string `json:"notes" binding:"max=200" example:"matched statement line 14"`
}

// CreateDeposit handles a new deposit claim
// @Summary Request deposit
// @Tags deposits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateDepositRequest true "Deposit"
// @Success 201 {object} domain.DepositRequest
// @Failure 400 {object} domain.ErrorResponse
// @Router /deposits [post]
func (h *FundingHandler) CreateDeposit(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	var req CreateDepositRequest
	if !bind(c, &req) {
		return
	}
	dep, err := h.deposits.Create(c.Request.Context(), userID, req.Amount, req.PaymentMethod, req.BankAccount)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dep)
}

// ListDeposits handles the caller's deposits
// @Summary My deposits
// @Tags deposits
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.DepositView
// @Router /deposits [get]
func (h *FundingHandler) ListDeposits(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	limit, offset := page(c)
	views, err := h.deposits.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetDeposit handles one deposit with its derived expiry flag
// @Summary Get deposit
// @Tags deposits
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deposit ID"
// @Success 200 {object} domain.DepositView
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /deposits/{id} [get]
func (h *FundingHandler) GetDeposit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.deposits.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ownerOrAdmin(c, view.UserID) {
		return
	}
	c.JSON(http.StatusOK, view)
}

// CancelDeposit handles the owner withdrawing a pending claim
// @Summary Cancel deposit
// @Tags deposits
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deposit ID"
// @Success 200 {object} domain.DepositRequest
// @Failure 409 {object} domain.ErrorResponse
// @Router /deposits/{id}/cancel [post]
func (h *FundingHandler) CancelDeposit(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dep, err := h.deposits.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dep)
}

// CreateWithdrawal handles a new withdrawal; funds are reserved immediately
// @Summary Request withdrawal
// @Tags withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWithdrawalRequest true "Withdrawal"
// @Success 201 {object} domain.WithdrawalRequest
// @Failure 400 {object} domain.ErrorResponse
// @Failure 402 {object} domain.ErrorResponse
// @Router /withdrawals [post]
func (h *FundingHandler) CreateWithdrawal(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	var req CreateWithdrawalRequest
	if !bind(c, &req) {
		return
	}
	wd, err := h.withdrawals.Create(c.Request.Context(), userID, req.PearlsAmount, req.BankDetails)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, wd)
}

// ListWithdrawals handles the caller's withdrawals
// @Summary My withdrawals
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WithdrawalRequest
// @Router /withdrawals [get]
func (h *FundingHandler) ListWithdrawals(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	limit, offset := page(c)
	rows, err := h.withdrawals.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GetWithdrawal handles one withdrawal
// @Summary Get withdrawal
// @Tags withdrawals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Withdrawal ID"
// @Success 200 {object} domain.WithdrawalRequest
// @Failure 403 {object} domain.ErrorResponse
// @Router /withdrawals/{id} [get]
func (h *FundingHandler) GetWithdrawal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	wd, err := h.withdrawals.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !ownerOrAdmin(c, wd.UserID) {
		return
	}
	c.JSON(http.StatusOK, wd)
}

// PendingDeposits handles the admin deposit queue
// @Summary Pending deposits
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.DepositView
// @Router /admin/deposits/pending [get]
func (h *FundingHandler) PendingDeposits(c *gin.Context) {
	limit, offset := page(c)
	views, err := h.deposits.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// ApproveDeposit handles crediting a deposit
// @Summary Approve deposit
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deposit ID"
// @Param request body ReviewRequest false "Bank reference and notes"
// @Success 200 {object} domain.DepositRequest
// @Failure 409 {object} domain.ErrorResponse
// @Failure 410 {object} domain.ErrorResponse
// @Router /admin/deposits/{id}/approve [post]
func (h *FundingHandler) ApproveDeposit(c *gin.Context) {
	adminID, id, req, ok := h.review(c)
	if !ok {
		return
	}
	dep, err := h.deposits.Approve(c.Request.Context(), id, adminID, req.BankReference, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dep)
}

// RejectDeposit handles rejecting a deposit
// @Summary Reject deposit
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Deposit ID"
// @Param request body ReviewRequest false "Reason in notes"
// @Success 200 {object} domain.DepositRequest
// @Router /admin/deposits/{id}/reject [post]
func (h *FundingHandler) RejectDeposit(c *gin.Context) {
	adminID, id, req, ok := h.review(c)
	if !ok {
		return
	}
	dep, err := h.deposits.Reject(c.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dep)
}

// PendingWithdrawals handles the admin withdrawal queue
// @Summary Pending withdrawals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WithdrawalRequest
// @Router /admin/withdrawals/pending [get]
func (h *FundingHandler) PendingWithdrawals(c *gin.Context) {
	limit, offset := page(c)
	rows, err := h.withdrawals.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ApproveWithdrawal handles approving a withdrawal
// @Summary Approve withdrawal
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Withdrawal ID"
// @Param request body ReviewRequest false "Notes"
// @Success 200 {object} domain.WithdrawalRequest
// @Router /admin/withdrawals/{id}/approve [post]
func (h *FundingHandler) ApproveWithdrawal(c *gin.Context) {
	adminID, id, req, ok := h.review(c)
	if !ok {
		return
	}
	wd, err := h.withdrawals.Approve(c.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wd)
}

// RejectWithdrawal handles rejecting a withdrawal and refunding the reserve
// @Summary Reject withdrawal
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Withdrawal ID"
// @Param request body ReviewRequest false "Reason in notes"
// @Success 200 {object} domain.WithdrawalRequest
// @Router /admin/withdrawals/{id}/reject [post]
func (h *FundingHandler) RejectWithdrawal(c *gin.Context) {
	adminID, id, req, ok := h.review(c)
	if !ok {
		return
	}
	wd, err := h.withdrawals.Reject(c.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wd)
}

// CompleteWithdrawal handles recording the bank payout
// @Summary Complete withdrawal
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Withdrawal ID"
// @Param request body ReviewRequest true "Bank reference"
// @Success 200 {object} domain.WithdrawalRequest
// @Router /admin/withdrawals/{id}/complete [post]
func (h *FundingHandler) CompleteWithdrawal(c *gin.Context) {
	adminID, id, req, ok := h.review(c)
	if !ok {
		return
	}
	wd, err := h.withdrawals.Complete(c.Request.Context(), id, adminID, req.BankReference)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wd)
}

func (h *FundingHandler) review(c *gin.Context) (int64, int64, ReviewRequest, bool) {
	var req ReviewRequest
	adminID, ok := authenticatedUserID(c)
	if !ok {
		return 0, 0, req, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		return 0, 0, req, false
	}
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return 0, 0, req, false
	}
	return adminID, id, req, true
}
