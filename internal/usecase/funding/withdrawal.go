package funding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WithdrawalUseCase implements domain.WithdrawalUseCase
type WithdrawalUseCase struct {
	store  domain.Store
	ledger domain.LedgerUseCase
	cfg    Config
	logger *logger.Logger
}

// NewWithdrawalUseCase creates a new withdrawal workflow
func NewWithdrawalUseCase(store domain.Store, ledger domain.LedgerUseCase, cfg Config, logger *logger.Logger) *WithdrawalUseCase {
	cfg = cfg.withDefaults()
	logger.Info("WithdrawalUseCase initialized successfully",
		zap.String("commissionRate", cfg.CommissionRate.String()),
		zap.String("minCommission", cfg.MinCommission.String()))
	return &WithdrawalUseCase{
		store:  store,
		ledger: ledger,
		cfg:    cfg,
		logger: logger,
	}
}

// Commission is max(MinCommission, amount*CommissionRate) rounded to cents
func (uc *WithdrawalUseCase) Commission(amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(uc.cfg.MinCommission, amount.Mul(uc.cfg.CommissionRate)).Round(2)
}

func validateBank(bank domain.BankDetails) error {
	required := []struct{ field, value string }{
		{"bank_code", bank.BankCode},
		{"account_number", bank.AccountNumber},
		{"account_holder_name", bank.AccountHolderName},
		{"account_holder_dni", bank.AccountHolderDni},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidBankDetail,
				fmt.Sprintf("Bank detail '%s' is required", r.field), nil)
		}
	}
	limits := []struct {
		field, value string
		limit        int
	}{
		{"bank_code", bank.BankCode, domain.MaxBankCodeLength},
		{"account_number", bank.AccountNumber, domain.MaxAccountLength},
		{"account_holder_name", bank.AccountHolderName, domain.MaxHolderLength},
		{"account_holder_dni", bank.AccountHolderDni, domain.MaxDniLength},
	}
	for _, l := range limits {
		if err := domain.CheckLength(l.field, l.value, l.limit); err != nil {
			return err
		}
	}
	if bank.AccountType != domain.AccountTypeSavings && bank.AccountType != domain.AccountTypeChecking {
		return domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidBankDetail,
			fmt.Sprintf("Unsupported account type %q", bank.AccountType), nil)
	}
	return nil
}

// Create files a PENDING withdrawal and reserves its Perlas immediately
func (uc *WithdrawalUseCase) Create(ctx context.Context, userID int64, pearlsAmount decimal.Decimal, bank domain.BankDetails) (*domain.WithdrawalRequest, error) {
	if err := ledger.ValidateAmount(pearlsAmount); err != nil {
		return nil, err
	}
	if uc.cfg.MinWithdrawal.IsPositive() && pearlsAmount.LessThan(uc.cfg.MinWithdrawal) {
		return nil, domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidAmount,
			fmt.Sprintf("Minimum withdrawal is %s", uc.cfg.MinWithdrawal), nil)
	}
	if err := validateBank(bank); err != nil {
		return nil, err
	}

	commission := uc.Commission(pearlsAmount)
	net := pearlsAmount.Sub(commission)
	if !net.IsPositive() {
		return nil, domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidAmount,
			fmt.Sprintf("Amount %s does not cover the %s commission", pearlsAmount, commission), nil)
	}

	now := uc.cfg.Now()
	req := &domain.WithdrawalRequest{
		UserID:            userID,
		PearlsAmount:      pearlsAmount,
		AmountInSoles:     pearlsAmount,
		Commission:        commission,
		NetAmount:         net,
		BankCode:          strings.TrimSpace(bank.BankCode),
		AccountNumber:     strings.TrimSpace(bank.AccountNumber),
		AccountType:       bank.AccountType,
		AccountHolderName: strings.TrimSpace(bank.AccountHolderName),
		AccountHolderDni:  strings.TrimSpace(bank.AccountHolderDni),
		ReferenceCode:     referenceCode("WDR"),
		Status:            domain.RequestStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var balance decimal.Decimal
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		wallet, err := tx.Wallets().GetByUserIDForUpdate(userID)
		if err != nil {
			return domain.NewDatabaseError("lock wallet", err)
		}
		if wallet == nil {
			return domain.Wrap(domain.ErrWalletNotFound, fmt.Sprintf("user %d", userID))
		}
		if err := uc.checkLimits(tx, wallet, pearlsAmount, now); err != nil {
			return err
		}

		txn, err := uc.ledger.DebitTx(tx, domain.LedgerEntry{
			UserID:      userID,
			Amount:      pearlsAmount,
			Type:        domain.TransactionTypeWithdrawal,
			ReferenceID: req.ReferenceCode,
			Description: fmt.Sprintf("Withdrawal %s reserved", req.ReferenceCode),
		})
		if err != nil {
			return err
		}
		req.ReserveTransactionID = &txn.ID
		balance = txn.BalanceAfter

		if err := tx.Withdrawals().Create(req); err != nil {
			return domain.NewDatabaseError("create withdrawal", err)
		}
		return uc.recordStatus(tx, req, &balance)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Withdrawal requested",
		zap.Int64("withdrawalID", req.ID),
		zap.Int64("userID", userID),
		zap.String("amount", pearlsAmount.String()),
		zap.String("commission", commission.String()))
	return req, nil
}

// checkLimits counts reserved withdrawals net of refunds in the current day and month
func (uc *WithdrawalUseCase) checkLimits(tx domain.Tx, wallet *domain.Wallet, amount decimal.Decimal, now time.Time) error {
	windows := []struct {
		name  string
		limit decimal.Decimal
		since time.Time
	}{
		{"daily", wallet.DailyLimit, startOfDay(now)},
		{"monthly", wallet.MonthlyLimit, startOfMonth(now)},
	}
	for _, w := range windows {
		if !w.limit.IsPositive() {
			continue
		}
		used, err := tx.Transactions().SumByTypeSince(wallet.UserID, domain.TransactionTypeWithdrawal, w.since)
		if err != nil {
			return domain.NewDatabaseError("sum withdrawals", err)
		}
		refunded, err := tx.Transactions().SumByTypeSince(wallet.UserID, domain.TransactionTypeWithdrawalRefund, w.since)
		if err != nil {
			return domain.NewDatabaseError("sum refunds", err)
		}
		used = used.Sub(refunded)
		if used.Add(amount).GreaterThan(w.limit) {
			uc.logger.Warn("Withdrawal limit exceeded",
				zap.Int64("userID", wallet.UserID),
				zap.String("window", w.name),
				zap.String("used", used.String()),
				zap.String("limit", w.limit.String()))
			return domain.Wrap(domain.ErrLimitExceeded, fmt.Sprintf("%s limit %s, already used %s", w.name, w.limit, used))
		}
	}
	return nil
}

// Approve acknowledges the request; the reserved Perlas stay debited
func (uc *WithdrawalUseCase) Approve(ctx context.Context, id, adminID int64, notes string) (*domain.WithdrawalRequest, error) {
	return uc.decide(ctx, id, adminID, domain.AuditActionWithdrawalApprove, func(tx domain.Tx, req *domain.WithdrawalRequest) (*decimal.Decimal, error) {
		if err := requirePending("withdrawal", id, req.Status); err != nil {
			return nil, err
		}
		req.Status = domain.RequestStatusApproved
		req.AdminNotes = notes
		return nil, nil
	})
}

// Reject returns the reserved Perlas to the wallet
func (uc *WithdrawalUseCase) Reject(ctx context.Context, id, adminID int64, reason string) (*domain.WithdrawalRequest, error) {
	if err := domain.CheckLength("notes", reason, domain.MaxNoteLength); err != nil {
		return nil, err
	}
	return uc.decide(ctx, id, adminID, domain.AuditActionWithdrawalReject, func(tx domain.Tx, req *domain.WithdrawalRequest) (*decimal.Decimal, error) {
		if err := requirePending("withdrawal", id, req.Status); err != nil {
			return nil, err
		}
		txn, err := uc.ledger.CreditTx(tx, domain.LedgerEntry{
			UserID:      req.UserID,
			Amount:      req.PearlsAmount,
			Type:        domain.TransactionTypeWithdrawalRefund,
			ReferenceID: req.ReferenceCode,
			Description: fmt.Sprintf("Withdrawal %s rejected: %s", req.ReferenceCode, reason),
		})
		if err != nil {
			return nil, err
		}
		req.Status = domain.RequestStatusRejected
		req.AdminNotes = reason
		return &txn.BalanceAfter, nil
	})
}

// Complete records that the money left the bank
func (uc *WithdrawalUseCase) Complete(ctx context.Context, id, adminID int64, bankReference string) (*domain.WithdrawalRequest, error) {
	bankReference = strings.TrimSpace(bankReference)
	if bankReference == "" {
		return nil, domain.NewValidationError("bank_reference", "is required")
	}
	if err := domain.CheckLength("bank_reference", bankReference, domain.MaxReferenceLength); err != nil {
		return nil, err
	}
	return uc.decide(ctx, id, adminID, domain.AuditActionWithdrawalComplete, func(tx domain.Tx, req *domain.WithdrawalRequest) (*decimal.Decimal, error) {
		switch req.Status {
		case domain.RequestStatusApproved:
		case domain.RequestStatusCompleted:
			return nil, domain.Wrap(domain.ErrAlreadyProcessed, fmt.Sprintf("withdrawal %d is COMPLETED", id))
		default:
			return nil, domain.Wrap(domain.ErrNotApproved, fmt.Sprintf("withdrawal %d is %s", id, req.Status))
		}
		req.Status = domain.RequestStatusCompleted
		req.BankReference = bankReference
		return nil, nil
	})
}

// decide runs one admin transition with its audit row and status event
func (uc *WithdrawalUseCase) decide(
	ctx context.Context,
	id, adminID int64,
	action string,
	apply func(tx domain.Tx, req *domain.WithdrawalRequest) (*decimal.Decimal, error),
) (*domain.WithdrawalRequest, error) {
	var req *domain.WithdrawalRequest
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		req, err = tx.Withdrawals().GetByIDForUpdate(id)
		if err != nil {
			return domain.NewDatabaseError("lock withdrawal", err)
		}
		if req == nil {
			return domain.Wrap(domain.ErrRequestNotFound, fmt.Sprintf("withdrawal %d", id))
		}

		newBalance, err := apply(tx, req)
		if err != nil {
			return err
		}
		now := uc.cfg.Now()
		req.ProcessedBy = &adminID
		req.ProcessedAt = &now
		if err := tx.Withdrawals().Update(req); err != nil {
			return domain.NewDatabaseError("update withdrawal", err)
		}

		if err := domain.RecordAudit(tx, adminID, action, "withdrawal", id, domain.JSONB{
			"user_id":        req.UserID,
			"amount":         req.PearlsAmount.String(),
			"status":         string(req.Status),
			"notes":          req.AdminNotes,
			"bank_reference": req.BankReference,
		}); err != nil {
			return err
		}
		return uc.recordStatus(tx, req, newBalance)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Withdrawal status changed",
		zap.Int64("withdrawalID", id),
		zap.Int64("adminID", adminID),
		zap.String("status", string(req.Status)))
	return req, nil
}

// Get returns one withdrawal
func (uc *WithdrawalUseCase) Get(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	var req *domain.WithdrawalRequest
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		req, err = tx.Withdrawals().GetByID(id)
		if err != nil {
			return domain.NewDatabaseError("get withdrawal", err)
		}
		if req == nil {
			return domain.Wrap(domain.ErrRequestNotFound, fmt.Sprintf("withdrawal %d", id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListByUser returns the user's withdrawals, newest first
func (uc *WithdrawalUseCase) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	limit, offset = domain.ClampPage(limit, offset)
	return uc.list(ctx, func(tx domain.Tx) ([]*domain.WithdrawalRequest, error) {
		return tx.Withdrawals().ListByUser(userID, limit, offset)
	})
}

// ListPending returns the admin queue, oldest first
func (uc *WithdrawalUseCase) ListPending(ctx context.Context, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	limit, offset = domain.ClampPage(limit, offset)
	return uc.list(ctx, func(tx domain.Tx) ([]*domain.WithdrawalRequest, error) {
		return tx.Withdrawals().ListByStatus(domain.RequestStatusPending, limit, offset)
	})
}

func (uc *WithdrawalUseCase) list(ctx context.Context, query func(domain.Tx) ([]*domain.WithdrawalRequest, error)) ([]*domain.WithdrawalRequest, error) {
	var rows []*domain.WithdrawalRequest
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		rows, err = query(tx)
		if err != nil {
			return domain.NewDatabaseError("list withdrawals", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (uc *WithdrawalUseCase) recordStatus(tx domain.Tx, req *domain.WithdrawalRequest, newBalance *decimal.Decimal) error {
	return domain.RecordEvent(tx, domain.EventTypeWithdrawalStatusUpdated, domain.RequestStatusPayload{
		UserID:     req.UserID,
		RequestID:  req.ID,
		Status:     req.Status,
		Amount:     req.PearlsAmount,
		NewBalance: newBalance,
		Timestamp:  uc.cfg.Now(),
	})
}
