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

// DepositUseCase implements domain.DepositUseCase
type DepositUseCase struct {
	store  domain.Store
	ledger domain.LedgerUseCase
	cfg    Config
	logger *logger.Logger
}

// NewDepositUseCase creates a new deposit workflow
func NewDepositUseCase(store domain.Store, ledger domain.LedgerUseCase, cfg Config, logger *logger.Logger) *DepositUseCase {
	cfg = cfg.withDefaults()
	logger.Info("DepositUseCase initialized successfully", zap.Duration("ttl", cfg.DepositTTL))
	return &DepositUseCase{
		store:  store,
		ledger: ledger,
		cfg:    cfg,
		logger: logger,
	}
}

// Create files a PENDING deposit that expires after the configured TTL
func (uc *DepositUseCase) Create(ctx context.Context, userID int64, amount decimal.Decimal, method domain.PaymentMethod, bankAccount string) (*domain.DepositRequest, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if uc.cfg.MinDeposit.IsPositive() && amount.LessThan(uc.cfg.MinDeposit) {
		return nil, domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidAmount,
			fmt.Sprintf("Minimum deposit is %s", uc.cfg.MinDeposit), nil)
	}
	if uc.cfg.MaxDeposit.IsPositive() && amount.GreaterThan(uc.cfg.MaxDeposit) {
		return nil, domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidAmount,
			fmt.Sprintf("Maximum deposit is %s", uc.cfg.MaxDeposit), nil)
	}
	if !method.Valid() {
		return nil, domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidMethod,
			fmt.Sprintf("Unsupported payment method %q", method), nil)
	}
	bankAccount = strings.TrimSpace(bankAccount)
	if err := domain.CheckLength("bank_account", bankAccount, domain.MaxReferenceLength); err != nil {
		return nil, err
	}

	now := uc.cfg.Now()
	req := &domain.DepositRequest{
		UserID:        userID,
		Amount:        amount,
		PearlsAmount:  amount,
		PaymentMethod: method,
		BankAccount:   bankAccount,
		ReferenceCode: referenceCode("DEP"),
		Status:        domain.RequestStatusPending,
		ExpiresAt:     now.Add(uc.cfg.DepositTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		if _, err := activeWallet(tx, userID); err != nil {
			return err
		}
		if err := tx.Deposits().Create(req); err != nil {
			return domain.NewDatabaseError("create deposit", err)
		}
		return uc.recordStatus(tx, req, nil)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Deposit requested",
		zap.Int64("depositID", req.ID),
		zap.Int64("userID", userID),
		zap.String("amount", amount.String()),
		zap.String("reference", req.ReferenceCode))
	return req, nil
}

// Approve credits the deposit's Perlas. Expired requests cannot be approved.
func (uc *DepositUseCase) Approve(ctx context.Context, id, adminID int64, bankReference, notes string) (*domain.DepositRequest, error) {
	if err := domain.CheckLength("bank_reference", strings.TrimSpace(bankReference), domain.MaxReferenceLength); err != nil {
		return nil, err
	}
	var req *domain.DepositRequest
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		req, err = uc.lockPending(tx, id)
		if err != nil {
			return err
		}
		now := uc.cfg.Now()
		if req.IsExpired(now) {
			return domain.Wrap(domain.ErrDepositExpired, fmt.Sprintf("deposit %d expired at %s", id, req.ExpiresAt.Format(time.RFC3339)))
		}

		txn, err := uc.ledger.CreditTx(tx, domain.LedgerEntry{
			UserID:        req.UserID,
			Amount:        req.PearlsAmount,
			Type:          domain.TransactionTypeDeposit,
			PaymentMethod: string(req.PaymentMethod),
			ReferenceID:   req.ReferenceCode,
			Description:   fmt.Sprintf("Deposit %s", req.ReferenceCode),
		})
		if err != nil {
			return err
		}

		req.Status = domain.RequestStatusApproved
		req.BankReference = strings.TrimSpace(bankReference)
		req.AdminNotes = notes
		req.ValidatedAt = &now
		req.ValidatedBy = &adminID
		req.TransactionID = &txn.ID
		if err := tx.Deposits().Update(req); err != nil {
			return domain.NewDatabaseError("update deposit", err)
		}

		if err := domain.RecordAudit(tx, adminID, domain.AuditActionDepositApprove, "deposit", id, domain.JSONB{
			"user_id":        req.UserID,
			"amount":         req.PearlsAmount.String(),
			"bank_reference": req.BankReference,
		}); err != nil {
			return err
		}
		return uc.recordStatus(tx, req, &txn.BalanceAfter)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Deposit approved", zap.Int64("depositID", id), zap.Int64("adminID", adminID))
	return req, nil
}

// Reject closes the request without touching any balance
func (uc *DepositUseCase) Reject(ctx context.Context, id, adminID int64, reason string) (*domain.DepositRequest, error) {
	var req *domain.DepositRequest
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		req, err = uc.lockPending(tx, id)
		if err != nil {
			return err
		}

		now := uc.cfg.Now()
		req.Status = domain.RequestStatusRejected
		req.AdminNotes = reason
		req.ValidatedAt = &now
		req.ValidatedBy = &adminID
		if err := tx.Deposits().Update(req); err != nil {
			return domain.NewDatabaseError("update deposit", err)
		}

		if err := domain.RecordAudit(tx, adminID, domain.AuditActionDepositReject, "deposit", id, domain.JSONB{
			"user_id": req.UserID,
			"reason":  reason,
		}); err != nil {
			return err
		}
		return uc.recordStatus(tx, req, nil)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Deposit rejected", zap.Int64("depositID", id), zap.Int64("adminID", adminID))
	return req, nil
}

// Cancel withdraws a pending request on behalf of its owner
func (uc *DepositUseCase) Cancel(ctx context.Context, id, userID int64) (*domain.DepositRequest, error) {
	var req *domain.DepositRequest
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		req, err = tx.Deposits().GetByIDForUpdate(id)
		if err != nil {
			return domain.NewDatabaseError("lock deposit", err)
		}
		if req == nil {
			return domain.Wrap(domain.ErrRequestNotFound, fmt.Sprintf("deposit %d", id))
		}
		if req.UserID != userID {
			return domain.Wrap(domain.ErrRequestNotOwned, fmt.Sprintf("deposit %d", id))
		}
		if err := requirePending("deposit", id, req.Status); err != nil {
			return err
		}

		req.Status = domain.RequestStatusCancelled
		if err := tx.Deposits().Update(req); err != nil {
			return domain.NewDatabaseError("update deposit", err)
		}
		return uc.recordStatus(tx, req, nil)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Deposit cancelled", zap.Int64("depositID", id), zap.Int64("userID", userID))
	return req, nil
}

// Get returns a deposit with its derived expiry flag
func (uc *DepositUseCase) Get(ctx context.Context, id int64) (*domain.DepositView, error) {
	var view *domain.DepositView
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		req, err := tx.Deposits().GetByID(id)
		if err != nil {
			return domain.NewDatabaseError("get deposit", err)
		}
		if req == nil {
			return domain.Wrap(domain.ErrRequestNotFound, fmt.Sprintf("deposit %d", id))
		}
		view = uc.view(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListByUser returns the user's deposits, newest first
func (uc *DepositUseCase) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.DepositView, error) {
	limit, offset = domain.ClampPage(limit, offset)
	return uc.list(ctx, func(tx domain.Tx) ([]*domain.DepositRequest, error) {
		return tx.Deposits().ListByUser(userID, limit, offset)
	})
}

// ListPending returns the admin queue, oldest first
func (uc *DepositUseCase) ListPending(ctx context.Context, limit, offset int) ([]*domain.DepositView, error) {
	limit, offset = domain.ClampPage(limit, offset)
	return uc.list(ctx, func(tx domain.Tx) ([]*domain.DepositRequest, error) {
		return tx.Deposits().ListByStatus(domain.RequestStatusPending, limit, offset)
	})
}

func (uc *DepositUseCase) list(ctx context.Context, query func(domain.Tx) ([]*domain.DepositRequest, error)) ([]*domain.DepositView, error) {
	var views []*domain.DepositView
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		rows, err := query(tx)
		if err != nil {
			return domain.NewDatabaseError("list deposits", err)
		}
		views = make([]*domain.DepositView, 0, len(rows))
		for _, r := range rows {
			views = append(views, uc.view(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (uc *DepositUseCase) view(req *domain.DepositRequest) *domain.DepositView {
	return &domain.DepositView{DepositRequest: req, IsExpired: req.IsExpired(uc.cfg.Now())}
}

func (uc *DepositUseCase) lockPending(tx domain.Tx, id int64) (*domain.DepositRequest, error) {
	req, err := tx.Deposits().GetByIDForUpdate(id)
	if err != nil {
		return nil, domain.NewDatabaseError("lock deposit", err)
	}
	if req == nil {
		return nil, domain.Wrap(domain.ErrRequestNotFound, fmt.Sprintf("deposit %d", id))
	}
	if err := requirePending("deposit", id, req.Status); err != nil {
		return nil, err
	}
	return req, nil
}

func (uc *DepositUseCase) recordStatus(tx domain.Tx, req *domain.DepositRequest, newBalance *decimal.Decimal) error {
	return domain.RecordEvent(tx, domain.EventTypeDepositStatusUpdated, domain.RequestStatusPayload{
		UserID:     req.UserID,
		RequestID:  req.ID,
		Status:     req.Status,
		Amount:     req.PearlsAmount,
		NewBalance: newBalance,
		Timestamp:  uc.cfg.Now(),
	})
}
