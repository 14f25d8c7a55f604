package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OpenWallet returns the user's wallet, creating an empty active one if needed
func (uc *LedgerUseCase) OpenWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	if userID <= 0 {
		return nil, domain.NewValidationError("user_id", "must be positive")
	}

	var wallet *domain.Wallet
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		existing, err := tx.Wallets().GetByUserIDForUpdate(userID)
		if err != nil {
			return domain.NewDatabaseError("get wallet", err)
		}
		if existing != nil {
			wallet = existing
			return nil
		}

		wallet = &domain.Wallet{
			UserID:       userID,
			Balance:      decimal.Zero,
			IsActive:     true,
			DailyLimit:   uc.cfg.DefaultDailyLimit,
			MonthlyLimit: uc.cfg.DefaultMonthlyLimit,
		}
		created, err := tx.Wallets().CreateIfAbsent(wallet)
		if err != nil {
			return domain.NewDatabaseError("create wallet", err)
		}
		if created {
			uc.logger.Info("Wallet opened", zap.Int64("userID", userID))
			return nil
		}

		// a concurrent open inserted it after our read
		wallet, err = tx.Wallets().GetByUserIDForUpdate(userID)
		if err != nil {
			return domain.NewDatabaseError("get wallet", err)
		}
		if wallet == nil {
			return domain.NewInternalError("Wallet vanished after conflicting insert", nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetWallet returns the user's wallet
func (uc *LedgerUseCase) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		w, err := tx.Wallets().GetByUserID(userID)
		if err != nil {
			return domain.NewDatabaseError("get wallet", err)
		}
		if w == nil {
			return domain.Wrap(domain.ErrWalletNotFound, fmt.Sprintf("user %d", userID))
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// History returns the user's ledger rows, newest first
func (uc *LedgerUseCase) History(ctx context.Context, userID int64, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ClampPage(limit, offset)

	var rows []*domain.Transaction
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		rows, err = tx.Transactions().GetByUserID(userID, limit, offset)
		if err != nil {
			return domain.NewDatabaseError("list transactions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Transfer moves Perlas between two players. Both wallets are locked in
// ascending user id order. The sender's ledger row is returned.
func (uc *LedgerUseCase) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if fromUserID == toUserID {
		return nil, domain.NewValidationError("to_user_id", "cannot transfer to the same wallet")
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := domain.CheckLength("description", description, domain.MaxNoteLength); err != nil {
		return nil, err
	}

	reference := "P2P-" + uuid.NewString()
	var sent *domain.Transaction
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		first, second := fromUserID, toUserID
		if second < first {
			first, second = second, first
		}
		if _, err := uc.lockWallet(tx, first); err != nil {
			return err
		}
		if _, err := uc.lockWallet(tx, second); err != nil {
			return err
		}

		var err error
		sent, err = uc.DebitTx(tx, domain.LedgerEntry{
			UserID:      fromUserID,
			Amount:      amount,
			Type:        domain.TransactionTypeP2PTransfer,
			ReferenceID: reference,
			Description: fmt.Sprintf("Transfer to user %d: %s", toUserID, description),
		})
		if err != nil {
			return err
		}
		_, err = uc.CreditTx(tx, domain.LedgerEntry{
			UserID:      toUserID,
			Amount:      amount,
			Type:        domain.TransactionTypeP2PTransfer,
			ReferenceID: reference,
			Description: fmt.Sprintf("Transfer from user %d: %s", fromUserID, description),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Transfer completed",
		zap.Int64("fromUserID", fromUserID),
		zap.Int64("toUserID", toUserID),
		zap.String("amount", amount.String()),
		zap.String("reference", reference))
	return sent, nil
}

// SetFrozen freezes or unfreezes a wallet on behalf of an admin
func (uc *LedgerUseCase) SetFrozen(ctx context.Context, adminID, userID int64, frozen bool, reason string) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		w, err := uc.lockWallet(tx, userID)
		if err != nil {
			return err
		}
		w.IsFrozen = frozen
		if err := tx.Wallets().Update(w); err != nil {
			return domain.NewDatabaseError("update wallet", err)
		}

		action := domain.AuditActionWalletUnfreeze
		if frozen {
			action = domain.AuditActionWalletFreeze
		}
		if err := domain.RecordAudit(tx, adminID, action, "wallet", w.ID, domain.JSONB{
			"user_id": userID,
			"reason":  reason,
		}); err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Wallet freeze state changed",
		zap.Int64("adminID", adminID),
		zap.Int64("userID", userID),
		zap.Bool("frozen", frozen))
	return wallet, nil
}
