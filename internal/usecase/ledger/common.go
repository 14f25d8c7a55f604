package ledger

import (
	"fmt"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// *****  Input Validation

// ValidateAmount requires a positive amount with at most two decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidAmount, "Amount must be greater than 0", nil)
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.NewAppError(domain.KindValidation, domain.ErrCodeInvalidAmount, "Amount cannot have more than 2 decimal places", nil)
	}
	return nil
}

// *****  Wallet Access

// lockWallet loads the wallet row for update
func (uc *LedgerUseCase) lockWallet(tx domain.Tx, userID int64) (*domain.Wallet, error) {
	wallet, err := tx.Wallets().GetByUserIDForUpdate(userID)
	if err != nil {
		uc.logger.Error("Failed to lock wallet", zap.Int64("userID", userID), zap.Error(err))
		return nil, domain.NewDatabaseError("lock wallet", err)
	}
	if wallet == nil {
		uc.logger.Warn("Wallet not found", zap.Int64("userID", userID))
		return nil, domain.Wrap(domain.ErrWalletNotFound, fmt.Sprintf("user %d", userID))
	}
	return wallet, nil
}

// *****  Balance Mutation

// apply moves the balance, appends the ledger row and records the event, all
// through tx. Nothing is written when a precondition fails.
func (uc *LedgerUseCase) apply(tx domain.Tx, entry domain.LedgerEntry, debit bool) (*domain.Transaction, error) {
	if err := ValidateAmount(entry.Amount); err != nil {
		return nil, err
	}

	wallet, err := uc.lockWallet(tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	change := entry.Amount
	if debit {
		if err := wallet.CanDebit(entry.Amount); err != nil {
			uc.logger.Warn("Debit rejected",
				zap.Int64("userID", entry.UserID),
				zap.String("amount", entry.Amount.String()),
				zap.String("balance", wallet.Balance.String()),
				zap.Error(err))
			return nil, err
		}
		change = entry.Amount.Neg()
	} else if err := wallet.CanCredit(); err != nil {
		uc.logger.Warn("Credit rejected", zap.Int64("userID", entry.UserID), zap.Error(err))
		return nil, err
	}

	before := wallet.Balance
	wallet.Balance = before.Add(change)
	wallet.Version++
	if err := tx.Wallets().Update(wallet); err != nil {
		uc.logger.Error("Failed to update wallet", zap.Int64("userID", entry.UserID), zap.Error(err))
		return nil, domain.NewDatabaseError("update wallet", err)
	}

	txn := &domain.Transaction{
		UserID:        entry.UserID,
		Type:          entry.Type,
		Amount:        entry.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Status:        domain.TransactionStatusCompleted,
		PaymentMethod: entry.PaymentMethod,
		ReferenceID:   entry.ReferenceID,
		Description:   entry.Description,
		CreatedAt:     time.Now(),
	}
	if err := tx.Transactions().Create(txn); err != nil {
		uc.logger.Error("Failed to create transaction", zap.Int64("userID", entry.UserID), zap.Error(err))
		return nil, domain.NewDatabaseError("create transaction", err)
	}

	if err := domain.RecordEvent(tx, domain.EventTypeBalanceUpdated, domain.BalanceUpdatedPayload{
		UserID:        entry.UserID,
		NewBalance:    wallet.Balance,
		Change:        change,
		Reason:        entry.Type,
		TransactionID: txn.ID,
		Timestamp:     txn.CreatedAt,
	}); err != nil {
		return nil, err
	}

	uc.logger.Info("Balance updated",
		zap.Int64("userID", entry.UserID),
		zap.String("type", string(entry.Type)),
		zap.String("change", change.String()),
		zap.String("balance", wallet.Balance.String()),
		zap.Int64("transactionID", txn.ID))
	return txn, nil
}
