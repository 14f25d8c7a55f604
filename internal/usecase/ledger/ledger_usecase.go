package ledger

import (
	"context"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// Config holds the defaults applied to newly opened wallets
type Config struct {
	DefaultDailyLimit   decimal.Decimal
	DefaultMonthlyLimit decimal.Decimal
}

// LedgerUseCase implements domain.LedgerUseCase
type LedgerUseCase struct {
	store  domain.Store
	cfg    Config
	logger *logger.Logger
}

// NewLedgerUseCase creates a new ledger usecase
func NewLedgerUseCase(store domain.Store, cfg Config, logger *logger.Logger) *LedgerUseCase {
	logger.Info("LedgerUseCase initialized successfully")
	return &LedgerUseCase{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Debit removes entry.Amount from the wallet in its own atomic unit
func (uc *LedgerUseCase) Debit(ctx context.Context, entry domain.LedgerEntry) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		txn, err = uc.DebitTx(tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Credit adds entry.Amount to the wallet in its own atomic unit
func (uc *LedgerUseCase) Credit(ctx context.Context, entry domain.LedgerEntry) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		txn, err = uc.CreditTx(tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// DebitTx removes entry.Amount inside the caller's atomic unit
func (uc *LedgerUseCase) DebitTx(tx domain.Tx, entry domain.LedgerEntry) (*domain.Transaction, error) {
	return uc.apply(tx, entry, true)
}

// CreditTx adds entry.Amount inside the caller's atomic unit
func (uc *LedgerUseCase) CreditTx(tx domain.Tx, entry domain.LedgerEntry) (*domain.Transaction, error) {
	return uc.apply(tx, entry, false)
}
