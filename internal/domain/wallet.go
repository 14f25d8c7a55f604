package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's Perlas balance
type Wallet struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int64           `json:"user_id" gorm:"uniqueIndex;not null"`
	Balance      decimal.Decimal `json:"balance" gorm:"type:numeric(20,2);not null;default:0"`
	IsActive     bool            `json:"is_active" gorm:"not null;default:true"`
	IsFrozen     bool            `json:"is_frozen" gorm:"not null;default:false"`
	DailyLimit   decimal.Decimal `json:"daily_limit" gorm:"type:numeric(20,2);not null;default:0"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit" gorm:"type:numeric(20,2);not null;default:0"`
	Version      int64           `json:"version" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for Wallet
func (Wallet) TableName() string {
	return "wallets"
}

// CanDebit checks the preconditions of a debit of amount
func (w *Wallet) CanDebit(amount decimal.Decimal) error {
	if !w.IsActive {
		return Wrap(ErrWalletInactive, "")
	}
	if w.IsFrozen {
		return Wrap(ErrWalletFrozen, "")
	}
	if w.Balance.LessThan(amount) {
		return Wrap(ErrInsufficientFunds, "balance "+w.Balance.StringFixed(2)+", required "+amount.StringFixed(2))
	}
	return nil
}

// CanCredit checks the preconditions of a credit
func (w *Wallet) CanCredit() error {
	if !w.IsActive {
		return Wrap(ErrWalletInactive, "")
	}
	return nil
}

// LedgerEntry describes one balance mutation
type LedgerEntry struct {
	UserID        int64
	Amount        decimal.Decimal
	Type          TransactionType
	PaymentMethod string
	ReferenceID   string
	Description   string
}

// WalletRepository defines the interface for wallet persistence
type WalletRepository interface {
	Create(wallet *Wallet) error
	// CreateIfAbsent inserts the wallet unless the user already has one and
	// reports whether it did
	CreateIfAbsent(wallet *Wallet) (bool, error)
	GetByUserID(userID int64) (*Wallet, error)
	GetByUserIDForUpdate(userID int64) (*Wallet, error)
	Update(wallet *Wallet) error
}

// LedgerUseCase is the only path through which balances change
type LedgerUseCase interface {
	Debit(ctx context.Context, entry LedgerEntry) (*Transaction, error)
	Credit(ctx context.Context, entry LedgerEntry) (*Transaction, error)
	DebitTx(tx Tx, entry LedgerEntry) (*Transaction, error)
	CreditTx(tx Tx, entry LedgerEntry) (*Transaction, error)
	OpenWallet(ctx context.Context, userID int64) (*Wallet, error)
	GetWallet(ctx context.Context, userID int64) (*Wallet, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]*Transaction, error)
	Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal, description string) (*Transaction, error)
	SetFrozen(ctx context.Context, adminID, userID int64, frozen bool, reason string) (*Wallet, error)
}
