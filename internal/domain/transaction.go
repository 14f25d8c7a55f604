package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of a ledger row
type TransactionType string

const (
	TransactionTypeGamePurchase     TransactionType = "GAME_PURCHASE"
	TransactionTypeGameWin          TransactionType = "GAME_WIN"
	TransactionTypeDeposit          TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal       TransactionType = "WITHDRAWAL"
	TransactionTypeWithdrawalRefund TransactionType = "WITHDRAWAL_REFUND"
	TransactionTypeP2PTransfer      TransactionType = "P2P_TRANSFER"
)

// TransactionStatus represents the status of a ledger row
type TransactionStatus string

// Ledger rows are written once, already settled
const TransactionStatusCompleted TransactionStatus = "COMPLETED"

// Transaction is an append-only ledger row
type Transaction struct {
	ID            int64             `json:"transaction_id" gorm:"primaryKey;column:id;type:bigint;autoIncrement"`
	UserID        int64             `json:"user_id" gorm:"index;not null;type:bigint"`
	Type          TransactionType   `json:"type" gorm:"type:varchar(24);not null;index"`
	Amount        decimal.Decimal   `json:"amount" gorm:"type:numeric(20,2);not null"`
	BalanceBefore decimal.Decimal   `json:"balance_before" gorm:"type:numeric(20,2);not null"`
	BalanceAfter  decimal.Decimal   `json:"balance_after" gorm:"type:numeric(20,2);not null"`
	Status        TransactionStatus `json:"status" gorm:"type:varchar(16);not null;default:'COMPLETED'"`
	PaymentMethod string            `json:"payment_method,omitempty" gorm:"type:varchar(32)"`
	ReferenceID   string            `json:"reference_id,omitempty" gorm:"type:varchar(64);index"`
	Description   string            `json:"description,omitempty" gorm:"type:varchar(255)"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionRepository defines the interface for ledger rows
type TransactionRepository interface {
	Create(transaction *Transaction) error
	GetByID(id int64) (*Transaction, error)
	GetByUserID(userID int64, limit, offset int) ([]*Transaction, error)
	SumByTypeSince(userID int64, txType TransactionType, since time.Time) (decimal.Decimal, error)
}
