package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of a deposit or withdrawal request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusApproved  RequestStatus = "APPROVED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
	RequestStatusCompleted RequestStatus = "COMPLETED"
)

// PaymentMethod is how a deposit was paid outside the platform
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodYape         PaymentMethod = "YAPE"
	PaymentMethodPlin         PaymentMethod = "PLIN"
)

// Valid reports whether m is an accepted method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodYape, PaymentMethodPlin:
		return true
	}
	return false
}

// AccountType is the kind of bank account a withdrawal is paid to
type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

// DepositRequest is a player's claim of an off-platform payment
type DepositRequest struct {
	ID            int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int64           `json:"user_id" gorm:"not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(20,2);not null"`
	PearlsAmount  decimal.Decimal `json:"pearls_amount" gorm:"type:numeric(20,2);not null"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:varchar(32);not null"`
	BankAccount   string          `json:"bank_account,omitempty" gorm:"type:varchar(64)"`
	ReferenceCode string          `json:"reference_code" gorm:"type:varchar(32);uniqueIndex;not null"`
	BankReference string          `json:"bank_reference,omitempty" gorm:"type:varchar(64)"`
	Status        RequestStatus   `json:"status" gorm:"type:varchar(16);not null;index"`
	ExpiresAt     time.Time       `json:"expires_at" gorm:"not null"`
	ValidatedAt   *time.Time      `json:"validated_at,omitempty"`
	ValidatedBy   *int64          `json:"validated_by,omitempty"`
	AdminNotes    string          `json:"admin_notes,omitempty" gorm:"type:text"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for DepositRequest
func (DepositRequest) TableName() string {
	return "deposit_requests"
}

// IsExpired is derived at read time and never persisted
func (d *DepositRequest) IsExpired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// DepositView is a deposit request with its derived expiry flag
type DepositView struct {
	*DepositRequest
	IsExpired bool `json:"is_expired"`
}

// BankDetails identifies the destination account of a withdrawal
type BankDetails struct {
	BankCode          string      `json:"bank_code" binding:"max=16"`
	AccountNumber     string      `json:"account_number" binding:"max=32"`
	AccountType       AccountType `json:"account_type"`
	AccountHolderName string      `json:"account_holder_name" binding:"max=128"`
	AccountHolderDni  string      `json:"account_holder_dni" binding:"max=16"`
}

// WithdrawalRequest converts Perlas back to money, paid by an admin
type WithdrawalRequest struct {
	ID                   int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID               int64           `json:"user_id" gorm:"not null;index"`
	PearlsAmount         decimal.Decimal `json:"pearls_amount" gorm:"type:numeric(20,2);not null"`
	AmountInSoles        decimal.Decimal `json:"amount_in_soles" gorm:"type:numeric(20,2);not null"`
	Commission           decimal.Decimal `json:"commission" gorm:"type:numeric(20,2);not null"`
	NetAmount            decimal.Decimal `json:"net_amount" gorm:"type:numeric(20,2);not null"`
	BankCode             string          `json:"bank_code" gorm:"type:varchar(16);not null"`
	AccountNumber        string          `json:"account_number" gorm:"type:varchar(32);not null"`
	AccountType          AccountType     `json:"account_type" gorm:"type:varchar(16);not null"`
	AccountHolderName    string          `json:"account_holder_name" gorm:"type:varchar(128);not null"`
	AccountHolderDni     string          `json:"account_holder_dni" gorm:"type:varchar(16);not null"`
	ReferenceCode        string          `json:"reference_code" gorm:"type:varchar(32);uniqueIndex;not null"`
	BankReference        string          `json:"bank_reference,omitempty" gorm:"type:varchar(64)"`
	Status               RequestStatus   `json:"status" gorm:"type:varchar(16);not null;index"`
	AdminNotes           string          `json:"admin_notes,omitempty" gorm:"type:text"`
	ProcessedBy          *int64          `json:"processed_by,omitempty"`
	ProcessedAt          *time.Time      `json:"processed_at,omitempty"`
	ReserveTransactionID *int64          `json:"reserve_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for WithdrawalRequest
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// DepositRepository defines the interface for deposit request persistence
type DepositRepository interface {
	Create(req *DepositRequest) error
	GetByID(id int64) (*DepositRequest, error)
	GetByIDForUpdate(id int64) (*DepositRequest, error)
	Update(req *DepositRequest) error
	ListByUser(userID int64, limit, offset int) ([]*DepositRequest, error)
	ListByStatus(status RequestStatus, limit, offset int) ([]*DepositRequest, error)
}

// WithdrawalRepository defines the interface for withdrawal request persistence
type WithdrawalRepository interface {
	Create(req *WithdrawalRequest) error
	GetByID(id int64) (*WithdrawalRequest, error)
	GetByIDForUpdate(id int64) (*WithdrawalRequest, error)
	Update(req *WithdrawalRequest) error
	ListByUser(userID int64, limit, offset int) ([]*WithdrawalRequest, error)
	ListByStatus(status RequestStatus, limit, offset int) ([]*WithdrawalRequest, error)
}

// DepositUseCase defines the deposit approval workflow
type DepositUseCase interface {
	Create(ctx context.Context, userID int64, amount decimal.Decimal, method PaymentMethod, bankAccount string) (*DepositRequest, error)
	Approve(ctx context.Context, id, adminID int64, bankReference, notes string) (*DepositRequest, error)
	Reject(ctx context.Context, id, adminID int64, reason string) (*DepositRequest, error)
	Cancel(ctx context.Context, id, userID int64) (*DepositRequest, error)
	Get(ctx context.Context, id int64) (*DepositView, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*DepositView, error)
	ListPending(ctx context.Context, limit, offset int) ([]*DepositView, error)
}

// WithdrawalUseCase defines the withdrawal approval workflow
type WithdrawalUseCase interface {
	Create(ctx context.Context, userID int64, pearlsAmount decimal.Decimal, bank BankDetails) (*WithdrawalRequest, error)
	Approve(ctx context.Context, id, adminID int64, notes string) (*WithdrawalRequest, error)
	Reject(ctx context.Context, id, adminID int64, reason string) (*WithdrawalRequest, error)
	Complete(ctx context.Context, id, adminID int64, bankReference string) (*WithdrawalRequest, error)
	Get(ctx context.Context, id int64) (*WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*WithdrawalRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]*WithdrawalRequest, error)
}
