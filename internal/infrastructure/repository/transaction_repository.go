package repository

import (
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionRepository implements domain.TransactionRepository
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a ledger row
func (r *TransactionRepository) Create(transaction *domain.Transaction) error {
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	return r.db.Create(transaction).Error
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(id int64) (*domain.Transaction, error) {
	return first[domain.Transaction](r.db.Where("id = ?", id))
}

// GetByUserID retrieves transactions for a user with pagination
func (r *TransactionRepository) GetByUserID(userID int64, limit, offset int) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions)

	if result.Error != nil {
		return nil, result.Error
	}

	return transactions, nil
}

// SumByTypeSince totals a user's rows of one type created at or after since
func (r *TransactionRepository) SumByTypeSince(userID int64, txType domain.TransactionType, since time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.Model(&domain.Transaction{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, txType, since).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}
