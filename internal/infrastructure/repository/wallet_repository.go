package repository

import (
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository implements domain.WalletRepository
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) domain.WalletRepository {
	return &WalletRepository{db: db}
}

// Create inserts a wallet
func (r *WalletRepository) Create(wallet *domain.Wallet) error {
	now := time.Now()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	return r.db.Create(wallet).Error
}

// CreateIfAbsent inserts a wallet, leaving an existing one for the same user
// untouched
func (r *WalletRepository) CreateIfAbsent(wallet *domain.Wallet) (bool, error) {
	now := time.Now()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(wallet)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetByUserID retrieves the wallet of a user
func (r *WalletRepository) GetByUserID(userID int64) (*domain.Wallet, error) {
	return first[domain.Wallet](r.db.Where("user_id = ?", userID))
}

// GetByUserIDForUpdate retrieves the wallet of a user and locks its row
func (r *WalletRepository) GetByUserIDForUpdate(userID int64) (*domain.Wallet, error) {
	return first[domain.Wallet](forUpdate(r.db).Where("user_id = ?", userID))
}

// Update saves a wallet
func (r *WalletRepository) Update(wallet *domain.Wallet) error {
	wallet.UpdatedAt = time.Now()
	return r.db.Save(wallet).Error
}
