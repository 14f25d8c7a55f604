package repository

import (
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"gorm.io/gorm"
)

// DepositRepository implements domain.DepositRepository
type DepositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *gorm.DB) domain.DepositRepository {
	return &DepositRepository{db: db}
}

// Create inserts a deposit request
func (r *DepositRepository) Create(req *domain.DepositRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.UpdatedAt = req.CreatedAt
	return r.db.Create(req).Error
}

// GetByID retrieves a deposit request
func (r *DepositRepository) GetByID(id int64) (*domain.DepositRequest, error) {
	return first[domain.DepositRequest](r.db.Where("id = ?", id))
}

// GetByIDForUpdate retrieves a deposit request and locks its row
func (r *DepositRepository) GetByIDForUpdate(id int64) (*domain.DepositRequest, error) {
	return first[domain.DepositRequest](forUpdate(r.db).Where("id = ?", id))
}

// Update saves a deposit request
func (r *DepositRepository) Update(req *domain.DepositRequest) error {
	req.UpdatedAt = time.Now()
	return r.db.Save(req).Error
}

// ListByUser returns a user's deposits, newest first
func (r *DepositRepository) ListByUser(userID int64, limit, offset int) ([]*domain.DepositRequest, error) {
	var out []*domain.DepositRequest
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// ListByStatus returns deposits in a status, oldest first
func (r *DepositRepository) ListByStatus(status domain.RequestStatus, limit, offset int) ([]*domain.DepositRequest, error) {
	var out []*domain.DepositRequest
	err := r.db.Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// WithdrawalRepository implements domain.WithdrawalRepository
type WithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *gorm.DB) domain.WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create inserts a withdrawal request
func (r *WithdrawalRepository) Create(req *domain.WithdrawalRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.UpdatedAt = req.CreatedAt
	return r.db.Create(req).Error
}

// GetByID retrieves a withdrawal request
func (r *WithdrawalRepository) GetByID(id int64) (*domain.WithdrawalRequest, error) {
	return first[domain.WithdrawalRequest](r.db.Where("id = ?", id))
}

// GetByIDForUpdate retrieves a withdrawal request and locks its row
func (r *WithdrawalRepository) GetByIDForUpdate(id int64) (*domain.WithdrawalRequest, error) {
	return first[domain.WithdrawalRequest](forUpdate(r.db).Where("id = ?", id))
}

// Update saves a withdrawal request
func (r *WithdrawalRepository) Update(req *domain.WithdrawalRequest) error {
	req.UpdatedAt = time.Now()
	return r.db.Save(req).Error
}

// ListByUser returns a user's withdrawals, newest first
func (r *WithdrawalRepository) ListByUser(userID int64, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	var out []*domain.WithdrawalRequest
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// ListByStatus returns withdrawals in a status, oldest first
func (r *WithdrawalRepository) ListByStatus(status domain.RequestStatus, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	var out []*domain.WithdrawalRequest
	err := r.db.Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// AuditLogRepository implements domain.AuditLogRepository
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) domain.AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends an audit entry
func (r *AuditLogRepository) Create(entry *domain.AdminAuditLog) error {
	return r.db.Create(entry).Error
}

// ListByEntity returns the audit trail of one entity, oldest first
func (r *AuditLogRepository) ListByEntity(entityType string, entityID int64) ([]*domain.AdminAuditLog, error) {
	var out []*domain.AdminAuditLog
	err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
