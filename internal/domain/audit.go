package domain

import "time"

// Audited admin actions
const (
	AuditActionGameCreate         = "GAME_CREATE"
	AuditActionPrizeAward         = "PRIZE_AWARD"
	AuditActionPrizeWithheld      = "PRIZE_WITHHELD"
	AuditActionDepositApprove     = "DEPOSIT_APPROVE"
	AuditActionDepositReject      = "DEPOSIT_REJECT"
	AuditActionWithdrawalApprove  = "WITHDRAWAL_APPROVE"
	AuditActionWithdrawalReject   = "WITHDRAWAL_REJECT"
	AuditActionWithdrawalComplete = "WITHDRAWAL_COMPLETE"
	AuditActionWalletFreeze       = "WALLET_FREEZE"
	AuditActionWalletUnfreeze     = "WALLET_UNFREEZE"
)

// SystemActorID is the AdminID of entries written by the engine itself
const SystemActorID int64 = 0

// AdminAuditLog records who did what to which entity
type AdminAuditLog struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	AdminID    int64     `json:"admin_id" gorm:"not null;index"`
	Action     string    `json:"action" gorm:"type:varchar(32);not null"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(32);not null"`
	EntityID   int64     `json:"entity_id" gorm:"not null"`
	Details    JSONB     `json:"details" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

// TableName specifies the table name for AdminAuditLog
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}

// AuditLogRepository defines the interface for audit persistence
type AuditLogRepository interface {
	Create(entry *AdminAuditLog) error
	ListByEntity(entityType string, entityID int64) ([]*AdminAuditLog, error)
}

// RecordAudit stores an audit entry inside tx
func RecordAudit(tx Tx, adminID int64, action, entityType string, entityID int64, details JSONB) error {
	entry := &AdminAuditLog{
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := tx.AuditLogs().Create(entry); err != nil {
		return NewDatabaseError("create audit log", err)
	}
	return nil
}
