package repository

import (
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxRepository implements domain.OutboxRepository
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *gorm.DB) domain.OutboxRepository {
	return &OutboxRepository{db: db}
}

// Save appends an event; it becomes visible to the processor on commit
func (r *OutboxRepository) Save(event *domain.OutboxEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Status == "" {
		event.Status = domain.EventStatusPending
	}
	return r.db.Create(event).Error
}

// GetPendingEvents returns pending events oldest first. SKIP LOCKED lets two
// API replicas drain the outbox without publishing the same row twice.
func (r *OutboxRepository) GetPendingEvents(limit int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", domain.EventStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// MarkAsProcessed records a successful publish
func (r *OutboxRepository) MarkAsProcessed(eventID string) error {
	now := time.Now()
	return r.event(eventID).Updates(map[string]interface{}{
		"status":       domain.EventStatusProcessed,
		"processed_at": &now,
		"error":        nil,
	}).Error
}

// MarkAsFailed parks an event; it is not retried again
func (r *OutboxRepository) MarkAsFailed(eventID string, errMsg string) error {
	now := time.Now()
	return r.event(eventID).Updates(map[string]interface{}{
		"status":       domain.EventStatusFailed,
		"processed_at": &now,
		"error":        &errMsg,
	}).Error
}

// IncrementRetryCount leaves the event pending for the next tick
func (r *OutboxRepository) IncrementRetryCount(eventID string) error {
	return r.event(eventID).Update("retry_count", gorm.Expr("retry_count + 1")).Error
}

func (r *OutboxRepository) event(eventID string) *gorm.DB {
	return r.db.Model(&domain.OutboxEvent{}).Where("id = ?", eventID)
}
