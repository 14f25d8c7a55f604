package domain

//go:generate mockgen -destination=mocks/mock_events.go -package=mocks github.com/perlasbingo/settlement/internal/domain EventPublisher

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JSONB is a type for handle JSONB field that GORM can automatically marshal/unmarshal JSONB fields.
type JSONB map[string]interface{}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Int64 reads a numeric key, which JSON decoding leaves as float64
func (j JSONB) Int64(key string) (int64, bool) {
	switch v := j[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// OutboxEvent represents an event stored in the outbox
type OutboxEvent struct {
	ID          string     `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	Type        string     `json:"type" gorm:"type:varchar(64);not null"`
	Data        JSONB      `json:"data" gorm:"type:jsonb"`
	Status      string     `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count" gorm:"default:0"`
}

// TableName specifies the table name for OutboxEvent
func (o OutboxEvent) TableName() string {
	return "outbox_events"
}

// NewOutboxEvent serializes payload into a pending event
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	var data JSONB
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
	}
	return &OutboxEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Data:      data,
		Status:    EventStatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// OutboxRepository defines the interface for outbox persistence
type OutboxRepository interface {
	Save(event *OutboxEvent) error
	GetPendingEvents(limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(eventID string) error
	MarkAsFailed(eventID string, errMsg string) error
	IncrementRetryCount(eventID string) error
}

// OutboxProcessor defines the interface for processing outbox events
type OutboxProcessor interface {
	ProcessEvents() error
	ProcessEvent(event *OutboxEvent) error
	StartBackgroundProcessing()
	StopBackgroundProcessing()
}

// EventPublisher forwards committed domain events to the outside world
type EventPublisher interface {
	Publish(ctx context.Context, event *OutboxEvent) error
}

// Domain event types
const (
	EventTypeBallDrawn               = "ball-drawn"
	EventTypeBingoWinner             = "bingo-winner"
	EventTypePrizeWithheld           = "prize-withheld"
	EventTypeBalanceUpdated          = "balance-updated"
	EventTypeDepositStatusUpdated    = "deposit-status-updated"
	EventTypeWithdrawalStatusUpdated = "withdrawal-status-updated"
	EventTypeGameStatusChanged       = "game-status-changed"
)

// Event statuses
const (
	EventStatusPending   = "PENDING"
	EventStatusProcessed = "PROCESSED"
	EventStatusFailed    = "FAILED"
)

// BallDrawnPayload is the body of a ball-drawn event
type BallDrawnPayload struct {
	GameID     int64     `json:"gameId"`
	Ball       int       `json:"ball"`
	BallsDrawn []int     `json:"ballsDrawn"`
	Timestamp  time.Time `json:"timestamp"`
}

// BingoWinnerPayload is the body of a bingo-winner event
type BingoWinnerPayload struct {
	GameID      int64           `json:"gameId"`
	CardID      int64           `json:"cardId"`
	UserID      int64           `json:"userId"`
	Pattern     Pattern         `json:"pattern"`
	PrizeAmount decimal.Decimal `json:"prizeAmount"`
	NewBalance  decimal.Decimal `json:"newBalance"`
	Timestamp   time.Time       `json:"timestamp"`
}

// PrizeWithheldPayload is the body of a prize-withheld event
type PrizeWithheldPayload struct {
	GameID      int64           `json:"gameId"`
	CardID      int64           `json:"cardId"`
	UserID      int64           `json:"userId"`
	Pattern     Pattern         `json:"pattern"`
	PrizeAmount decimal.Decimal `json:"prizeAmount"`
	Reason      ErrorKind       `json:"reason"`
	Timestamp   time.Time       `json:"timestamp"`
}

// BalanceUpdatedPayload is the body of a balance-updated event
type BalanceUpdatedPayload struct {
	UserID        int64           `json:"userId"`
	NewBalance    decimal.Decimal `json:"newBalance"`
	Change        decimal.Decimal `json:"change"`
	Reason        TransactionType `json:"reason"`
	TransactionID int64           `json:"transactionId"`
	Timestamp     time.Time       `json:"timestamp"`
}

// RequestStatusPayload is the body of deposit and withdrawal status events
type RequestStatusPayload struct {
	UserID     int64            `json:"userId"`
	RequestID  int64            `json:"requestId"`
	Status     RequestStatus    `json:"status"`
	Amount     decimal.Decimal  `json:"amount"`
	NewBalance *decimal.Decimal `json:"newBalance,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// GameStatusPayload is the body of a game-status-changed event
type GameStatusPayload struct {
	GameID    int64      `json:"gameId"`
	Status    GameStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// RecordEvent stores a pending event inside tx
func RecordEvent(tx Tx, eventType string, payload interface{}) error {
	event, err := NewOutboxEvent(eventType, payload)
	if err != nil {
		return NewInternalError("Failed to encode event", err)
	}
	if err := tx.Outbox().Save(event); err != nil {
		return NewDatabaseError("save outbox event", err)
	}
	return nil
}
