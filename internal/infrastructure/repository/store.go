package repository

import (
	"context"
	"errors"

	"github.com/perlasbingo/settlement/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements domain.Store on a Postgres transaction
type Store struct {
	db *gorm.DB
}

// NewStore creates a new gorm backed store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside one database transaction. gorm rolls back on error
// and on panic.
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&unit{db: gtx})
	})
}

// unit binds every repository to the same *gorm.DB transaction
type unit struct {
	db *gorm.DB
}

func (u *unit) Games() domain.GameRepository               { return NewGameRepository(u.db) }
func (u *unit) Cards() domain.CardRepository               { return NewCardRepository(u.db) }
func (u *unit) Participants() domain.ParticipantRepository { return NewParticipantRepository(u.db) }
func (u *unit) Wallets() domain.WalletRepository           { return NewWalletRepository(u.db) }
func (u *unit) Transactions() domain.TransactionRepository { return NewTransactionRepository(u.db) }
func (u *unit) Deposits() domain.DepositRepository         { return NewDepositRepository(u.db) }
func (u *unit) Withdrawals() domain.WithdrawalRepository   { return NewWithdrawalRepository(u.db) }
func (u *unit) AuditLogs() domain.AuditLogRepository       { return NewAuditLogRepository(u.db) }
func (u *unit) Outbox() domain.OutboxRepository            { return NewOutboxRepository(u.db) }

// forUpdate adds SELECT ... FOR UPDATE to the query
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// first runs query into dest and maps a missing row to (nil, nil)
func first[T any](query *gorm.DB) (*T, error) {
	var out T
	if err := query.First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
