// Package memstore is an in-process domain.Store. Every atomic unit runs
// under one mutex against the live state; a failed unit restores the
// snapshot taken when it started.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
)

type sequences struct {
	game, card, cell, participant, wallet, transaction, deposit, withdrawal, audit, event int64
}

type state struct {
	games        map[int64]*domain.Game
	cards        map[int64]*domain.BingoCard
	participants map[int64]*domain.GameParticipant
	wallets      map[int64]*domain.Wallet
	transactions map[int64]*domain.Transaction
	deposits     map[int64]*domain.DepositRequest
	withdrawals  map[int64]*domain.WithdrawalRequest
	audit        map[int64]*domain.AdminAuditLog
	outbox       map[string]*domain.OutboxEvent
	outboxOrder  map[string]int64
	seq          sequences
}

func newState() *state {
	return &state{
		games:        map[int64]*domain.Game{},
		cards:        map[int64]*domain.BingoCard{},
		participants: map[int64]*domain.GameParticipant{},
		wallets:      map[int64]*domain.Wallet{},
		transactions: map[int64]*domain.Transaction{},
		deposits:     map[int64]*domain.DepositRequest{},
		withdrawals:  map[int64]*domain.WithdrawalRequest{},
		audit:        map[int64]*domain.AdminAuditLog{},
		outbox:       map[string]*domain.OutboxEvent{},
		outboxOrder:  map[string]int64{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// snapshot copies the maps; stored values are never mutated in place, only
// replaced, so sharing them between the snapshot and the live state is safe.
func (s *state) snapshot() *state {
	return &state{
		games:        copyMap(s.games),
		cards:        copyMap(s.cards),
		participants: copyMap(s.participants),
		wallets:      copyMap(s.wallets),
		transactions: copyMap(s.transactions),
		deposits:     copyMap(s.deposits),
		withdrawals:  copyMap(s.withdrawals),
		audit:        copyMap(s.audit),
		outbox:       copyMap(s.outbox),
		outboxOrder:  copyMap(s.outboxOrder),
		seq:          s.seq,
	}
}

// Store implements domain.Store in memory
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty store
func New() *Store {
	return &Store{state: newState()}
}

// Atomic runs fn while holding the store lock. fn must not call Atomic again.
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.state = snap
		}
	}()

	if err := fn(&tx{st: s.state}); err != nil {
		return err
	}
	committed = true
	return nil
}

type tx struct {
	st *state
}

func (t *tx) Games() domain.GameRepository               { return gameRepo{t.st} }
func (t *tx) Cards() domain.CardRepository               { return cardRepo{t.st} }
func (t *tx) Participants() domain.ParticipantRepository { return participantRepo{t.st} }
func (t *tx) Wallets() domain.WalletRepository           { return walletRepo{t.st} }
func (t *tx) Transactions() domain.TransactionRepository { return transactionRepo{t.st} }
func (t *tx) Deposits() domain.DepositRepository         { return depositRepo{t.st} }
func (t *tx) Withdrawals() domain.WithdrawalRepository   { return withdrawalRepo{t.st} }
func (t *tx) AuditLogs() domain.AuditLogRepository       { return auditRepo{t.st} }
func (t *tx) Outbox() domain.OutboxRepository            { return outboxRepo{t.st} }

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
