package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx exposes the repositories bound to one atomic unit
type Tx interface {
	Games() GameRepository
	Cards() CardRepository
	Participants() ParticipantRepository
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Deposits() DepositRepository
	Withdrawals() WithdrawalRepository
	AuditLogs() AuditLogRepository
	Outbox() OutboxRepository
}

// Store runs fn as one all-or-nothing unit. Any error returned by fn, or a
// panic inside it, discards every write made through tx.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Locker serializes work on a named key across callers
type Locker interface {
	Lock(ctx context.Context, key string) error
	Unlock(ctx context.Context, key string) error
}

// CardGenerator produces the cells of a fresh card
type CardGenerator interface {
	GenerateUniqueCard() ([]CardCell, error)
}

// BallPicker chooses the next ball out of the remaining ones
type BallPicker interface {
	Pick(remaining []int) int
}

// PrizePayer credits a winning card inside the draw's atomic unit
type PrizePayer interface {
	AwardPrizeTx(tx Tx, award PrizeAward) (*PaidWinner, error)
}

// PrizeAward is one prize to pay
type PrizeAward struct {
	UserID  int64
	GameID  int64
	CardID  int64
	Amount  decimal.Decimal
	Pattern Pattern
}
