package seeder

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/lock"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/memstore"
	"github.com/perlasbingo/settlement/internal/usecase/game"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/perlasbingo/settlement/internal/usecase/settlement"
)

func newSeeder() (*Seeder, domain.LedgerUseCase) {
	log := logger.NewNop()
	store := memstore.New()
	ledgerUC := ledger.NewLedgerUseCase(store, ledger.Config{}, log)
	settlementUC := settlement.NewSettlementUseCase(store, ledgerUC, bingo.NewGenerator(nil), settlement.Config{}, log)
	gameUC := game.NewGameUseCase(store, lock.NewKeyedMutex(time.Second, log), bingo.NewRandomPicker(nil), settlementUC, game.Config{}, log)
	return NewSeeder(ledgerUC, gameUC, log), ledgerUC
}

func TestSeedWallets_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, ledgerUC := newSeeder()
	players := []Player{
		{UserID: 11, Balance: decimal.NewFromInt(40)},
		{UserID: 12, Balance: decimal.Zero},
	}

	require.NoError(t, s.SeedWallets(ctx, players))
	require.NoError(t, s.SeedWallets(ctx, players))

	w, err := ledgerUC.GetWallet(ctx, 11)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(40)))

	history, err := ledgerUC.History(ctx, 11, 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	w, err = ledgerUC.GetWallet(ctx, 12)
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
}

func TestSeedGame_ReusesJoinableGame(t *testing.T) {
	ctx := context.Background()
	s, _ := newSeeder()

	first, err := s.SeedGame(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusOpen, first.Status)

	second, err := s.SeedGame(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
