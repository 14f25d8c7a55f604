package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/memstore"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// failingGenerator succeeds okCards times, then fails
type failingGenerator struct {
	okCards int
	inner   domain.CardGenerator
	calls   int
}

func (g *failingGenerator) GenerateUniqueCard() ([]domain.CardCell, error) {
	g.calls++
	if g.calls > g.okCards {
		return nil, errors.New("entropy source unavailable")
	}
	return g.inner.GenerateUniqueCard()
}

type fixture struct {
	store  *memstore.Store
	ledger *ledger.LedgerUseCase
	uc     *SettlementUseCase
}

func newFixture(t *testing.T, gen domain.CardGenerator) *fixture {
	t.Helper()
	log := logger.NewLogger("test", "error")
	store := memstore.New()
	led := ledger.NewLedgerUseCase(store, ledger.Config{}, log)
	if gen == nil {
		gen = bingo.NewGenerator(nil)
	}
	return &fixture{
		store:  store,
		ledger: led,
		uc:     NewSettlementUseCase(store, led, gen, Config{}, log),
	}
}

func (f *fixture) game(t *testing.T, g *domain.Game) *domain.Game {
	t.Helper()
	if g.Status == "" {
		g.Status = domain.GameStatusOpen
	}
	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		return tx.Games().Create(g)
	}))
	return g
}

func (f *fixture) wallet(t *testing.T, userID int64, balance string) {
	t.Helper()
	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		return tx.Wallets().Create(&domain.Wallet{UserID: userID, Balance: dec(balance), IsActive: true})
	}))
}

func (f *fixture) balance(t *testing.T, userID int64) decimal.Decimal {
	t.Helper()
	w, err := f.ledger.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) participant(t *testing.T, userID, gameID int64) *domain.GameParticipant {
	t.Helper()
	var p *domain.GameParticipant
	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		var err error
		p, err = tx.Participants().Get(userID, gameID)
		return err
	}))
	return p
}

func standardGame() *domain.Game {
	return &domain.Game{Title: "Friday", MaxPlayers: 10, CardPrice: dec("5"), TotalPrize: dec("250")}
}

func TestPurchaseCards_TwelveToTwo(t *testing.T) {
	f := newFixture(t, nil)
	g := f.game(t, standardGame())
	f.wallet(t, 1, "12")
	f.wallet(t, 2, "100")

	// another player already holds card 1
	_, err := f.uc.PurchaseCards(context.Background(), 2, g.ID, 1)
	require.NoError(t, err)

	res, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 2)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(res.TotalCost))
	assert.True(t, dec("2").Equal(res.NewBalance))
	assert.True(t, dec("2").Equal(f.balance(t, 1)))
	require.Len(t, res.Cards, 2)
	assert.Equal(t, 2, res.Cards[0].CardNumber)
	assert.Equal(t, 3, res.Cards[1].CardNumber)
	for _, c := range res.Cards {
		assert.NoError(t, bingo.ValidateCard(c.Cells))
		assert.True(t, c.IsActive)
		assert.Equal(t, int64(1), c.UserID)
	}

	p := f.participant(t, 1, g.ID)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.CardsCount)
	assert.True(t, dec("10").Equal(p.TotalSpent))

	t.Run("then one more card is unaffordable", func(t *testing.T) {
		_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
		assert.Equal(t, domain.KindInsufficientFunds, domain.KindOf(err))
		assert.True(t, dec("2").Equal(f.balance(t, 1)))

		cards, err := f.uc.ListCards(context.Background(), 1, g.ID)
		require.NoError(t, err)
		assert.Len(t, cards, 2)
		assert.Equal(t, 2, f.participant(t, 1, g.ID).CardsCount)
	})
}

func TestPurchaseCards_GeneratorFailureRollsBackDebit(t *testing.T) {
	gen := &failingGenerator{okCards: 1, inner: bingo.NewGenerator(nil)}
	f := newFixture(t, gen)
	g := f.game(t, standardGame())
	f.wallet(t, 1, "50")

	_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 2)
	require.Error(t, err)

	assert.True(t, dec("50").Equal(f.balance(t, 1)))
	assert.Nil(t, f.participant(t, 1, g.ID))
	cards, err := f.uc.ListCards(context.Background(), 1, g.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)

	history, err := f.ledger.History(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPurchaseCards_Rejections(t *testing.T) {
	t.Run("game not joinable", func(t *testing.T) {
		f := newFixture(t, nil)
		g := standardGame()
		g.Status = domain.GameStatusInProgress
		f.game(t, g)
		f.wallet(t, 1, "50")

		_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
		assert.ErrorIs(t, err, domain.ErrGameNotJoinable)
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})

	t.Run("scheduled game is joinable", func(t *testing.T) {
		f := newFixture(t, nil)
		g := standardGame()
		g.Status = domain.GameStatusScheduled
		f.game(t, g)
		f.wallet(t, 1, "50")

		_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
		assert.NoError(t, err)
	})

	t.Run("game missing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.wallet(t, 1, "50")
		_, err := f.uc.PurchaseCards(context.Background(), 1, 42, 1)
		assert.ErrorIs(t, err, domain.ErrGameNotFound)
	})

	t.Run("card limit", func(t *testing.T) {
		f := newFixture(t, nil)
		g := f.game(t, standardGame())
		f.wallet(t, 1, "50")

		_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 2)
		require.NoError(t, err)
		_, err = f.uc.PurchaseCards(context.Background(), 1, g.ID, 2)
		assert.Equal(t, domain.KindCardLimitExceeded, domain.KindOf(err))
		assert.True(t, dec("40").Equal(f.balance(t, 1)))
		_, err = f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
		assert.NoError(t, err)
	})

	t.Run("count out of range", func(t *testing.T) {
		f := newFixture(t, nil)
		g := f.game(t, standardGame())
		f.wallet(t, 1, "50")
		for _, n := range []int{0, -1, 4} {
			_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, n)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err), "count %d", n)
		}
	})

	t.Run("game full blocks only new players", func(t *testing.T) {
		f := newFixture(t, nil)
		g := standardGame()
		g.MaxPlayers = 1
		f.game(t, g)
		f.wallet(t, 1, "50")
		f.wallet(t, 2, "50")

		_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
		require.NoError(t, err)

		_, err = f.uc.PurchaseCards(context.Background(), 2, g.ID, 1)
		assert.Equal(t, domain.KindGameFull, domain.KindOf(err))
		assert.True(t, dec("50").Equal(f.balance(t, 2)))

		_, err = f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
		assert.NoError(t, err)
	})
}

func TestPurchaseCards_ConcurrentRaceOneWinner(t *testing.T) {
	f := newFixture(t, nil)
	g := f.game(t, standardGame())
	f.wallet(t, 1, "12")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.PurchaseCards(context.Background(), 1, g.ID, 2)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Contains(t, []domain.ErrorKind{domain.KindInsufficientFunds, domain.KindCardLimitExceeded}, domain.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, dec("2").Equal(f.balance(t, 1)))
}

func TestAwardPrize(t *testing.T) {
	f := newFixture(t, nil)
	g := f.game(t, standardGame())
	f.wallet(t, 1, "10")
	f.wallet(t, 2, "10")

	_, err := f.uc.PurchaseCards(context.Background(), 1, g.ID, 1)
	require.NoError(t, err)

	paid, err := f.uc.AwardPrize(context.Background(), 99, 1, g.ID, dec("25"), domain.PatternLineHorizontal1)
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(paid.NewBalance))
	assert.True(t, dec("30").Equal(f.balance(t, 1)))

	_, err = f.uc.AwardPrize(context.Background(), 99, 1, g.ID, dec("5"), domain.PatternFourCorners)
	require.NoError(t, err)

	p := f.participant(t, 1, g.ID)
	assert.True(t, p.HasWon)
	assert.True(t, dec("30").Equal(p.PrizeWon))

	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		logs, err := tx.AuditLogs().ListByEntity("game", g.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 2)

		events, err := tx.Outbox().GetPendingEvents(100)
		require.NoError(t, err)
		winners := 0
		for _, e := range events {
			if e.Type == domain.EventTypeBingoWinner {
				winners++
				assert.Equal(t, float64(g.ID), e.Data["gameId"])
			}
		}
		assert.Equal(t, 2, winners)
		return nil
	}))

	t.Run("non participant", func(t *testing.T) {
		_, err := f.uc.AwardPrize(context.Background(), 99, 2, g.ID, dec("5"), domain.PatternFullCard)
		assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
		assert.True(t, dec("10").Equal(f.balance(t, 2)))
	})

	t.Run("missing game", func(t *testing.T) {
		_, err := f.uc.AwardPrize(context.Background(), 99, 1, 404, dec("5"), domain.PatternFullCard)
		assert.ErrorIs(t, err, domain.ErrGameNotFound)
	})

	t.Run("non positive amount", func(t *testing.T) {
		_, err := f.uc.AwardPrize(context.Background(), 99, 1, g.ID, dec("0"), domain.PatternFullCard)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}
