package seeder

import (
	"context"
	"fmt"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Player is one seeded account
type Player struct {
	UserID  int64
	Balance decimal.Decimal
}

// DefaultPlayers are the demo accounts created by cmd/seed
var DefaultPlayers = []Player{
	{UserID: 1001, Balance: decimal.NewFromInt(500)},
	{UserID: 1002, Balance: decimal.NewFromInt(250)},
	{UserID: 1003, Balance: decimal.NewFromInt(100)},
	{UserID: 1004, Balance: decimal.Zero},
}

// Seeder handles demo data seeding through the regular usecases so every
// balance has a matching ledger row
type Seeder struct {
	ledger domain.LedgerUseCase
	games  domain.GameUseCase
	logger *logger.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(ledger domain.LedgerUseCase, games domain.GameUseCase, logger *logger.Logger) *Seeder {
	return &Seeder{
		ledger: ledger,
		games:  games,
		logger: logger,
	}
}

// SeedWallets opens a wallet per player and funds it once. A wallet that
// already holds money is left alone.
func (s *Seeder) SeedWallets(ctx context.Context, players []Player) error {
	for _, p := range players {
		wallet, err := s.ledger.OpenWallet(ctx, p.UserID)
		if err != nil {
			return fmt.Errorf("open wallet %d: %w", p.UserID, err)
		}
		if !wallet.Balance.IsZero() || !p.Balance.IsPositive() {
			s.logger.Info("Wallet already seeded, skipping", zap.Int64("userID", p.UserID))
			continue
		}
		_, err = s.ledger.Credit(ctx, domain.LedgerEntry{
			UserID:      p.UserID,
			Amount:      p.Balance,
			Type:        domain.TransactionTypeDeposit,
			ReferenceID: fmt.Sprintf("SEED-%d", p.UserID),
			Description: "Seed balance",
		})
		if err != nil {
			return fmt.Errorf("fund wallet %d: %w", p.UserID, err)
		}
		s.logger.Info("Seeded wallet",
			zap.Int64("userID", p.UserID),
			zap.String("balance", p.Balance.String()))
	}
	return nil
}

// SeedGame creates and opens a demo game unless a joinable one exists
func (s *Seeder) SeedGame(ctx context.Context, adminID int64) (*domain.Game, error) {
	existing, err := s.games.ListGames(ctx, []domain.GameStatus{domain.GameStatusScheduled, domain.GameStatusOpen}, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.logger.Info("Joinable game exists, skipping", zap.Int64("gameID", existing[0].ID))
		return existing[0], nil
	}

	game, err := s.games.CreateGame(ctx, domain.CreateGameCommand{
		Title:           "Demo bingo",
		MaxPlayers:      20,
		CardPrice:       decimal.NewFromInt(5),
		TotalPrize:      decimal.NewFromInt(100),
		WinningPatterns: []domain.Pattern{domain.PatternLineHorizontal1, domain.PatternFullCard},
		AdminID:         adminID,
	})
	if err != nil {
		return nil, err
	}
	game, err = s.games.Open(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Seeded game", zap.Int64("gameID", game.ID))
	return game, nil
}
