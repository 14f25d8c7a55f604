package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// minTotalPrize keeps the prize bound [1, TotalPrize*0.5] non-empty
var minTotalPrize = decimal.NewFromInt(2)

// Config tunes the engine
type Config struct {
	DrawLockTimeout time.Duration
}

// GameUseCase implements domain.GameUseCase
type GameUseCase struct {
	store  domain.Store
	locker domain.Locker
	picker domain.BallPicker
	payer  domain.PrizePayer
	cfg    Config
	logger *logger.Logger
}

// NewGameUseCase creates a new game engine
func NewGameUseCase(
	store domain.Store,
	locker domain.Locker,
	picker domain.BallPicker,
	payer domain.PrizePayer,
	cfg Config,
	logger *logger.Logger,
) *GameUseCase {
	if cfg.DrawLockTimeout <= 0 {
		cfg.DrawLockTimeout = 5 * time.Second
	}
	logger.Info("GameUseCase initialized successfully", zap.Duration("drawLockTimeout", cfg.DrawLockTimeout))
	return &GameUseCase{
		store:  store,
		locker: locker,
		picker: picker,
		payer:  payer,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateGame registers a SCHEDULED game
func (uc *GameUseCase) CreateGame(ctx context.Context, cmd domain.CreateGameCommand) (*domain.Game, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	game := &domain.Game{
		Title:           strings.TrimSpace(cmd.Title),
		MaxPlayers:      cmd.MaxPlayers,
		CardPrice:       cmd.CardPrice,
		TotalPrize:      cmd.TotalPrize,
		Status:          domain.GameStatusScheduled,
		WinningPatterns: datatypes.JSONSlice[domain.Pattern](dedupePatterns(cmd.WinningPatterns)),
		ScheduledAt:     cmd.ScheduledAt,
		BallsDrawn:      datatypes.JSONSlice[int]{},
		WinningCardIDs:  datatypes.JSONSlice[int64]{},
		CreatedBy:       cmd.AdminID,
	}

	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		if err := tx.Games().Create(game); err != nil {
			return domain.NewDatabaseError("create game", err)
		}
		if err := domain.RecordAudit(tx, cmd.AdminID, domain.AuditActionGameCreate, "game", game.ID, domain.JSONB{
			"title":       game.Title,
			"max_players": game.MaxPlayers,
			"card_price":  game.CardPrice.String(),
			"total_prize": game.TotalPrize.String(),
		}); err != nil {
			return err
		}
		return uc.recordStatus(tx, game)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Game created", zap.Int64("gameID", game.ID), zap.Int64("adminID", cmd.AdminID))
	return game, nil
}

func validateCreate(cmd domain.CreateGameCommand) error {
	if strings.TrimSpace(cmd.Title) == "" {
		return domain.NewValidationError("title", "is required")
	}
	if err := domain.CheckLength("title", cmd.Title, domain.MaxTitleLength); err != nil {
		return err
	}
	if cmd.MaxPlayers <= 0 {
		return domain.NewValidationError("max_players", "must be positive")
	}
	if !cmd.CardPrice.IsPositive() || !cmd.CardPrice.Equal(cmd.CardPrice.Round(2)) {
		return domain.NewValidationError("card_price", "must be positive with at most 2 decimals")
	}
	if cmd.TotalPrize.LessThan(minTotalPrize) || !cmd.TotalPrize.Equal(cmd.TotalPrize.Round(2)) {
		return domain.NewValidationError("total_prize", "must be at least 2 with at most 2 decimals")
	}
	for _, p := range cmd.WinningPatterns {
		if !p.Valid() {
			return domain.NewValidationError("winning_patterns", fmt.Sprintf("unknown pattern %q", p))
		}
	}
	return nil
}

func dedupePatterns(patterns []domain.Pattern) []domain.Pattern {
	out := make([]domain.Pattern, 0, len(patterns))
	seen := make(map[domain.Pattern]bool, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Open moves a SCHEDULED game to OPEN
func (uc *GameUseCase) Open(ctx context.Context, gameID int64) (*domain.Game, error) {
	return uc.transition(ctx, gameID, func(g *domain.Game) error {
		if g.Status != domain.GameStatusScheduled {
			return domain.Wrap(domain.ErrInvalidGameState, fmt.Sprintf("cannot open a %s game", g.Status))
		}
		g.Status = domain.GameStatusOpen
		return nil
	})
}

// Start moves an OPEN or SCHEDULED game to IN_PROGRESS
func (uc *GameUseCase) Start(ctx context.Context, gameID int64) (*domain.Game, error) {
	return uc.transition(ctx, gameID, func(g *domain.Game) error {
		if !g.Status.Joinable() {
			return domain.Wrap(domain.ErrInvalidGameState, fmt.Sprintf("cannot start a %s game", g.Status))
		}
		now := time.Now()
		g.Status = domain.GameStatusInProgress
		g.StartedAt = &now
		return nil
	})
}

// End completes the game. Ending a completed game changes nothing.
func (uc *GameUseCase) End(ctx context.Context, gameID int64) (*domain.Game, error) {
	return uc.transition(ctx, gameID, func(g *domain.Game) error {
		if g.Status == domain.GameStatusCompleted {
			return errUnchanged
		}
		now := time.Now()
		g.Status = domain.GameStatusCompleted
		g.EndedAt = &now
		return nil
	})
}

// errUnchanged tells transition to skip the write without failing
var errUnchanged = errors.New("unchanged")

func (uc *GameUseCase) transition(ctx context.Context, gameID int64, apply func(*domain.Game) error) (*domain.Game, error) {
	var game *domain.Game
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		g, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		game = g
		from := g.Status

		if err := apply(g); err != nil {
			return err
		}
		if err := tx.Games().Update(g); err != nil {
			return domain.NewDatabaseError("update game", err)
		}

		uc.logger.Info("Game status changed",
			zap.Int64("gameID", gameID),
			zap.String("from", string(from)),
			zap.String("to", string(g.Status)))
		return uc.recordStatus(tx, g)
	})
	if errors.Is(err, errUnchanged) {
		return game, nil
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (uc *GameUseCase) recordStatus(tx domain.Tx, g *domain.Game) error {
	return domain.RecordEvent(tx, domain.EventTypeGameStatusChanged, domain.GameStatusPayload{
		GameID:    g.ID,
		Status:    g.Status,
		Timestamp: time.Now(),
	})
}

func lockGame(tx domain.Tx, gameID int64) (*domain.Game, error) {
	g, err := tx.Games().GetByIDForUpdate(gameID)
	if err != nil {
		return nil, domain.NewDatabaseError("lock game", err)
	}
	if g == nil {
		return nil, domain.Wrap(domain.ErrGameNotFound, fmt.Sprintf("game %d", gameID))
	}
	return g, nil
}

// GetGame returns one game
func (uc *GameUseCase) GetGame(ctx context.Context, gameID int64) (*domain.Game, error) {
	var game *domain.Game
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		g, err := tx.Games().GetByID(gameID)
		if err != nil {
			return domain.NewDatabaseError("get game", err)
		}
		if g == nil {
			return domain.Wrap(domain.ErrGameNotFound, fmt.Sprintf("game %d", gameID))
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// ListGames returns games newest first, optionally filtered by status
func (uc *GameUseCase) ListGames(ctx context.Context, statuses []domain.GameStatus, limit, offset int) ([]*domain.Game, error) {
	limit, offset = domain.ClampPage(limit, offset)

	var games []*domain.Game
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		games, err = tx.Games().List(statuses, limit, offset)
		if err != nil {
			return domain.NewDatabaseError("list games", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

// CardProgress reports, per card the user holds, the configured pattern it is closest to
func (uc *GameUseCase) CardProgress(ctx context.Context, userID, gameID int64) ([]domain.CardProgress, error) {
	var out []domain.CardProgress
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		g, err := tx.Games().GetByID(gameID)
		if err != nil {
			return domain.NewDatabaseError("get game", err)
		}
		if g == nil {
			return domain.Wrap(domain.ErrGameNotFound, fmt.Sprintf("game %d", gameID))
		}
		cards, err := tx.Cards().ListByUserAndGame(userID, gameID)
		if err != nil {
			return domain.NewDatabaseError("list cards", err)
		}

		out = make([]domain.CardProgress, 0, len(cards))
		for _, c := range cards {
			closest, score, _ := bingo.ClosestPattern(c, g.Patterns())
			out = append(out, domain.CardProgress{
				CardID:         c.ID,
				CardNumber:     c.CardNumber,
				ClosestPattern: closest,
				Progress:       score,
				IsWinner:       c.IsWinner,
				WinningPattern: c.WinningPattern,
				MarkedNumbers:  append([]int{}, c.MarkedNumbers...),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
