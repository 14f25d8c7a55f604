package settlement

import (
	"context"
	"fmt"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config bounds card purchases
type Config struct {
	MaxCardsPerUser int
}

// SettlementUseCase implements domain.SettlementUseCase
type SettlementUseCase struct {
	store     domain.Store
	ledger    domain.LedgerUseCase
	generator domain.CardGenerator
	cfg       Config
	logger    *logger.Logger
}

// NewSettlementUseCase creates a new settlement usecase
func NewSettlementUseCase(
	store domain.Store,
	ledger domain.LedgerUseCase,
	generator domain.CardGenerator,
	cfg Config,
	logger *logger.Logger,
) *SettlementUseCase {
	if cfg.MaxCardsPerUser <= 0 {
		cfg.MaxCardsPerUser = domain.MaxCardsPerUser
	}
	logger.Info("SettlementUseCase initialized successfully", zap.Int("maxCardsPerUser", cfg.MaxCardsPerUser))
	return &SettlementUseCase{
		store:     store,
		ledger:    ledger,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
	}
}

// ListCards returns the user's cards in a game
func (uc *SettlementUseCase) ListCards(ctx context.Context, userID, gameID int64) ([]*domain.BingoCard, error) {
	var cards []*domain.BingoCard
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		var err error
		cards, err = tx.Cards().ListByUserAndGame(userID, gameID)
		if err != nil {
			return domain.NewDatabaseError("list cards", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// AwardPrize pays a manual prize decided by an admin
func (uc *SettlementUseCase) AwardPrize(ctx context.Context, adminID, userID, gameID int64, amount decimal.Decimal, pattern domain.Pattern) (*domain.PaidWinner, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var paid *domain.PaidWinner
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		game, err := tx.Games().GetByID(gameID)
		if err != nil {
			return domain.NewDatabaseError("get game", err)
		}
		if game == nil {
			return domain.Wrap(domain.ErrGameNotFound, fmt.Sprintf("game %d", gameID))
		}

		paid, err = uc.AwardPrizeTx(tx, domain.PrizeAward{
			UserID:  userID,
			GameID:  gameID,
			Amount:  amount,
			Pattern: pattern,
		})
		if err != nil {
			return err
		}

		return domain.RecordAudit(tx, adminID, domain.AuditActionPrizeAward, "game", gameID, domain.JSONB{
			"user_id": userID,
			"amount":  amount.String(),
			"pattern": string(pattern),
		})
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// AwardPrizeTx credits a prize inside the caller's atomic unit. The amount is
// taken as already bounded by the caller.
func (uc *SettlementUseCase) AwardPrizeTx(tx domain.Tx, award domain.PrizeAward) (*domain.PaidWinner, error) {
	participant, err := tx.Participants().Get(award.UserID, award.GameID)
	if err != nil {
		return nil, domain.NewDatabaseError("get participant", err)
	}
	if participant == nil {
		return nil, domain.Wrap(domain.ErrParticipantNotFound, fmt.Sprintf("user %d in game %d", award.UserID, award.GameID))
	}

	description := fmt.Sprintf("Prize %s in game %d", award.Pattern, award.GameID)
	reference := fmt.Sprintf("game-%d", award.GameID)
	if award.CardID != 0 {
		reference = fmt.Sprintf("game-%d-card-%d", award.GameID, award.CardID)
	}

	txn, err := uc.ledger.CreditTx(tx, domain.LedgerEntry{
		UserID:      award.UserID,
		Amount:      award.Amount,
		Type:        domain.TransactionTypeGameWin,
		ReferenceID: reference,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	participant.HasWon = true
	participant.PrizeWon = participant.PrizeWon.Add(award.Amount)
	if err := tx.Participants().Update(participant); err != nil {
		return nil, domain.NewDatabaseError("update participant", err)
	}

	if err := domain.RecordEvent(tx, domain.EventTypeBingoWinner, domain.BingoWinnerPayload{
		GameID:      award.GameID,
		CardID:      award.CardID,
		UserID:      award.UserID,
		Pattern:     award.Pattern,
		PrizeAmount: award.Amount,
		NewBalance:  txn.BalanceAfter,
		Timestamp:   txn.CreatedAt,
	}); err != nil {
		return nil, err
	}

	uc.logger.Info("Prize awarded",
		zap.Int64("gameID", award.GameID),
		zap.Int64("cardID", award.CardID),
		zap.Int64("userID", award.UserID),
		zap.String("pattern", string(award.Pattern)),
		zap.String("amount", award.Amount.String()))

	return &domain.PaidWinner{
		Winner: domain.Winner{
			CardID:   award.CardID,
			UserID:   award.UserID,
			Patterns: []domain.Pattern{award.Pattern},
		},
		Pattern:     award.Pattern,
		PrizeAmount: award.Amount,
		NewBalance:  txn.BalanceAfter,
	}, nil
}
