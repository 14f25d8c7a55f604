package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PurchaseCards debits the cards' price and issues them in one atomic unit.
// Any failure after the debit rolls the debit back with everything else.
func (uc *SettlementUseCase) PurchaseCards(ctx context.Context, userID, gameID int64, count int) (*domain.PurchaseResult, error) {
	if count < 1 || count > uc.cfg.MaxCardsPerUser {
		return nil, domain.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", uc.cfg.MaxCardsPerUser))
	}

	var result *domain.PurchaseResult
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		game, err := uc.joinableGame(tx, gameID)
		if err != nil {
			return err
		}

		participant, err := tx.Participants().Get(userID, gameID)
		if err != nil {
			return domain.NewDatabaseError("get participant", err)
		}
		if participant == nil {
			players, err := tx.Participants().CountByGame(gameID)
			if err != nil {
				return domain.NewDatabaseError("count participants", err)
			}
			if players >= game.MaxPlayers {
				uc.logger.Warn("Game is full", zap.Int64("gameID", gameID), zap.Int("players", players))
				return domain.Wrap(domain.ErrGameFull, fmt.Sprintf("%d of %d players", players, game.MaxPlayers))
			}
		}

		totalCost := game.CardPrice.Mul(decimal.NewFromInt(int64(count)))

		owned, err := tx.Cards().CountByUserAndGame(userID, gameID)
		if err != nil {
			return domain.NewDatabaseError("count cards", err)
		}
		if owned+count > uc.cfg.MaxCardsPerUser {
			uc.logger.Warn("Card limit exceeded",
				zap.Int64("gameID", gameID),
				zap.Int64("userID", userID),
				zap.Int("owned", owned),
				zap.Int("requested", count))
			return domain.Wrap(domain.ErrCardLimitExceeded, fmt.Sprintf("owned %d, requested %d, limit %d", owned, count, uc.cfg.MaxCardsPerUser))
		}

		txn, err := uc.ledger.DebitTx(tx, domain.LedgerEntry{
			UserID:      userID,
			Amount:      totalCost,
			Type:        domain.TransactionTypeGamePurchase,
			ReferenceID: fmt.Sprintf("game-%d", gameID),
			Description: fmt.Sprintf("%d card(s) for game %d", count, gameID),
		})
		if err != nil {
			return err
		}

		participant, err = uc.upsertParticipant(tx, participant, userID, gameID, count, totalCost)
		if err != nil {
			return err
		}

		cards, err := uc.issueCards(tx, userID, gameID, count)
		if err != nil {
			return err
		}

		result = &domain.PurchaseResult{
			Cards:       cards,
			TotalCost:   totalCost,
			NewBalance:  txn.BalanceAfter,
			Participant: participant,
			Transaction: txn,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Cards purchased",
		zap.Int64("gameID", gameID),
		zap.Int64("userID", userID),
		zap.Int("count", count),
		zap.String("totalCost", result.TotalCost.String()))
	return result, nil
}

// joinableGame locks the game row and checks it accepts purchases
func (uc *SettlementUseCase) joinableGame(tx domain.Tx, gameID int64) (*domain.Game, error) {
	game, err := tx.Games().GetByIDForUpdate(gameID)
	if err != nil {
		return nil, domain.NewDatabaseError("lock game", err)
	}
	if game == nil {
		return nil, domain.Wrap(domain.ErrGameNotFound, fmt.Sprintf("game %d", gameID))
	}
	if !game.Status.Joinable() {
		return nil, domain.Wrap(domain.ErrGameNotJoinable, fmt.Sprintf("game %d is %s", gameID, game.Status))
	}
	return game, nil
}

func (uc *SettlementUseCase) upsertParticipant(tx domain.Tx, p *domain.GameParticipant, userID, gameID int64, count int, cost decimal.Decimal) (*domain.GameParticipant, error) {
	if p == nil {
		p = &domain.GameParticipant{
			UserID:     userID,
			GameID:     gameID,
			CardsCount: count,
			TotalSpent: cost,
			PrizeWon:   decimal.Zero,
		}
		if err := tx.Participants().Create(p); err != nil {
			return nil, domain.NewDatabaseError("create participant", err)
		}
		return p, nil
	}

	p.CardsCount += count
	p.TotalSpent = p.TotalSpent.Add(cost)
	if err := tx.Participants().Update(p); err != nil {
		return nil, domain.NewDatabaseError("update participant", err)
	}
	return p, nil
}

// issueCards generates count cards numbered after the game's highest card
func (uc *SettlementUseCase) issueCards(tx domain.Tx, userID, gameID int64, count int) ([]*domain.BingoCard, error) {
	last, err := tx.Cards().MaxCardNumber(gameID)
	if err != nil {
		return nil, domain.NewDatabaseError("max card number", err)
	}

	now := time.Now()
	cards := make([]*domain.BingoCard, 0, count)
	for i := 1; i <= count; i++ {
		cells, err := uc.generator.GenerateUniqueCard()
		if err != nil {
			uc.logger.Error("Card generation failed", zap.Int64("gameID", gameID), zap.Error(err))
			return nil, err
		}
		cards = append(cards, &domain.BingoCard{
			GameID:        gameID,
			UserID:        userID,
			CardNumber:    last + i,
			IsActive:      true,
			MarkedNumbers: datatypes.JSONSlice[int]{},
			Cells:         cells,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := tx.Cards().CreateBatch(cards); err != nil {
		return nil, domain.NewDatabaseError("create cards", err)
	}
	return cards, nil
}
