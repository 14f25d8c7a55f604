package game

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/domain"
	"go.uber.org/zap"
)

func drawLockKey(gameID int64) string {
	return fmt.Sprintf("game:%d:draw", gameID)
}

// DrawBall draws the next ball, marks it on every active card and pays each
// new winner. All of it commits as one unit; a prize the ledger refuses is
// withheld rather than failing the draw.
func (uc *GameUseCase) DrawBall(ctx context.Context, gameID int64) (*domain.DrawResult, error) {
	log := uc.logger.ForGame(ctx, gameID)
	key := drawLockKey(gameID)
	lockCtx, cancel := context.WithTimeout(ctx, uc.cfg.DrawLockTimeout)
	defer cancel()
	if err := uc.locker.Lock(lockCtx, key); err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(context.Background(), key); err != nil {
			log.Error("Failed to release draw lock", zap.String("key", key), zap.Error(err))
		}
	}()

	var result *domain.DrawResult
	err := uc.store.Atomic(ctx, func(tx domain.Tx) error {
		game, err := lockGame(tx, gameID)
		if err != nil {
			return err
		}
		if game.Status != domain.GameStatusInProgress {
			return domain.Wrap(domain.ErrInvalidGameState, fmt.Sprintf("cannot draw in a %s game", game.Status))
		}

		remaining := bingo.Remaining(game.BallsDrawn)
		if len(remaining) == 0 {
			return domain.Wrap(domain.ErrBallsExhausted, fmt.Sprintf("game %d", gameID))
		}
		ball := uc.picker.Pick(remaining)
		game.BallsDrawn = append(game.BallsDrawn, ball)
		game.CurrentBall = ball

		cards, err := tx.Cards().ListActiveByGame(gameID)
		if err != nil {
			return domain.NewDatabaseError("list active cards", err)
		}
		if err := markBall(tx, cards, ball); err != nil {
			return err
		}

		if err := domain.RecordEvent(tx, domain.EventTypeBallDrawn, domain.BallDrawnPayload{
			GameID:     gameID,
			Ball:       ball,
			BallsDrawn: append([]int{}, game.BallsDrawn...),
			Timestamp:  time.Now(),
		}); err != nil {
			return err
		}

		paid, withheld, err := uc.settleWinners(tx, game, cards)
		if err != nil {
			return err
		}

		if err := tx.Games().Update(game); err != nil {
			return domain.NewDatabaseError("update game", err)
		}

		result = &domain.DrawResult{
			GameID:     gameID,
			Ball:       ball,
			BallsDrawn: append([]int{}, game.BallsDrawn...),
			Winners:    paid,
			Withheld:   withheld,
			Remaining:  len(remaining) - 1,
		}
		return nil
	})
	if err != nil {
		log.Warn("Draw failed", zap.Error(err))
		return nil, err
	}

	log.Info("Ball drawn",
		zap.Int("ball", result.Ball),
		zap.Int("drawn", len(result.BallsDrawn)),
		zap.Int("winners", len(result.Winners)),
		zap.Int("withheld", len(result.Withheld)))
	return result, nil
}

// markBall marks every unmarked cell holding ball and keeps cards in step
// with what was written
func markBall(tx domain.Tx, cards []*domain.BingoCard, ball int) error {
	for _, card := range cards {
		var positions []int
		for i := range card.Cells {
			cell := &card.Cells[i]
			if v, ok := cell.Number(); ok && v == ball && !cell.Marked {
				cell.Marked = true
				positions = append(positions, cell.Position)
			}
		}
		if len(positions) == 0 {
			continue
		}
		if err := tx.Cards().MarkCells(card.ID, positions, []int{ball}); err != nil {
			return domain.NewDatabaseError("mark cells", err)
		}
		card.MarkedNumbers = append(card.MarkedNumbers, ball)
	}
	return nil
}

// settleWinners pays every card that completed a configured pattern on this
// draw. A card that already won is never paid again. Winners are paid in
// user order so wallet locks are taken in the same order as Transfer.
//
// A payout the ledger refuses (inactive or frozen wallet, missing
// participant) is withheld: the card still wins, an audit row and a
// prize-withheld event are written, and the draw commits. Storage failures
// roll the whole draw back.
func (uc *GameUseCase) settleWinners(tx domain.Tx, game *domain.Game, cards []*domain.BingoCard) ([]domain.PaidWinner, []domain.WithheldPrize, error) {
	candidates := make([]*domain.BingoCard, 0, len(cards))
	for _, c := range cards {
		if !c.IsWinner {
			candidates = append(candidates, c)
		}
	}

	winners := bingo.CheckForWinners(candidates, game.Patterns())
	sort.SliceStable(winners, func(i, j int) bool {
		if winners[i].UserID != winners[j].UserID {
			return winners[i].UserID < winners[j].UserID
		}
		return winners[i].CardID < winners[j].CardID
	})

	paid := make([]domain.PaidWinner, 0, len(winners))
	var withheld []domain.WithheldPrize
	for _, w := range winners {
		pattern := bingo.BestPattern(w.Patterns)
		prize := bingo.CalculatePrize(game.TotalPrize, game.CardPrice, pattern)

		p, err := uc.payer.AwardPrizeTx(tx, domain.PrizeAward{
			UserID:  w.UserID,
			GameID:  game.ID,
			CardID:  w.CardID,
			Amount:  prize,
			Pattern: pattern,
		})
		switch {
		case err == nil:
			p.Winner = w
			paid = append(paid, *p)
		case domain.KindOf(err) == domain.KindInternal:
			uc.logger.Error("Prize payout failed",
				zap.Int64("gameID", game.ID),
				zap.Int64("cardID", w.CardID),
				zap.Error(err))
			return nil, nil, err
		default:
			held := domain.WithheldPrize{Winner: w, Pattern: pattern, PrizeAmount: prize, Reason: domain.KindOf(err)}
			if err := withholdPrize(tx, game.ID, held); err != nil {
				return nil, nil, err
			}
			uc.logger.Warn("Prize withheld",
				zap.Int64("gameID", game.ID),
				zap.Int64("cardID", w.CardID),
				zap.Int64("userID", w.UserID),
				zap.String("amount", prize.String()),
				zap.Error(err))
			withheld = append(withheld, held)
		}

		if err := tx.Cards().SetWinner(w.CardID, pattern); err != nil {
			return nil, nil, domain.NewDatabaseError("set winner", err)
		}
		game.WinningCardIDs = append(game.WinningCardIDs, w.CardID)
	}
	return paid, withheld, nil
}

func withholdPrize(tx domain.Tx, gameID int64, held domain.WithheldPrize) error {
	if err := domain.RecordAudit(tx, domain.SystemActorID, domain.AuditActionPrizeWithheld, "card", held.CardID, domain.JSONB{
		"game_id": gameID,
		"user_id": held.UserID,
		"amount":  held.PrizeAmount.String(),
		"pattern": string(held.Pattern),
		"reason":  held.Reason.String(),
	}); err != nil {
		return err
	}
	return domain.RecordEvent(tx, domain.EventTypePrizeWithheld, domain.PrizeWithheldPayload{
		GameID:      gameID,
		CardID:      held.CardID,
		UserID:      held.UserID,
		Pattern:     held.Pattern,
		PrizeAmount: held.PrizeAmount,
		Reason:      held.Reason,
		Timestamp:   time.Now(),
	})
}
