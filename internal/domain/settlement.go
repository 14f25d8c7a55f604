package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MaxCardsPerUser caps the cards one user may hold in a game
const MaxCardsPerUser = 3

// PurchaseResult is the outcome of a card purchase
type PurchaseResult struct {
	Cards       []*BingoCard     `json:"cards"`
	TotalCost   decimal.Decimal  `json:"total_cost"`
	NewBalance  decimal.Decimal  `json:"new_balance"`
	Participant *GameParticipant `json:"participant"`
	Transaction *Transaction     `json:"transaction"`
}

// SettlementUseCase pairs balance mutations with the game actions that cause them
type SettlementUseCase interface {
	PrizePayer
	PurchaseCards(ctx context.Context, userID, gameID int64, count int) (*PurchaseResult, error)
	AwardPrize(ctx context.Context, adminID, userID, gameID int64, amount decimal.Decimal, pattern Pattern) (*PaidWinner, error)
	ListCards(ctx context.Context, userID, gameID int64) ([]*BingoCard, error)
}
