package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled  GameStatus = "SCHEDULED"
	GameStatusOpen       GameStatus = "OPEN"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusCompleted  GameStatus = "COMPLETED"
)

// Joinable reports whether cards can be bought in this state
func (s GameStatus) Joinable() bool {
	return s == GameStatusOpen || s == GameStatusScheduled
}

// Game represents a live bingo game
type Game struct {
	ID              int64                        `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string                       `json:"title" gorm:"type:varchar(128);not null"`
	MaxPlayers      int                          `json:"max_players" gorm:"not null"`
	CardPrice       decimal.Decimal              `json:"card_price" gorm:"type:numeric(20,2);not null"`
	TotalPrize      decimal.Decimal              `json:"total_prize" gorm:"type:numeric(20,2);not null"`
	Status          GameStatus                   `json:"status" gorm:"type:varchar(16);not null;index"`
	WinningPatterns datatypes.JSONSlice[Pattern] `json:"winning_patterns" gorm:"type:jsonb"`
	ScheduledAt     *time.Time                   `json:"scheduled_at,omitempty"`
	StartedAt       *time.Time                   `json:"started_at,omitempty"`
	EndedAt         *time.Time                   `json:"ended_at,omitempty"`
	BallsDrawn      datatypes.JSONSlice[int]     `json:"balls_drawn" gorm:"type:jsonb"`
	CurrentBall     int                          `json:"current_ball" gorm:"not null;default:0"`
	WinningCardIDs  datatypes.JSONSlice[int64]   `json:"winning_card_ids" gorm:"type:jsonb"`
	CreatedBy       int64                        `json:"created_by" gorm:"type:bigint"`
	CreatedAt       time.Time                    `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time                    `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for Game
func (Game) TableName() string {
	return "games"
}

// Patterns returns the configured winning patterns, defaulting to all of them
func (g *Game) Patterns() []Pattern {
	if len(g.WinningPatterns) == 0 {
		return AllPatterns
	}
	return []Pattern(g.WinningPatterns)
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	cp := *g
	cp.WinningPatterns = append(datatypes.JSONSlice[Pattern](nil), g.WinningPatterns...)
	cp.BallsDrawn = append(datatypes.JSONSlice[int](nil), g.BallsDrawn...)
	cp.WinningCardIDs = append(datatypes.JSONSlice[int64](nil), g.WinningCardIDs...)
	return &cp
}

// GameParticipant tracks a user's stake in a game
type GameParticipant struct {
	ID         int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int64           `json:"user_id" gorm:"not null;uniqueIndex:idx_participants_user_game"`
	GameID     int64           `json:"game_id" gorm:"not null;uniqueIndex:idx_participants_user_game;index"`
	CardsCount int             `json:"cards_count" gorm:"not null;default:0"`
	TotalSpent decimal.Decimal `json:"total_spent" gorm:"type:numeric(20,2);not null"`
	HasWon     bool            `json:"has_won" gorm:"not null;default:false"`
	PrizeWon   decimal.Decimal `json:"prize_won" gorm:"type:numeric(20,2);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for GameParticipant
func (GameParticipant) TableName() string {
	return "game_participants"
}

// Winner is one card that completed at least one configured pattern
type Winner struct {
	CardID   int64     `json:"card_id"`
	UserID   int64     `json:"user_id"`
	Patterns []Pattern `json:"patterns"`
}

// PaidWinner is a winner after settlement
type PaidWinner struct {
	Winner
	Pattern     Pattern         `json:"pattern"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
	NewBalance  decimal.Decimal `json:"new_balance"`
}

// WithheldPrize is a winner whose payout was refused by the ledger. The card
// keeps its win and an admin settles it by hand.
type WithheldPrize struct {
	Winner
	Pattern     Pattern         `json:"pattern"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
	Reason      ErrorKind       `json:"reason"`
}

// DrawResult is the outcome of a single ball draw
type DrawResult struct {
	GameID     int64           `json:"game_id"`
	Ball       int             `json:"ball"`
	BallsDrawn []int           `json:"balls_drawn"`
	Winners    []PaidWinner    `json:"winners"`
	Withheld   []WithheldPrize `json:"withheld,omitempty"`
	Remaining  int             `json:"remaining"`
}

// CreateGameCommand carries the admin input for a new game
type CreateGameCommand struct {
	Title           string
	MaxPlayers      int
	CardPrice       decimal.Decimal
	TotalPrize      decimal.Decimal
	WinningPatterns []Pattern
	ScheduledAt     *time.Time
	AdminID         int64
}

// CardProgress is the informational closest-pattern view of a card
type CardProgress struct {
	CardID         int64   `json:"card_id"`
	CardNumber     int     `json:"card_number"`
	ClosestPattern Pattern `json:"closest_pattern"`
	Progress       float64 `json:"progress"`
	IsWinner       bool    `json:"is_winner"`
	WinningPattern Pattern `json:"winning_pattern,omitempty"`
	MarkedNumbers  []int   `json:"marked_numbers"`
}

// GameRepository defines the interface for game persistence
type GameRepository interface {
	Create(game *Game) error
	GetByID(id int64) (*Game, error)
	GetByIDForUpdate(id int64) (*Game, error)
	Update(game *Game) error
	List(statuses []GameStatus, limit, offset int) ([]*Game, error)
}

// ParticipantRepository defines the interface for participant persistence
type ParticipantRepository interface {
	Get(userID, gameID int64) (*GameParticipant, error)
	Create(participant *GameParticipant) error
	Update(participant *GameParticipant) error
	CountByGame(gameID int64) (int, error)
}

// GameUseCase defines the interface for the game engine
type GameUseCase interface {
	CreateGame(ctx context.Context, cmd CreateGameCommand) (*Game, error)
	Open(ctx context.Context, gameID int64) (*Game, error)
	Start(ctx context.Context, gameID int64) (*Game, error)
	DrawBall(ctx context.Context, gameID int64) (*DrawResult, error)
	End(ctx context.Context, gameID int64) (*Game, error)
	GetGame(ctx context.Context, gameID int64) (*Game, error)
	ListGames(ctx context.Context, statuses []GameStatus, limit, offset int) ([]*Game, error)
	CardProgress(ctx context.Context, userID, gameID int64) ([]CardProgress, error)
}
