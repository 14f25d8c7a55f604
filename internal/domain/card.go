package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Card geometry
const (
	CardSize      = 5
	CardCells     = CardSize * CardSize
	FreePosition  = 12
	MaxBall       = 75
	ColumnSpan    = 15
	NumberedCells = CardCells - 1
)

// Column is one of the B/I/N/G/O letters
type Column string

const (
	ColumnB Column = "B"
	ColumnI Column = "I"
	ColumnN Column = "N"
	ColumnG Column = "G"
	ColumnO Column = "O"
)

// Columns lists the letters left to right
var Columns = [CardSize]Column{ColumnB, ColumnI, ColumnN, ColumnG, ColumnO}

// ColumnAt returns the column letter of a row-major position
func ColumnAt(position int) Column {
	return Columns[position%CardSize]
}

// Range returns the inclusive value range of the column
func (c Column) Range() (int, int) {
	for i, col := range Columns {
		if col == c {
			low := i*ColumnSpan + 1
			return low, low + ColumnSpan - 1
		}
	}
	return 0, -1
}

// Contains reports whether v belongs to the column's range
func (c Column) Contains(v int) bool {
	low, high := c.Range()
	return v >= low && v <= high
}

// CellKind tags a cell as numbered or free
type CellKind int

const (
	CellNumbered CellKind = iota
	CellFree
)

// CardCell is one square of a card. Value is only meaningful for numbered cells.
type CardCell struct {
	ID       int64    `json:"-" gorm:"primaryKey;autoIncrement"`
	CardID   int64    `json:"-" gorm:"not null;uniqueIndex:idx_card_cells_card_position"`
	Position int      `json:"position" gorm:"not null;uniqueIndex:idx_card_cells_card_position"`
	Column   Column   `json:"column" gorm:"type:varchar(1);not null"`
	Kind     CellKind `json:"kind" gorm:"type:smallint;not null"`
	Value    int      `json:"value,omitempty" gorm:"not null;default:0"`
	Marked   bool     `json:"marked" gorm:"not null;default:false"`
}

// TableName specifies the table name for CardCell
func (CardCell) TableName() string {
	return "card_cells"
}

// NewFreeCell builds the center cell
func NewFreeCell() CardCell {
	return CardCell{Position: FreePosition, Column: ColumnAt(FreePosition), Kind: CellFree, Marked: true}
}

// NewNumberedCell builds an unmarked numbered cell
func NewNumberedCell(position, value int) CardCell {
	return CardCell{Position: position, Column: ColumnAt(position), Kind: CellNumbered, Value: value}
}

// IsFree reports whether the cell is the free cell
func (c CardCell) IsFree() bool {
	return c.Kind == CellFree
}

// Number returns the cell value and false for the free cell
func (c CardCell) Number() (int, bool) {
	if c.Kind == CellFree {
		return 0, false
	}
	return c.Value, true
}

// IsMarked treats the free cell as always marked
func (c CardCell) IsMarked() bool {
	return c.Kind == CellFree || c.Marked
}

// BingoCard is a purchased 5x5 card
type BingoCard struct {
	ID             int64                    `json:"id" gorm:"primaryKey;autoIncrement"`
	GameID         int64                    `json:"game_id" gorm:"not null;index;uniqueIndex:idx_bingo_cards_game_number"`
	UserID         int64                    `json:"user_id" gorm:"not null;index"`
	CardNumber     int                      `json:"card_number" gorm:"not null;uniqueIndex:idx_bingo_cards_game_number"`
	IsActive       bool                     `json:"is_active" gorm:"not null;default:true"`
	IsWinner       bool                     `json:"is_winner" gorm:"not null;default:false"`
	WinningPattern Pattern                  `json:"winning_pattern,omitempty" gorm:"type:varchar(32)"`
	MarkedNumbers  datatypes.JSONSlice[int] `json:"marked_numbers" gorm:"type:jsonb"`
	Cells          []CardCell               `json:"cells" gorm:"foreignKey:CardID"`
	CreatedAt      time.Time                `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time                `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for BingoCard
func (BingoCard) TableName() string {
	return "bingo_cards"
}

// MarkedPositions returns a 25-slot view of the card's marks
func (c *BingoCard) MarkedPositions() [CardCells]bool {
	var marks [CardCells]bool
	for _, cell := range c.Cells {
		if cell.Position >= 0 && cell.Position < CardCells {
			marks[cell.Position] = cell.IsMarked()
		}
	}
	return marks
}

// Clone returns a deep copy of the card
func (c *BingoCard) Clone() *BingoCard {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Cells = append([]CardCell(nil), c.Cells...)
	cp.MarkedNumbers = append(datatypes.JSONSlice[int](nil), c.MarkedNumbers...)
	return &cp
}

// CardRepository defines the interface for card persistence
type CardRepository interface {
	CreateBatch(cards []*BingoCard) error
	GetByID(id int64) (*BingoCard, error)
	ListActiveByGame(gameID int64) ([]*BingoCard, error)
	ListByUserAndGame(userID, gameID int64) ([]*BingoCard, error)
	CountByUserAndGame(userID, gameID int64) (int, error)
	MaxCardNumber(gameID int64) (int, error)
	MarkCells(cardID int64, positions []int, markedNumbers []int) error
	SetWinner(cardID int64, pattern Pattern) error
}
