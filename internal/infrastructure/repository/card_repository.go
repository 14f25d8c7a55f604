package repository

import (
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"gorm.io/gorm"
)

// CardRepository implements domain.CardRepository
type CardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *gorm.DB) domain.CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) withCells() *gorm.DB {
	return r.db.Preload("Cells", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// CreateBatch inserts cards together with their cells
func (r *CardRepository) CreateBatch(cards []*domain.BingoCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.Create(&cards).Error
}

// GetByID retrieves a card with its cells
func (r *CardRepository) GetByID(id int64) (*domain.BingoCard, error) {
	return first[domain.BingoCard](r.withCells().Where("id = ?", id))
}

// ListActiveByGame retrieves every active card of a game
func (r *CardRepository) ListActiveByGame(gameID int64) ([]*domain.BingoCard, error) {
	var cards []*domain.BingoCard
	err := r.withCells().
		Where("game_id = ? AND is_active = ?", gameID, true).
		Order("id ASC").
		Find(&cards).Error
	return cards, err
}

// ListByUserAndGame retrieves a user's cards in a game
func (r *CardRepository) ListByUserAndGame(userID, gameID int64) ([]*domain.BingoCard, error) {
	var cards []*domain.BingoCard
	err := r.withCells().
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Order("card_number ASC").
		Find(&cards).Error
	return cards, err
}

// CountByUserAndGame counts a user's cards in a game
func (r *CardRepository) CountByUserAndGame(userID, gameID int64) (int, error) {
	var n int64
	err := r.db.Model(&domain.BingoCard{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&n).Error
	return int(n), err
}

// MaxCardNumber returns the highest card number issued in a game, 0 if none
func (r *CardRepository) MaxCardNumber(gameID int64) (int, error) {
	var max int
	err := r.db.Model(&domain.BingoCard{}).
		Where("game_id = ?", gameID).
		Select("COALESCE(MAX(card_number), 0)").
		Scan(&max).Error
	return max, err
}

// MarkCells marks the given positions and appends the drawn numbers
func (r *CardRepository) MarkCells(cardID int64, positions []int, markedNumbers []int) error {
	if len(positions) > 0 {
		if err := r.db.Model(&domain.CardCell{}).
			Where("card_id = ? AND position IN ?", cardID, positions).
			Update("marked", true).Error; err != nil {
			return err
		}
	}

	var card domain.BingoCard
	if err := r.db.Select("id", "marked_numbers").Where("id = ?", cardID).First(&card).Error; err != nil {
		return err
	}
	card.MarkedNumbers = append(card.MarkedNumbers, markedNumbers...)
	return r.db.Model(&domain.BingoCard{}).
		Where("id = ?", cardID).
		Updates(map[string]interface{}{
			"marked_numbers": card.MarkedNumbers,
			"updated_at":     time.Now(),
		}).Error
}

// SetWinner flags the card as a winner of pattern
func (r *CardRepository) SetWinner(cardID int64, pattern domain.Pattern) error {
	return r.db.Model(&domain.BingoCard{}).
		Where("id = ?", cardID).
		Updates(map[string]interface{}{
			"is_winner":       true,
			"winning_pattern": pattern,
			"updated_at":      time.Now(),
		}).Error
}
