package repository

import (
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"gorm.io/gorm"
)

// GameRepository implements domain.GameRepository
type GameRepository struct {
	db *gorm.DB
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *gorm.DB) domain.GameRepository {
	return &GameRepository{db: db}
}

// Create inserts a game
func (r *GameRepository) Create(game *domain.Game) error {
	now := time.Now()
	game.CreatedAt = now
	game.UpdatedAt = now
	return r.db.Create(game).Error
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(id int64) (*domain.Game, error) {
	return first[domain.Game](r.db.Where("id = ?", id))
}

// GetByIDForUpdate retrieves a game by ID and locks its row
func (r *GameRepository) GetByIDForUpdate(id int64) (*domain.Game, error) {
	return first[domain.Game](forUpdate(r.db).Where("id = ?", id))
}

// Update saves every column of the game
func (r *GameRepository) Update(game *domain.Game) error {
	game.UpdatedAt = time.Now()
	return r.db.Save(game).Error
}

// List returns games newest first, filtered by status when statuses is not empty
func (r *GameRepository) List(statuses []domain.GameStatus, limit, offset int) ([]*domain.Game, error) {
	var games []*domain.Game
	query := r.db.Order("created_at DESC, id DESC").Limit(limit).Offset(offset)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// ParticipantRepository implements domain.ParticipantRepository
type ParticipantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) domain.ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Get retrieves the participant row of a user in a game
func (r *ParticipantRepository) Get(userID, gameID int64) (*domain.GameParticipant, error) {
	return first[domain.GameParticipant](r.db.Where("user_id = ? AND game_id = ?", userID, gameID))
}

// Create inserts a participant
func (r *ParticipantRepository) Create(p *domain.GameParticipant) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return r.db.Create(p).Error
}

// Update saves a participant
func (r *ParticipantRepository) Update(p *domain.GameParticipant) error {
	p.UpdatedAt = time.Now()
	return r.db.Save(p).Error
}

// CountByGame counts distinct players of a game
func (r *ParticipantRepository) CountByGame(gameID int64) (int, error) {
	var n int64
	if err := r.db.Model(&domain.GameParticipant{}).Where("game_id = ?", gameID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
