package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GameHandler serves games, cards and the admin game controls
type GameHandler struct {
	games      domain.GameUseCase
	settlement domain.SettlementUseCase
	logger     *logger.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(games domain.GameUseCase, settlement domain.SettlementUseCase, logger *logger.Logger) *GameHandler {
	return &GameHandler{
		games:      games,
		settlement: settlement,
		logger:     logger,
	}
}

// CreateGameRequest represents the create game request body
type CreateGameRequest struct {
	Title           string           `json:"title" binding:"required,max=128" example:"Friday night bingo"`
	MaxPlayers      int              `json:"max_players" binding:"required,gt=0" example:"50"`
	CardPrice       decimal.Decimal  `json:"card_price" swaggertype:"string" example:"5"`
	TotalPrize      decimal.Decimal  `json:"total_prize" swaggertype:"string" example:"250"`
	WinningPatterns []domain.Pattern `json:"winning_patterns" example:"LINE_HORIZONTAL_1,FULL_CARD"`
	ScheduledAt     *time.Time       `json:"scheduled_at,omitempty"`
}

// PurchaseCardsRequest represents the purchase request body
type PurchaseCardsRequest struct {
	Count int `json:"count" binding:"required" example:"2"`
}

// AwardPrizeRequest represents a manual prize award
type AwardPrizeRequest struct {
	UserID  int64           `json:"user_id" binding:"required,gt=0" example:"12"`
	Amount  decimal.Decimal `json:"amount" swaggertype:"string" example:"25"`
	Pattern domain.Pattern  `json:"pattern" binding:"required" example:"LINE_HORIZONTAL_1"`
}

// ListGames handles listing games
// @Summary List games
// @Description List games newest first, optionally filtered by a comma separated status list
// @Tags games
// @Produce json
// @Security BearerAuth
// @Param status query string false "e.g. OPEN,IN_PROGRESS"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {array} domain.Game
// @Failure 401 {object} domain.ErrorResponse
// @Router /games [get]
func (h *GameHandler) ListGames(c *gin.Context) {
	var statuses []domain.GameStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.GameStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}
	limit, offset := page(c)

	games, err := h.games.ListGames(c.Request.Context(), statuses, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// GetGame handles fetching one game
// @Summary Get game
// @Tags games
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {object} domain.Game
// @Failure 404 {object} domain.ErrorResponse
// @Router /games/{id} [get]
func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := h.games.GetGame(c.Request.Context(), gameID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// PurchaseCards handles buying cards
// @Summary Purchase cards
// @Description Debit the card price and issue 1 to 3 unique cards in one atomic step
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Param request body PurchaseCardsRequest true "Number of cards"
// @Success 201 {object} domain.PurchaseResult
// @Failure 400 {object} domain.ErrorResponse
// @Failure 402 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /games/{id}/cards [post]
func (h *GameHandler) PurchaseCards(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PurchaseCardsRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.settlement.PurchaseCards(c.Request.Context(), userID, gameID, req.Count)
	if err != nil {
		h.logger.Debug("Purchase rejected", zap.Int64("userID", userID), zap.Int64("gameID", gameID), zap.Error(err))
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// MyCards handles listing the caller's cards
// @Summary My cards
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {array} domain.BingoCard
// @Router /games/{id}/cards [get]
func (h *GameHandler) MyCards(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cards, err := h.settlement.ListCards(c.Request.Context(), userID, gameID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// Progress handles the closest-pattern view of the caller's cards
// @Summary Card progress
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {array} domain.CardProgress
// @Router /games/{id}/progress [get]
func (h *GameHandler) Progress(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	progress, err := h.games.CardProgress(c.Request.Context(), userID, gameID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// CreateGame handles game creation
// @Summary Create game
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGameRequest true "Game definition"
// @Success 201 {object} domain.Game
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /admin/games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	adminID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	var req CreateGameRequest
	if !bind(c, &req) {
		return
	}

	game, err := h.games.CreateGame(c.Request.Context(), domain.CreateGameCommand{
		Title:           req.Title,
		MaxPlayers:      req.MaxPlayers,
		CardPrice:       req.CardPrice,
		TotalPrize:      req.TotalPrize,
		WinningPatterns: req.WinningPatterns,
		ScheduledAt:     req.ScheduledAt,
		AdminID:         adminID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

// OpenGame handles SCHEDULED to OPEN
// @Summary Open game
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {object} domain.Game
// @Failure 409 {object} domain.ErrorResponse
// @Router /admin/games/{id}/open [post]
func (h *GameHandler) OpenGame(c *gin.Context) {
	h.transition(c, h.games.Open)
}

// StartGame handles the move to IN_PROGRESS
// @Summary Start game
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {object} domain.Game
// @Failure 409 {object} domain.ErrorResponse
// @Router /admin/games/{id}/start [post]
func (h *GameHandler) StartGame(c *gin.Context) {
	h.transition(c, h.games.Start)
}

// EndGame handles the move to COMPLETED
// @Summary End game
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {object} domain.Game
// @Router /admin/games/{id}/end [post]
func (h *GameHandler) EndGame(c *gin.Context) {
	h.transition(c, h.games.End)
}

func (h *GameHandler) transition(c *gin.Context, fn func(ctx context.Context, gameID int64) (*domain.Game, error)) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := fn(c.Request.Context(), gameID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// DrawBall handles drawing the next ball
// @Summary Draw ball
// @Description Draw one ball, mark every active card and pay the new winners atomically
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Success 200 {object} domain.DrawResult
// @Failure 409 {object} domain.ErrorResponse
// @Router /admin/games/{id}/draw [post]
func (h *GameHandler) DrawBall(c *gin.Context) {
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.games.DrawBall(c.Request.Context(), gameID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AwardPrize handles a manual prize payment
// @Summary Award prize
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Game ID"
// @Param request body AwardPrizeRequest true "Prize"
// @Success 200 {object} domain.PaidWinner
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /admin/games/{id}/prizes [post]
func (h *GameHandler) AwardPrize(c *gin.Context) {
	adminID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	gameID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AwardPrizeRequest
	if !bind(c, &req) {
		return
	}

	paid, err := h.settlement.AwardPrize(c.Request.Context(), adminID, req.UserID, gameID, req.Amount, req.Pattern)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, paid)
}
