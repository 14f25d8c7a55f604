package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
	"github.com/perlasbingo/settlement/internal/infrastructure/database"
	"github.com/perlasbingo/settlement/internal/infrastructure/lock"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/repository"
	"github.com/perlasbingo/settlement/internal/infrastructure/seeder"
	"github.com/perlasbingo/settlement/internal/usecase/game"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/perlasbingo/settlement/internal/usecase/settlement"
)

const adminID = int64(1)

func main() {
	var (
		configPath = flag.String("config", "./config", "Path to config directory")
		env        = flag.String("env", "development", "Environment")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath, *env)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	l := logger.NewLogger(*env, cfg.Log.Level)
	defer func() { _ = l.Sync() }()

	db, err := database.NewDatabase(&database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db.GetDB())
	ledgerUC := ledger.NewLedgerUseCase(store, ledger.Config{}, l)
	settlementUC := settlement.NewSettlementUseCase(store, ledgerUC, bingo.NewGenerator(nil), settlement.Config{}, l)
	gameUC := game.NewGameUseCase(store, lock.NewKeyedMutex(cfg.Game.DrawLockTimeout, l), bingo.NewRandomPicker(nil), settlementUC, game.Config{}, l)
	s := seeder.NewSeeder(ledgerUC, gameUC, l)

	ctx := context.Background()
	log.Println("Starting database seeding...")
	if err := s.SeedWallets(ctx, seeder.DefaultPlayers); err != nil {
		log.Fatalf("Failed to seed wallets: %v", err)
	}
	g, err := s.SeedGame(ctx, adminID)
	if err != nil {
		log.Fatalf("Failed to seed game: %v", err)
	}
	log.Println("Database seeding completed successfully")

	jwtService := auth.NewJWTService(&cfg.JWT)
	printToken(jwtService, adminID, auth.RoleAdmin)
	for _, p := range seeder.DefaultPlayers {
		printToken(jwtService, p.UserID, auth.RolePlayer)
	}
	fmt.Printf("demo game id: %d\n", g.ID)
}

func printToken(jwtService auth.JWTService, userID int64, role string) {
	token, err := jwtService.GenerateToken(userID, role)
	if err != nil {
		log.Fatalf("Failed to sign token for %d: %v", userID, err)
	}
	fmt.Printf("%-6s %-5d %s\n", role, userID, token)
}
