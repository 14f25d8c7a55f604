// Package main Perlas Bingo settlement API
//
// Runs bingo games and keeps the Perlas ledger behind them: card purchases,
// ball draws with automatic prize payouts, wallet transfers and the manual
// deposit and withdrawal approval workflow.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	Security:
//	- bearer
package main

import (
	"context"

	_ "github.com/perlasbingo/settlement/docs"
	"github.com/perlasbingo/settlement/internal/app"
)

// @title Perlas Bingo Settlement API
// @version 1.0
// @description Game engine and Perlas ledger for online bingo.

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	ctx := context.Background()
	application := app.NewApplication(ctx)
	application.Setup()
}
