package app

import (
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/http/handlers"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/realtime"
)

func (a *application) InitGameHandler(games domain.GameUseCase, settlement domain.SettlementUseCase, log *logger.Logger) *handlers.GameHandler {
	return handlers.NewGameHandler(games, settlement, log)
}

func (a *application) InitWalletHandler(ledger domain.LedgerUseCase) *handlers.WalletHandler {
	return handlers.NewWalletHandler(ledger)
}

func (a *application) InitFundingHandler(deposits domain.DepositUseCase, withdrawals domain.WithdrawalUseCase) *handlers.FundingHandler {
	return handlers.NewFundingHandler(deposits, withdrawals)
}

func (a *application) InitWSHandler(hub *realtime.Hub, log *logger.Logger) *handlers.WSHandler {
	return handlers.NewWSHandler(hub, a.config.Server.AllowedOrigins, log.Named("ws"))
}
