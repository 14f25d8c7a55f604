package app

import (
	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/usecase/funding"
	"github.com/perlasbingo/settlement/internal/usecase/game"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/perlasbingo/settlement/internal/usecase/settlement"
	"github.com/shopspring/decimal"
)

func (a *application) InitLedgerUseCase(store domain.Store, log *logger.Logger) (domain.LedgerUseCase, error) {
	f := a.config.Funding
	daily, err := config.Decimal("funding.defaultDailyLimit", f.DefaultDailyLimit)
	if err != nil {
		return nil, err
	}
	monthly, err := config.Decimal("funding.defaultMonthlyLimit", f.DefaultMonthlyLimit)
	if err != nil {
		return nil, err
	}
	return ledger.NewLedgerUseCase(store, ledger.Config{
		DefaultDailyLimit:   daily,
		DefaultMonthlyLimit: monthly,
	}, log.Named("ledger")), nil
}

func (a *application) InitSettlementUseCase(
	store domain.Store,
	ledgerUC domain.LedgerUseCase,
	log *logger.Logger,
) domain.SettlementUseCase {
	return settlement.NewSettlementUseCase(
		store,
		ledgerUC,
		bingo.NewGenerator(bingo.DefaultSource()),
		settlement.Config{MaxCardsPerUser: a.config.Game.MaxCardsPerUser},
		log.Named("settlement"),
	)
}

func (a *application) InitGameUseCase(
	store domain.Store,
	locker domain.Locker,
	settlementUC domain.SettlementUseCase,
	log *logger.Logger,
) domain.GameUseCase {
	return game.NewGameUseCase(
		store,
		locker,
		bingo.NewRandomPicker(bingo.DefaultSource()),
		settlementUC,
		game.Config{DrawLockTimeout: a.config.Game.DrawLockTimeout},
		log.Named("game"),
	)
}

func (a *application) fundingConfig() (funding.Config, error) {
	f := a.config.Funding
	cfg := funding.Config{DepositTTL: f.DepositTTL}
	fields := []struct {
		key   string
		value string
		dst   *decimal.Decimal
	}{
		{"funding.minDeposit", f.MinDeposit, &cfg.MinDeposit},
		{"funding.maxDeposit", f.MaxDeposit, &cfg.MaxDeposit},
		{"funding.minWithdrawal", f.MinWithdrawal, &cfg.MinWithdrawal},
		{"funding.commissionRate", f.CommissionRate, &cfg.CommissionRate},
		{"funding.minCommission", f.MinCommission, &cfg.MinCommission},
	}
	for _, field := range fields {
		d, err := config.Decimal(field.key, field.value)
		if err != nil {
			return cfg, err
		}
		*field.dst = d
	}
	return cfg, nil
}

func (a *application) InitDepositUseCase(store domain.Store, ledgerUC domain.LedgerUseCase, log *logger.Logger) (domain.DepositUseCase, error) {
	cfg, err := a.fundingConfig()
	if err != nil {
		return nil, err
	}
	return funding.NewDepositUseCase(store, ledgerUC, cfg, log.Named("deposits")), nil
}

func (a *application) InitWithdrawalUseCase(store domain.Store, ledgerUC domain.LedgerUseCase, log *logger.Logger) (domain.WithdrawalUseCase, error) {
	cfg, err := a.fundingConfig()
	if err != nil {
		return nil, err
	}
	return funding.NewWithdrawalUseCase(store, ledgerUC, cfg, log.Named("withdrawals")), nil
}
