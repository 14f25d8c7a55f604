package funding

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/memstore"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fixture struct {
	store       *memstore.Store
	clock       *clock
	ledger      *ledger.LedgerUseCase
	deposits    *DepositUseCase
	withdrawals *WithdrawalUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()
	clk := &clock{now: time.Now()}
	led := ledger.NewLedgerUseCase(store, ledger.Config{}, log)
	cfg := Config{
		DepositTTL:     24 * time.Hour,
		MinDeposit:     dec("10"),
		MaxDeposit:     dec("5000"),
		MinWithdrawal:  dec("20"),
		CommissionRate: dec("0.02"),
		MinCommission:  dec("1"),
		Now:            clk.Now,
	}
	return &fixture{
		store:       store,
		clock:       clk,
		ledger:      led,
		deposits:    NewDepositUseCase(store, led, cfg, log),
		withdrawals: NewWithdrawalUseCase(store, led, cfg, log),
	}
}

func (f *fixture) wallet(t *testing.T, w *domain.Wallet) {
	t.Helper()
	w.IsActive = true
	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		return tx.Wallets().Create(w)
	}))
}

func (f *fixture) balance(t *testing.T, userID int64) decimal.Decimal {
	t.Helper()
	w, err := f.ledger.GetWallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) audits(t *testing.T, entityType string, id int64) []*domain.AdminAuditLog {
	t.Helper()
	var logs []*domain.AdminAuditLog
	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		var err error
		logs, err = tx.AuditLogs().ListByEntity(entityType, id)
		return err
	}))
	return logs
}

func (f *fixture) statusEvents(t *testing.T, eventType string) []string {
	t.Helper()
	var out []string
	require.NoError(t, f.store.Atomic(context.Background(), func(tx domain.Tx) error {
		events, err := tx.Outbox().GetPendingEvents(1000)
		for _, e := range events {
			if e.Type == eventType {
				out = append(out, e.Data["status"].(string))
			}
		}
		return err
	}))
	return out
}

func bank() domain.BankDetails {
	return domain.BankDetails{
		BankCode:          "BCP",
		AccountNumber:     "19100000000001",
		AccountType:       domain.AccountTypeSavings,
		AccountHolderName: "Ana Quispe",
		AccountHolderDni:  "45678912",
	}
}

func TestDeposit_ApproveCreditsWallet(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1, Balance: dec("5")})

	req, err := f.deposits.Create(context.Background(), 1, dec("100"), domain.PaymentMethodYape, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.True(t, strings.HasPrefix(req.ReferenceCode, "DEP-"))
	assert.True(t, dec("100").Equal(req.PearlsAmount))
	assert.True(t, req.ExpiresAt.Equal(f.clock.now.Add(24*time.Hour)))

	approved, err := f.deposits.Approve(context.Background(), req.ID, 99, "OP-5521", "matched")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	assert.Equal(t, "OP-5521", approved.BankReference)
	require.NotNil(t, approved.ValidatedBy)
	assert.Equal(t, int64(99), *approved.ValidatedBy)
	require.NotNil(t, approved.TransactionID)
	assert.True(t, dec("105").Equal(f.balance(t, 1)))

	logs := f.audits(t, "deposit", req.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionDepositApprove, logs[0].Action)
	assert.Equal(t, []string{"PENDING", "APPROVED"}, f.statusEvents(t, domain.EventTypeDepositStatusUpdated))

	t.Run("second approval is already processed", func(t *testing.T) {
		_, err := f.deposits.Approve(context.Background(), req.ID, 99, "OP-5521", "")
		assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
		assert.True(t, dec("105").Equal(f.balance(t, 1)))
	})

	t.Run("reject after approval is already processed", func(t *testing.T) {
		_, err := f.deposits.Reject(context.Background(), req.ID, 99, "late")
		assert.Equal(t, domain.KindAlreadyProcessed, domain.KindOf(err))
	})
}

func TestDeposit_ExpiryIsDerived(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1})
	t0 := f.clock.now

	req, err := f.deposits.Create(context.Background(), 1, dec("50"), domain.PaymentMethodBankTransfer, "00219100")
	require.NoError(t, err)

	view, err := f.deposits.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.False(t, view.IsExpired)

	f.clock.now = t0.Add(25 * time.Hour)

	view, err = f.deposits.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.True(t, view.IsExpired)
	assert.Equal(t, domain.RequestStatusPending, view.Status)

	_, err = f.deposits.Approve(context.Background(), req.ID, 99, "OP-1", "")
	assert.ErrorIs(t, err, domain.ErrDepositExpired)
	assert.Equal(t, domain.KindExpired, domain.KindOf(err))
	assert.True(t, f.balance(t, 1).IsZero())

	view, err = f.deposits.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, view.Status)

	rejected, err := f.deposits.Reject(context.Background(), req.ID, 99, "expired")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
}

func TestDeposit_Cancel(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1})
	f.wallet(t, &domain.Wallet{UserID: 2})

	req, err := f.deposits.Create(context.Background(), 1, dec("20"), domain.PaymentMethodPlin, "")
	require.NoError(t, err)

	_, err = f.deposits.Cancel(context.Background(), req.ID, 2)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	cancelled, err := f.deposits.Cancel(context.Background(), req.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCancelled, cancelled.Status)

	_, err = f.deposits.Approve(context.Background(), req.ID, 99, "OP-1", "")
	assert.ErrorIs(t, err, domain.ErrNotPending)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

	_, err = f.deposits.Cancel(context.Background(), req.ID, 1)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestDeposit_CreateValidation(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1})

	tests := []struct {
		name   string
		userID int64
		amount string
		method domain.PaymentMethod
		kind   domain.ErrorKind
	}{
		{"below minimum", 1, "9.99", domain.PaymentMethodYape, domain.KindValidation},
		{"above maximum", 1, "5000.01", domain.PaymentMethodYape, domain.KindValidation},
		{"sub-cent", 1, "10.001", domain.PaymentMethodYape, domain.KindValidation},
		{"unknown method", 1, "10", domain.PaymentMethod("CASH"), domain.KindValidation},
		{"no wallet", 7, "10", domain.PaymentMethodYape, domain.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.deposits.Create(context.Background(), tt.userID, dec(tt.amount), tt.method, "")
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}

	t.Run("bank account too long", func(t *testing.T) {
		_, err := f.deposits.Create(context.Background(), 1, dec("10"), domain.PaymentMethodYape, strings.Repeat("9", domain.MaxReferenceLength+1))
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestDeposit_Listing(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1})

	first, err := f.deposits.Create(context.Background(), 1, dec("10"), domain.PaymentMethodYape, "")
	require.NoError(t, err)
	second, err := f.deposits.Create(context.Background(), 1, dec("20"), domain.PaymentMethodYape, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ReferenceCode, second.ReferenceCode)

	_, err = f.deposits.Reject(context.Background(), first.ID, 99, "no payment found")
	require.NoError(t, err)

	pending, err := f.deposits.ListPending(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	mine, err := f.deposits.ListByUser(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
}

func TestWithdrawal_Commission(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		amount, commission string
	}{
		{"20", "1"},
		{"50", "1"},
		{"100", "2"},
		{"123.45", "2.47"},
	}
	for _, tt := range tests {
		assert.True(t, dec(tt.commission).Equal(f.withdrawals.Commission(dec(tt.amount))), "amount %s", tt.amount)
	}
}

func TestWithdrawal_ReserveAndReject(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1, Balance: dec("150")})

	req, err := f.withdrawals.Create(context.Background(), 1, dec("100"), bank())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.True(t, dec("2").Equal(req.Commission))
	assert.True(t, dec("98").Equal(req.NetAmount))
	require.NotNil(t, req.ReserveTransactionID)
	assert.True(t, dec("50").Equal(f.balance(t, 1)))

	_, err = f.withdrawals.Reject(context.Background(), req.ID, 99, strings.Repeat("x", domain.MaxNoteLength+1))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.True(t, dec("50").Equal(f.balance(t, 1)))

	rejected, err := f.withdrawals.Reject(context.Background(), req.ID, 99, "account closed")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	assert.Equal(t, "account closed", rejected.AdminNotes)
	assert.True(t, dec("150").Equal(f.balance(t, 1)))

	history, err := f.ledger.History(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TransactionTypeWithdrawalRefund, history[0].Type)
	assert.Equal(t, domain.TransactionTypeWithdrawal, history[1].Type)

	_, err = f.withdrawals.Reject(context.Background(), req.ID, 99, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.True(t, dec("150").Equal(f.balance(t, 1)))

	assert.Equal(t, []string{"PENDING", "REJECTED"}, f.statusEvents(t, domain.EventTypeWithdrawalStatusUpdated))
}

func TestWithdrawal_ApproveThenComplete(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1, Balance: dec("100")})

	req, err := f.withdrawals.Create(context.Background(), 1, dec("40"), bank())
	require.NoError(t, err)

	_, err = f.withdrawals.Complete(context.Background(), req.ID, 99, "TRX-1")
	assert.ErrorIs(t, err, domain.ErrNotApproved)

	approved, err := f.withdrawals.Approve(context.Background(), req.ID, 99, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	assert.True(t, dec("60").Equal(f.balance(t, 1)))

	_, err = f.withdrawals.Approve(context.Background(), req.ID, 99, "ok")
	assert.Equal(t, domain.KindAlreadyProcessed, domain.KindOf(err))

	_, err = f.withdrawals.Complete(context.Background(), req.ID, 99, " ")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.withdrawals.Complete(context.Background(), req.ID, 99, strings.Repeat("T", domain.MaxReferenceLength+1))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	completed, err := f.withdrawals.Complete(context.Background(), req.ID, 99, "TRX-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusCompleted, completed.Status)
	assert.Equal(t, "TRX-1", completed.BankReference)
	require.NotNil(t, completed.ProcessedAt)
	assert.True(t, dec("60").Equal(f.balance(t, 1)))

	_, err = f.withdrawals.Complete(context.Background(), req.ID, 99, "TRX-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	logs := f.audits(t, "withdrawal", req.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AuditActionWithdrawalApprove, logs[0].Action)
	assert.Equal(t, domain.AuditActionWithdrawalComplete, logs[1].Action)
}

func TestWithdrawal_CreateRejections(t *testing.T) {
	tests := []struct {
		name   string
		wallet *domain.Wallet
		amount string
		bank   func(*domain.BankDetails)
		kind   domain.ErrorKind
	}{
		{"below minimum", &domain.Wallet{UserID: 1, Balance: dec("100")}, "19.99", nil, domain.KindValidation},
		{"insufficient funds", &domain.Wallet{UserID: 1, Balance: dec("30")}, "40", nil, domain.KindInsufficientFunds},
		{"frozen wallet", &domain.Wallet{UserID: 1, Balance: dec("100"), IsFrozen: true}, "40", nil, domain.KindWalletFrozen},
		{"missing wallet", nil, "40", nil, domain.KindNotFound},
		{"missing holder", &domain.Wallet{UserID: 1, Balance: dec("100")}, "40", func(b *domain.BankDetails) { b.AccountHolderName = "" }, domain.KindValidation},
		{"account number too long", &domain.Wallet{UserID: 1, Balance: dec("100")}, "40", func(b *domain.BankDetails) { b.AccountNumber = strings.Repeat("1", domain.MaxAccountLength+1) }, domain.KindValidation},
		{"dni too long", &domain.Wallet{UserID: 1, Balance: dec("100")}, "40", func(b *domain.BankDetails) { b.AccountHolderDni = strings.Repeat("4", domain.MaxDniLength+1) }, domain.KindValidation},
		{"bad account type", &domain.Wallet{UserID: 1, Balance: dec("100")}, "40", func(b *domain.BankDetails) { b.AccountType = "CRYPTO" }, domain.KindValidation},
		{"daily limit", &domain.Wallet{UserID: 1, Balance: dec("100"), DailyLimit: dec("30")}, "40", nil, domain.KindValidation},
		{"monthly limit", &domain.Wallet{UserID: 1, Balance: dec("100"), MonthlyLimit: dec("39.99")}, "40", nil, domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.wallet != nil {
				f.wallet(t, tt.wallet)
			}
			details := bank()
			if tt.bank != nil {
				tt.bank(&details)
			}

			_, err := f.withdrawals.Create(context.Background(), 1, dec(tt.amount), details)
			assert.Equal(t, tt.kind, domain.KindOf(err))

			if tt.wallet != nil {
				assert.True(t, tt.wallet.Balance.Equal(f.balance(t, 1)))
			}
			pending, err := f.withdrawals.ListPending(context.Background(), 10, 0)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestWithdrawal_NetMustBePositive(t *testing.T) {
	f := newFixture(t)
	f.withdrawals.cfg.MinWithdrawal = decimal.Zero
	f.wallet(t, &domain.Wallet{UserID: 1, Balance: dec("100")})

	_, err := f.withdrawals.Create(context.Background(), 1, dec("1"), bank())
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.True(t, dec("100").Equal(f.balance(t, 1)))
}

func TestWithdrawal_DailyLimitCountsRefunds(t *testing.T) {
	f := newFixture(t)
	f.wallet(t, &domain.Wallet{UserID: 1, Balance: dec("200"), DailyLimit: dec("60")})

	first, err := f.withdrawals.Create(context.Background(), 1, dec("50"), bank())
	require.NoError(t, err)

	_, err = f.withdrawals.Create(context.Background(), 1, dec("20"), bank())
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)

	_, err = f.withdrawals.Reject(context.Background(), first.ID, 99, "typo in account")
	require.NoError(t, err)

	_, err = f.withdrawals.Create(context.Background(), 1, dec("60"), bank())
	assert.NoError(t, err)
}
