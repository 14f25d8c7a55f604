package funding

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
)

// Config holds the funding rules. Zero bounds are not enforced.
type Config struct {
	DepositTTL     time.Duration
	MinDeposit     decimal.Decimal
	MaxDeposit     decimal.Decimal
	MinWithdrawal  decimal.Decimal
	CommissionRate decimal.Decimal
	MinCommission  decimal.Decimal
	// Now defaults to time.Now
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.DepositTTL <= 0 {
		c.DepositTTL = 24 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// referenceCode returns a short unique code such as DEP-3F9A1C0B7E42
func referenceCode(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(raw[:12]))
}

// requirePending checks that an admin or owner may still act on a request
func requirePending(kind string, id int64, status domain.RequestStatus) error {
	switch status {
	case domain.RequestStatusPending:
		return nil
	case domain.RequestStatusApproved, domain.RequestStatusRejected, domain.RequestStatusCompleted:
		return domain.Wrap(domain.ErrAlreadyProcessed, fmt.Sprintf("%s %d is %s", kind, id, status))
	default:
		return domain.Wrap(domain.ErrNotPending, fmt.Sprintf("%s %d is %s", kind, id, status))
	}
}

// activeWallet checks the user can hold Perlas before a request is filed
func activeWallet(tx domain.Tx, userID int64) (*domain.Wallet, error) {
	w, err := tx.Wallets().GetByUserID(userID)
	if err != nil {
		return nil, domain.NewDatabaseError("get wallet", err)
	}
	if w == nil {
		return nil, domain.Wrap(domain.ErrWalletNotFound, fmt.Sprintf("user %d", userID))
	}
	if !w.IsActive {
		return nil, domain.Wrap(domain.ErrWalletInactive, fmt.Sprintf("user %d", userID))
	}
	return w, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
