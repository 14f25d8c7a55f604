package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perlasbingo/settlement/internal/bingo"
	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/domain"
	apihttp "github.com/perlasbingo/settlement/internal/http"
	"github.com/perlasbingo/settlement/internal/http/handlers"
	"github.com/perlasbingo/settlement/internal/http/middleware"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
	"github.com/perlasbingo/settlement/internal/infrastructure/lock"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/memstore"
	"github.com/perlasbingo/settlement/internal/infrastructure/realtime"
	"github.com/perlasbingo/settlement/internal/usecase/funding"
	"github.com/perlasbingo/settlement/internal/usecase/game"
	"github.com/perlasbingo/settlement/internal/usecase/ledger"
	"github.com/perlasbingo/settlement/internal/usecase/settlement"
)

const (
	playerID = int64(7)
	adminID  = int64(1)
)

type testAPI struct {
	t      *testing.T
	server *apihttp.Server
	player string
	admin  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.NewNop()
	store := memstore.New()

	ledgerUC := ledger.NewLedgerUseCase(store, ledger.Config{}, log)
	settlementUC := settlement.NewSettlementUseCase(store, ledgerUC, bingo.NewGenerator(nil), settlement.Config{}, log)
	gameUC := game.NewGameUseCase(store, lock.NewKeyedMutex(time.Second, log), bingo.NewRandomPicker(nil), settlementUC, game.Config{}, log)
	fundingCfg := funding.Config{
		DepositTTL:     time.Hour,
		MinDeposit:     decimal.NewFromInt(10),
		MaxDeposit:     decimal.NewFromInt(5000),
		MinWithdrawal:  decimal.NewFromInt(20),
		CommissionRate: decimal.RequireFromString("0.02"),
		MinCommission:  decimal.NewFromInt(1),
	}
	deposits := funding.NewDepositUseCase(store, ledgerUC, fundingCfg, log)
	withdrawals := funding.NewWithdrawalUseCase(store, ledgerUC, fundingCfg, log)

	jwtService := auth.NewJWTService(&config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"})
	playerToken, err := jwtService.GenerateToken(playerID, auth.RolePlayer)
	require.NoError(t, err)
	adminToken, err := jwtService.GenerateToken(adminID, auth.RoleAdmin)
	require.NoError(t, err)

	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)

	server := apihttp.NewServer(
		jwtService,
		apihttp.Handlers{
			Games:   handlers.NewGameHandler(gameUC, settlementUC, log),
			Wallet:  handlers.NewWalletHandler(ledgerUC),
			Funding: handlers.NewFundingHandler(deposits, withdrawals),
			WS:      handlers.NewWSHandler(hub, nil, log),
		},
		middleware.NewErrorHandler(log),
		log,
		apihttp.Options{RequestTimeout: 5 * time.Second},
	)
	return &testAPI{t: t, server: server, player: playerToken, admin: adminToken}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Authorization(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/wallet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/admin/deposits/pending", api.player, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/admin/deposits/pending", api.admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MissingWallet(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/api/v1/wallet", api.player, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	resp := decode[domain.ErrorResponse](t, rec)
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.Error.Code)
	assert.False(t, resp.Success)
}

func TestServer_DepositThenBuyCards(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/wallet", api.player, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/v1/deposits", api.player, map[string]interface{}{
		"amount":         "100",
		"payment_method": "YAPE",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dep := decode[domain.DepositRequest](t, rec)

	approve := fmt.Sprintf("/api/v1/admin/deposits/%d/approve", dep.ID)
	rec = api.do(http.MethodPost, approve, api.admin, map[string]string{"bank_reference": "OP-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, approve, api.admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/wallet", api.player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wallet := decode[domain.Wallet](t, rec)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)), wallet.Balance.String())

	rec = api.do(http.MethodPost, "/api/v1/admin/games", api.admin, map[string]interface{}{
		"title":            "Friday",
		"max_players":      10,
		"card_price":       "5",
		"total_prize":      "50",
		"winning_patterns": []string{string(domain.PatternFullCard)},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := decode[domain.Game](t, rec)

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/games/%d/open", g.ID), api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, fmt.Sprintf("/api/v1/games/%d/cards", g.ID), api.player, map[string]int{"count": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[domain.PurchaseResult](t, rec)
	assert.Len(t, result.Cards, 2)
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(90)), result.NewBalance.String())

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/v1/games/%d/cards", g.ID), api.player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.BingoCard](t, rec), 2)

	rec = api.do(http.MethodGet, "/api/v1/wallet/transactions", api.player, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Transaction](t, rec), 2)
}

func TestServer_DepositOwnership(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/wallet", api.admin, nil).Code)

	rec := api.do(http.MethodPost, "/api/v1/deposits", api.admin, map[string]interface{}{
		"amount":         "50",
		"payment_method": "PLIN",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dep := decode[domain.DepositRequest](t, rec)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/v1/deposits/%d", dep.ID), api.player, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_BadInput(t *testing.T) {
	api := newTestAPI(t)
	long := func(n int) string { return strings.Repeat("x", n) }
	bank := map[string]interface{}{
		"pearls_amount":       "50",
		"bank_code":           "BCP",
		"account_number":      "19100000000",
		"account_type":        "SAVINGS",
		"account_holder_name": "Ana Quispe",
		"account_holder_dni":  "44556677",
	}
	withBank := func(field, value string) map[string]interface{} {
		out := map[string]interface{}{}
		for k, v := range bank {
			out[k] = v
		}
		out[field] = value
		return out
	}

	tests := []struct {
		name   string
		method string
		path   string
		admin  bool
		body   interface{}
	}{
		{"non numeric id", http.MethodGet, "/api/v1/games/abc", false, nil},
		{"missing payment method", http.MethodPost, "/api/v1/deposits", false, map[string]interface{}{"amount": "1"}},
		{"long transfer description", http.MethodPost, "/api/v1/wallet/transfer", false,
			map[string]interface{}{"to_user_id": 8, "amount": "1", "description": long(300)}},
		{"long bank account", http.MethodPost, "/api/v1/deposits", false,
			map[string]interface{}{"amount": "100", "payment_method": "YAPE", "bank_account": long(65)}},
		{"long bank code", http.MethodPost, "/api/v1/withdrawals", false, withBank("bank_code", long(17))},
		{"long account number", http.MethodPost, "/api/v1/withdrawals", false, withBank("account_number", long(33))},
		{"long holder dni", http.MethodPost, "/api/v1/withdrawals", false, withBank("account_holder_dni", long(17))},
		{"long game title", http.MethodPost, "/api/v1/admin/games", true,
			map[string]interface{}{"title": long(129), "max_players": 10, "card_price": "5", "total_prize": "250"}},
		{"long rejection notes", http.MethodPost, "/api/v1/admin/withdrawals/1/reject", true,
			map[string]interface{}{"notes": long(201)}},
		{"long bank reference", http.MethodPost, "/api/v1/admin/withdrawals/1/complete", true,
			map[string]interface{}{"bank_reference": long(65)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := api.player
			if tt.admin {
				token = api.admin
			}
			rec := api.do(tt.method, tt.path, token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decode[domain.ErrorResponse](t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, domain.KindValidation, resp.Error.Kind)
		})
	}
}
