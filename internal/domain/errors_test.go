package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"sentinel", ErrInsufficientFunds, KindInsufficientFunds},
		{"wrapped sentinel", Wrap(ErrWalletNotFound, "user 7"), KindNotFound},
		{"fmt wrapped", fmt.Errorf("purchase: %w", ErrInsufficientFunds), KindInsufficientFunds},
		{"foreign", errors.New("boom"), KindInternal},
		{"database", NewDatabaseError("get wallet", errors.New("conn reset")), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_KeepsKindAndCode(t *testing.T) {
	err := Wrap(ErrInsufficientFunds, "balance 2.00, need 5.00")

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrWalletNotFound))
	assert.Equal(t, "balance 2.00, need 5.00", err.Details)
	assert.Equal(t, ErrInsufficientFunds.Code, err.Code)
}

func TestErrorKind_Text(t *testing.T) {
	for kind := range kindNames {
		text, err := kind.MarshalText()
		require.NoError(t, err)

		var back ErrorKind
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, kind, back)
	}

	var k ErrorKind
	assert.Error(t, k.UnmarshalText([]byte("NOPE")))
	assert.Equal(t, "KIND_99", ErrorKind(99).String())
}

func TestErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponse(Wrap(ErrWalletNotFound, "user 7"))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"NOT_FOUND"`)

	var back ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, KindNotFound, back.Error.Kind)
	assert.False(t, back.Success)
}

func TestDepositRequest_IsExpired(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := &DepositRequest{ExpiresAt: t0.Add(24 * time.Hour)}

	assert.False(t, d.IsExpired(t0))
	assert.False(t, d.IsExpired(t0.Add(24*time.Hour)))
	assert.True(t, d.IsExpired(t0.Add(25*time.Hour)))
}

func TestColumnRanges(t *testing.T) {
	tests := []struct {
		col       Column
		low, high int
	}{
		{ColumnB, 1, 15},
		{ColumnI, 16, 30},
		{ColumnN, 31, 45},
		{ColumnG, 46, 60},
		{ColumnO, 61, 75},
	}
	for _, tt := range tests {
		low, high := tt.col.Range()
		assert.Equal(t, tt.low, low, tt.col)
		assert.Equal(t, tt.high, high, tt.col)
		assert.True(t, tt.col.Contains(tt.low))
		assert.False(t, tt.col.Contains(tt.high+1))
	}
	assert.Equal(t, ColumnN, ColumnAt(12))
}
