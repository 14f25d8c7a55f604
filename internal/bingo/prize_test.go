package bingo

import (
	"testing"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculatePrize(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name       string
		totalPrize string
		cardPrice  string
		pattern    domain.Pattern
		want       string
	}{
		{"first row", "250", "5", domain.PatternLineHorizontal1, "25"},
		{"vertical", "250", "5", domain.PatternLineVertical3, "25"},
		{"diagonal", "250", "5", domain.PatternDiagonalMain, "37.5"},
		{"four corners", "250", "5", domain.PatternFourCorners, "50"},
		{"small diamond", "250", "5", domain.PatternDiamondSmall, "62.5"},
		{"big diamond", "250", "5", domain.PatternDiamondBig, "75"},
		{"full card", "250", "5", domain.PatternFullCard, "125"},
		{"unknown pattern pays base", "250", "5", "ZIGZAG", "25"},
		{"price dominates base", "100", "4", domain.PatternLineHorizontal2, "20"},
		{"capped at half the pot", "100", "20", domain.PatternFullCard, "50"},
		{"floored at one", "2", "0.01", domain.PatternLineHorizontal1, "1"},
		{"rounded to cents", "33.33", "0.5", domain.PatternDiagonalAnti, "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePrize(d(tt.totalPrize), d(tt.cardPrice), tt.pattern)
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestCalculatePrize_Bounds(t *testing.T) {
	totals := []string{"2", "3.5", "10", "99.99", "250", "1000", "123456"}
	prices := []string{"0.01", "0.5", "1", "5", "25", "100", "5000"}

	for _, total := range totals {
		for _, price := range prices {
			for _, p := range append(domain.AllPatterns, "UNKNOWN") {
				tp := decimal.RequireFromString(total)
				prize := CalculatePrize(tp, decimal.RequireFromString(price), p)
				assert.True(t, prize.GreaterThanOrEqual(decimal.NewFromInt(1)), "prize %s below 1", prize)
				assert.True(t, prize.LessThanOrEqual(MaxPrize(tp)), "prize %s above cap for total %s", prize, total)
			}
		}
	}
}

func TestMultiplier(t *testing.T) {
	assert.Equal(t, "1", Multiplier(domain.PatternLineHorizontal5).String())
	assert.Equal(t, "1.5", Multiplier(domain.PatternDiagonalAnti).String())
	assert.Equal(t, "5", Multiplier(domain.PatternFullCard).String())
	assert.Equal(t, "1", Multiplier("NOPE").String())
}
