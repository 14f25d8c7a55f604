package bingo

import (
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	prizeShare     = decimal.RequireFromString("0.1")
	priceFactor    = decimal.NewFromInt(5)
	prizeCapShare  = decimal.RequireFromString("0.5")
	minPrize       = decimal.NewFromInt(1)
	multiplierBase = decimal.NewFromInt(1)
)

var multipliers = map[domain.Pattern]decimal.Decimal{
	domain.PatternDiagonalMain: decimal.RequireFromString("1.5"),
	domain.PatternDiagonalAnti: decimal.RequireFromString("1.5"),
	domain.PatternFourCorners:  decimal.RequireFromString("2.0"),
	domain.PatternDiamondSmall: decimal.RequireFromString("2.5"),
	domain.PatternDiamondBig:   decimal.RequireFromString("3.0"),
	domain.PatternFullCard:     decimal.RequireFromString("5.0"),
}

// Multiplier returns the payout factor of p. Lines and unknown patterns pay 1.
func Multiplier(p domain.Pattern) decimal.Decimal {
	if m, ok := multipliers[p]; ok {
		return m
	}
	return multiplierBase
}

// MaxPrize is the upper bound of any single prize in a game, in whole cents
func MaxPrize(totalPrize decimal.Decimal) decimal.Decimal {
	return totalPrize.Mul(prizeCapShare).Truncate(2)
}

// CalculatePrize computes max(total*0.1, price*5) * multiplier, clamped to
// [1, total*0.5] and rounded to cents.
func CalculatePrize(totalPrize, cardPrice decimal.Decimal, p domain.Pattern) decimal.Decimal {
	base := decimal.Max(totalPrize.Mul(prizeShare), cardPrice.Mul(priceFactor))
	prize := base.Mul(Multiplier(p)).Round(2)

	if upper := MaxPrize(totalPrize); prize.GreaterThan(upper) {
		prize = upper
	}
	if prize.LessThan(minPrize) {
		prize = minPrize
	}
	return prize
}
