package bingo

import (
	"github.com/perlasbingo/settlement/internal/domain"
)

var patternPositions = buildPatternPositions()

func buildPatternPositions() map[domain.Pattern][]int {
	rows := []domain.Pattern{
		domain.PatternLineHorizontal1, domain.PatternLineHorizontal2, domain.PatternLineHorizontal3,
		domain.PatternLineHorizontal4, domain.PatternLineHorizontal5,
	}
	cols := []domain.Pattern{
		domain.PatternLineVertical1, domain.PatternLineVertical2, domain.PatternLineVertical3,
		domain.PatternLineVertical4, domain.PatternLineVertical5,
	}

	m := make(map[domain.Pattern][]int, len(domain.AllPatterns))
	for i := 0; i < domain.CardSize; i++ {
		row := make([]int, 0, domain.CardSize)
		col := make([]int, 0, domain.CardSize)
		for j := 0; j < domain.CardSize; j++ {
			row = append(row, i*domain.CardSize+j)
			col = append(col, j*domain.CardSize+i)
		}
		m[rows[i]] = row
		m[cols[i]] = col
	}

	m[domain.PatternDiagonalMain] = []int{0, 6, 12, 18, 24}
	m[domain.PatternDiagonalAnti] = []int{4, 8, 12, 16, 20}
	m[domain.PatternFourCorners] = []int{0, 4, 20, 24}
	m[domain.PatternDiamondSmall] = []int{7, 11, 12, 13, 17}
	m[domain.PatternDiamondBig] = []int{2, 6, 8, 10, 14, 16, 18, 22}

	full := make([]int, domain.CardCells)
	for i := range full {
		full[i] = i
	}
	m[domain.PatternFullCard] = full
	return m
}

// Positions returns the card positions that make up p
func Positions(p domain.Pattern) ([]int, bool) {
	pos, ok := patternPositions[p]
	if !ok {
		return nil, false
	}
	return append([]int(nil), pos...), true
}

// IsComplete reports whether every position of p is marked on card
func IsComplete(card *domain.BingoCard, p domain.Pattern) bool {
	return isComplete(card.MarkedPositions(), p)
}

func isComplete(marks [domain.CardCells]bool, p domain.Pattern) bool {
	pos, ok := patternPositions[p]
	if !ok {
		return false
	}
	for _, i := range pos {
		if !marks[i] {
			return false
		}
	}
	return true
}

// Progress is the marked share of p's positions, in [0,1]
func Progress(card *domain.BingoCard, p domain.Pattern) float64 {
	return progress(card.MarkedPositions(), p)
}

func progress(marks [domain.CardCells]bool, p domain.Pattern) float64 {
	pos, ok := patternPositions[p]
	if !ok || len(pos) == 0 {
		return 0
	}
	hit := 0
	for _, i := range pos {
		if marks[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(pos))
}

// ClosestPattern returns the incomplete pattern with the highest progress.
// ok is false when every pattern is already complete.
func ClosestPattern(card *domain.BingoCard, patterns []domain.Pattern) (best domain.Pattern, score float64, ok bool) {
	marks := card.MarkedPositions()
	score = -1
	for _, p := range patterns {
		pr := progress(marks, p)
		if pr >= 1 {
			continue
		}
		if pr > score {
			best, score, ok = p, pr, true
		}
	}
	if !ok {
		score = 0
	}
	return best, score, ok
}

// CompletedPatterns lists the patterns of the configured set that card completes
func CompletedPatterns(card *domain.BingoCard, patterns []domain.Pattern) []domain.Pattern {
	marks := card.MarkedPositions()
	var done []domain.Pattern
	for _, p := range patterns {
		if isComplete(marks, p) {
			done = append(done, p)
		}
	}
	return done
}

// CheckForWinners returns every active card that completes at least one of
// the configured patterns. Ties are not resolved; all winners are reported.
func CheckForWinners(cards []*domain.BingoCard, patterns []domain.Pattern) []domain.Winner {
	var winners []domain.Winner
	for _, card := range cards {
		if card == nil || !card.IsActive {
			continue
		}
		done := CompletedPatterns(card, patterns)
		if len(done) == 0 {
			continue
		}
		winners = append(winners, domain.Winner{CardID: card.ID, UserID: card.UserID, Patterns: done})
	}
	return winners
}

// PartitionWinners splits winners into full-card winners and the rest
func PartitionWinners(winners []domain.Winner) (lines, fullCard []domain.Winner) {
	for _, w := range winners {
		if hasPattern(w.Patterns, domain.PatternFullCard) {
			fullCard = append(fullCard, w)
		} else {
			lines = append(lines, w)
		}
	}
	return lines, fullCard
}

// LineWinners returns the winners that did not complete the full card
func LineWinners(winners []domain.Winner) []domain.Winner {
	lines, _ := PartitionWinners(winners)
	return lines
}

// FullCardWinners returns the winners that completed the full card
func FullCardWinners(winners []domain.Winner) []domain.Winner {
	_, full := PartitionWinners(winners)
	return full
}

// BestPattern picks the highest-paying pattern; earlier patterns win ties
func BestPattern(patterns []domain.Pattern) domain.Pattern {
	var best domain.Pattern
	for i, p := range patterns {
		if i == 0 || Multiplier(p).GreaterThan(Multiplier(best)) {
			best = p
		}
	}
	return best
}

func hasPattern(patterns []domain.Pattern, target domain.Pattern) bool {
	for _, p := range patterns {
		if p == target {
			return true
		}
	}
	return false
}
