package bingo

import (
	"sync"

	"github.com/perlasbingo/settlement/internal/domain"
)

// RandomPicker implements domain.BallPicker with a uniform choice
type RandomPicker struct {
	mu  sync.Mutex
	src Source
}

// NewRandomPicker creates a picker over src. A nil src falls back to DefaultSource.
func NewRandomPicker(src Source) *RandomPicker {
	if src == nil {
		src = DefaultSource()
	}
	return &RandomPicker{src: src}
}

// Pick returns one element of remaining, which must not be empty
func (p *RandomPicker) Pick(remaining []int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return remaining[p.src.IntN(len(remaining))]
}

// Remaining returns the balls of 1..75 not present in drawn, ascending
func Remaining(drawn []int) []int {
	var seen [domain.MaxBall + 1]bool
	for _, b := range drawn {
		if b >= 1 && b <= domain.MaxBall {
			seen[b] = true
		}
	}
	left := make([]int, 0, domain.MaxBall)
	for b := 1; b <= domain.MaxBall; b++ {
		if !seen[b] {
			left = append(left, b)
		}
	}
	return left
}
