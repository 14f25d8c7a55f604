package bingo

import (
	"math/rand/v2"
	"testing"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	assert.Len(t, Remaining(nil), domain.MaxBall)

	left := Remaining([]int{1, 75, 30})
	assert.Len(t, left, domain.MaxBall-3)
	assert.NotContains(t, left, 1)
	assert.NotContains(t, left, 30)
	assert.NotContains(t, left, 75)
	assert.Equal(t, 2, left[0])

	all := make([]int, 0, domain.MaxBall)
	for b := 1; b <= domain.MaxBall; b++ {
		all = append(all, b)
	}
	assert.Empty(t, Remaining(all))
}

func TestRandomPicker_DrawsEveryBallOnce(t *testing.T) {
	picker := NewRandomPicker(rand.New(rand.NewPCG(7, 11)))

	var drawn []int
	for len(drawn) < domain.MaxBall {
		left := Remaining(drawn)
		ball := picker.Pick(left)
		require.Contains(t, left, ball)
		drawn = append(drawn, ball)
	}

	seen := map[int]bool{}
	for _, b := range drawn {
		assert.False(t, seen[b], "ball %d drawn twice", b)
		seen[b] = true
	}
	assert.Empty(t, Remaining(drawn))
}
