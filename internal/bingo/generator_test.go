package bingo

import (
	"math/rand/v2"
	"testing"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource replays a script of draws, cycling when exhausted
type fixedSource struct {
	draws []int
	i     int
}

func (s *fixedSource) IntN(n int) int {
	v := s.draws[s.i%len(s.draws)] % n
	s.i++
	return v
}

func TestGenerateUniqueCard_Structure(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewPCG(1, 2)))

	for i := 0; i < 500; i++ {
		cells, err := gen.GenerateUniqueCard()
		require.NoError(t, err)
		require.Len(t, cells, domain.CardCells)

		free := 0
		values := map[int]bool{}
		for pos, cell := range cells {
			assert.Equal(t, pos, cell.Position)
			assert.Equal(t, domain.ColumnAt(pos), cell.Column)
			if cell.IsFree() {
				free++
				assert.Equal(t, domain.FreePosition, pos)
				assert.True(t, cell.IsMarked())
				continue
			}
			v, ok := cell.Number()
			require.True(t, ok)
			assert.True(t, cell.Column.Contains(v), "value %d outside column %s", v, cell.Column)
			assert.False(t, cell.Marked)
			values[v] = true
		}
		assert.Equal(t, 1, free)
		assert.Len(t, values, domain.NumberedCells)
	}
}

func TestGenerateUniqueCard_RejectsCollisions(t *testing.T) {
	// every column first draws offset 0 twice, forcing a retry
	src := &fixedSource{draws: []int{0, 0, 1, 2, 3, 4}}
	gen := NewGenerator(src)

	cells, err := gen.GenerateUniqueCard()
	require.NoError(t, err)
	require.NoError(t, ValidateCard(cells))

	v, _ := cells[0].Number()
	assert.Equal(t, 1, v)
	v, _ = cells[5].Number()
	assert.Equal(t, 2, v)
}

func TestNewGenerator_DefaultSource(t *testing.T) {
	gen := NewGenerator(nil)
	cells, err := gen.GenerateUniqueCard()
	require.NoError(t, err)
	assert.Len(t, cells, domain.CardCells)
}

func validCells() []domain.CardCell {
	cells := make([]domain.CardCell, domain.CardCells)
	for pos := range cells {
		if pos == domain.FreePosition {
			cells[pos] = domain.NewFreeCell()
			continue
		}
		col := pos % domain.CardSize
		row := pos / domain.CardSize
		cells[pos] = domain.NewNumberedCell(pos, col*domain.ColumnSpan+row+1)
	}
	return cells
}

func TestValidateCard(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]domain.CardCell) []domain.CardCell
		valid  bool
	}{
		{
			name:   "valid card",
			mutate: func(c []domain.CardCell) []domain.CardCell { return c },
			valid:  true,
		},
		{
			name:   "too few cells",
			mutate: func(c []domain.CardCell) []domain.CardCell { return c[:24] },
		},
		{
			name: "value outside column",
			mutate: func(c []domain.CardCell) []domain.CardCell {
				c[0].Value = 16
				return c
			},
		},
		{
			name: "duplicate value",
			mutate: func(c []domain.CardCell) []domain.CardCell {
				c[5].Value = c[0].Value
				return c
			},
		},
		{
			name: "free cell off center",
			mutate: func(c []domain.CardCell) []domain.CardCell {
				c[0] = domain.CardCell{Position: 0, Column: domain.ColumnB, Kind: domain.CellFree}
				return c
			},
		},
		{
			name: "no free cell",
			mutate: func(c []domain.CardCell) []domain.CardCell {
				c[domain.FreePosition] = domain.NewNumberedCell(domain.FreePosition, 45)
				return c
			},
		},
		{
			name: "repeated position",
			mutate: func(c []domain.CardCell) []domain.CardCell {
				c[1].Position = 0
				c[1].Column = domain.ColumnB
				return c
			},
		},
		{
			name: "wrong column label",
			mutate: func(c []domain.CardCell) []domain.CardCell {
				c[1].Column = domain.ColumnO
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCard(tt.mutate(validCells()))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidCardStructure, domain.KindOf(err))
			assert.ErrorIs(t, err, domain.ErrInvalidCard)
		})
	}
}
