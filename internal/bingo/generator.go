package bingo

import (
	"math/rand/v2"
	"sync"

	"github.com/perlasbingo/settlement/internal/domain"
)

// Source is the random source cards and draws are built from.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource returns the process-wide, concurrency-safe source
func DefaultSource() Source {
	return globalSource{}
}

// Generator implements domain.CardGenerator
type Generator struct {
	mu  sync.Mutex
	src Source
}

// NewGenerator creates a card generator over src. A nil src falls back to DefaultSource.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = DefaultSource()
	}
	return &Generator{src: src}
}

// GenerateUniqueCard draws five distinct values per column by rejection
// sampling and leaves the center as the free cell.
func (g *Generator) GenerateUniqueCard() ([]domain.CardCell, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	used := make(map[int]struct{}, domain.NumberedCells)
	cells := make([]domain.CardCell, domain.CardCells)

	for col, letter := range domain.Columns {
		low, _ := letter.Range()
		for row := 0; row < domain.CardSize; row++ {
			pos := row*domain.CardSize + col
			if pos == domain.FreePosition {
				cells[pos] = domain.NewFreeCell()
				continue
			}
			for {
				v := low + g.src.IntN(domain.ColumnSpan)
				if _, dup := used[v]; dup {
					continue
				}
				used[v] = struct{}{}
				cells[pos] = domain.NewNumberedCell(pos, v)
				break
			}
		}
	}

	if err := ValidateCard(cells); err != nil {
		return nil, err
	}
	return cells, nil
}
