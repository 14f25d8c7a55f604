package bingo

import (
	"fmt"

	"github.com/perlasbingo/settlement/internal/domain"
)

// ValidateCard checks the structural invariants of a card: 25 cells, one free
// cell at the center, every value inside its column and no value repeated.
func ValidateCard(cells []domain.CardCell) error {
	if len(cells) != domain.CardCells {
		return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("expected %d cells, got %d", domain.CardCells, len(cells)))
	}

	var seenPos [domain.CardCells]bool
	values := make(map[int]struct{}, domain.NumberedCells)
	free := 0

	for _, cell := range cells {
		if cell.Position < 0 || cell.Position >= domain.CardCells {
			return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("position %d out of range", cell.Position))
		}
		if seenPos[cell.Position] {
			return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("position %d repeated", cell.Position))
		}
		seenPos[cell.Position] = true

		col := domain.ColumnAt(cell.Position)
		if cell.Column != col {
			return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("position %d labelled %s, want %s", cell.Position, cell.Column, col))
		}

		v, numbered := cell.Number()
		if !numbered {
			if cell.Position != domain.FreePosition {
				return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("free cell at position %d", cell.Position))
			}
			free++
			continue
		}
		if !col.Contains(v) {
			return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("value %d outside column %s", v, col))
		}
		values[v] = struct{}{}
	}

	if free != 1 {
		return domain.Wrap(domain.ErrInvalidCard, fmt.Sprintf("expected 1 free cell, got %d", free))
	}
	if len(values) != domain.NumberedCells {
		return domain.Wrap(domain.ErrInvalidCard, "duplicate values on card")
	}
	return nil
}
