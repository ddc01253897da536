// Package board holds the pure grid rules: critical-mass computation, move
// application and chain-reaction propagation. It never touches room or
// player state, so the cascade can be tested in isolation.
package board

import (
	"fmt"

	"github.com/scythe504/chain-reaction-backend/internal"
)

// cascadeBoundFactor caps the explosion work queue at rows*cols*factor pops.
// Each explosion only re-queues a cell that is freshly at or above threshold,
// so the queue drains on any conventional grid; the bound turns a broken
// invariant into an error instead of an infinite loop.
const cascadeBoundFactor = 1024

type coord struct {
	row int
	col int
}

// CriticalMass is the orb count at which a cell explodes: its number of
// orthogonal in-bounds neighbors (2 corner, 3 edge, 4 interior).
func CriticalMass(size internal.GridSize, row, col int) int {
	mass := 0
	if row > 0 {
		mass++
	}
	if row < size.Rows-1 {
		mass++
	}
	if col > 0 {
		mass++
	}
	if col < size.Cols-1 {
		mass++
	}
	return mass
}

// InBounds reports whether (row, col) is on the board.
func InBounds(size internal.GridSize, row, col int) bool {
	return row >= 0 && row < size.Rows && col >= 0 && col < size.Cols
}

// TotalOrbs sums every cell count on the board.
func TotalOrbs(b [][]internal.Cell) int {
	total := 0
	for _, row := range b {
		for _, cell := range row {
			total += cell.Count
		}
	}
	return total
}

// ValidateTarget checks whether playerID may place an orb at (row, col):
// the cell must be in bounds and not owned by a different player.
func ValidateTarget(b [][]internal.Cell, size internal.GridSize, row, col int, playerID string) error {
	if !InBounds(size, row, col) {
		return fmt.Errorf("cell (%d,%d) out of bounds for %dx%d board", row, col, size.Rows, size.Cols)
	}
	cell := b[row][col]
	if cell.Owner != "" && cell.Owner != playerID {
		return fmt.Errorf("cell (%d,%d) owned by %s", row, col, cell.Owner)
	}
	return nil
}

// ApplyMove places one orb for playerID at (row, col) and resolves the
// resulting cascade to a fixed point. The board is mutated in place. Apart
// from the single orb added, the total orb count is conserved.
//
// The caller is responsible for target validation; ApplyMove only fails if
// the cascade exceeds its defensive iteration bound.
func ApplyMove(b [][]internal.Cell, size internal.GridSize, row, col int, playerID string) error {
	b[row][col].Count++
	b[row][col].Owner = playerID

	queue := make([]coord, 0, 4)
	if b[row][col].Count >= CriticalMass(size, row, col) {
		queue = append(queue, coord{row, col})
	}

	bound := size.Rows * size.Cols * cascadeBoundFactor
	processed := 0

	for len(queue) > 0 {
		processed++
		if processed > bound {
			return fmt.Errorf("cascade exceeded %d iterations on %dx%d board: invariant violated", bound, size.Rows, size.Cols)
		}

		c := queue[0]
		queue = queue[1:]

		// The cell may have been altered by an earlier explosion in this
		// same cascade; re-check before exploding.
		if b[c.row][c.col].Count < CriticalMass(size, c.row, c.col) {
			continue
		}

		owner := b[c.row][c.col].Owner
		b[c.row][c.col].Count = 0
		b[c.row][c.col].Owner = ""

		neighbors := [4]coord{
			{c.row - 1, c.col},
			{c.row + 1, c.col},
			{c.row, c.col - 1},
			{c.row, c.col + 1},
		}
		for _, n := range neighbors {
			if !InBounds(size, n.row, n.col) {
				continue
			}
			b[n.row][n.col].Count++
			b[n.row][n.col].Owner = owner
			if b[n.row][n.col].Count >= CriticalMass(size, n.row, n.col) {
				queue = append(queue, n)
			}
		}
	}
	return nil
}

// OwnedCellCounts returns how many cells each owner currently holds.
func OwnedCellCounts(b [][]internal.Cell) map[string]int {
	counts := make(map[string]int)
	for _, row := range b {
		for _, cell := range row {
			if cell.Owner != "" {
				counts[cell.Owner]++
			}
		}
	}
	return counts
}
