// Package engine implements the Threes board rules: the single-shift
// slide/merge transition, tile placement, the bag-based tile generator
// and the turn state machine that alternates the player and the
// environment.
//
// Board is a flat value type (no pointers, no slices) so candidate moves
// can be simulated on a plain copy.
package engine

import (
	"fmt"
	"strings"
)

const (
	BoardSide  = 4
	BoardCells = BoardSide * BoardSide
)

// Board holds 16 tile indices in row-major order. Index 0 is an empty cell.
type Board [BoardCells]uint8

// At returns the tile index at pos.
func (b *Board) At(pos int) uint8 { return b[pos] }

// Set writes a tile index without any legality checks.
func (b *Board) Set(pos int, tile uint8) { b[pos] = tile }

// Place writes tile (1, 2 or 3) at pos. Returns 0 on success, Illegal when
// pos is outside [0,16) or tile is not a placeable index.
func (b *Board) Place(pos int, tile uint8) int {
	if pos < 0 || pos >= BoardCells {
		return Illegal
	}
	if tile != 1 && tile != 2 && tile != 3 {
		return Illegal
	}
	b[pos] = tile
	return 0
}

// Slide applies a slide in direction d and returns the reward, or Illegal
// if the board would not change. An illegal slide leaves b untouched.
func (b *Board) Slide(d Direction) int {
	switch d {
	case DirUp:
		return b.slideUp()
	case DirRight:
		return b.slideRight()
	case DirDown:
		return b.slideDown()
	case DirLeft:
		return b.slideLeft()
	}
	return Illegal
}

func (b *Board) slideUp() int {
	b.Transpose()
	score := b.slideLeft()
	b.Transpose()
	return score
}

func (b *Board) slideRight() int {
	b.ReflectHorizontal()
	score := b.slideLeft()
	b.ReflectHorizontal()
	return score
}

func (b *Board) slideDown() int {
	b.Transpose()
	score := b.slideRight()
	b.Transpose()
	return score
}

// slideLeft is the primitive every direction is composed from.
func (b *Board) slideLeft() int {
	var next Board
	score := 0
	for r := 0; r < BoardCells; r += BoardSide {
		row, s := slideRowLeft([BoardSide]uint8{b[r], b[r+1], b[r+2], b[r+3]})
		copy(next[r:r+BoardSide], row[:])
		score += s
	}
	if next == *b {
		return Illegal
	}
	*b = next
	return score
}

// slideRowLeft shifts one row toward index 0. Scanning from the front, at
// most one pair merges (two equal ladder tiles above index 2 and below
// MaxTileIndex, or a 1 and a 2 into a 3). Scanning stops at the first merge or the first empty cell;
// everything behind that point moves one cell forward and a 0 fills the
// back. There is no cascading and no full compaction.
func slideRowLeft(row [BoardSide]uint8) ([BoardSide]uint8, int) {
	buf := [BoardSide + 1]uint8{row[0], row[1], row[2], row[3], 0}
	var out [BoardSide]uint8
	n, i, score := 0, 0, 0
	merged := false

	for buf[i] != 0 && !merged {
		front, next := buf[i], buf[i+1]
		switch {
		case front == next && front > 2 && front < MaxTileIndex:
			i++
			buf[i] = front + 1
			merged = true
			score += MergeScore(buf[i])
		case front > 0 && next > 0 && int(front)+int(next) == 3:
			i++
			buf[i] = 3
			merged = true
			score += MergeScore(3)
		}
		out[n] = buf[i]
		n++
		if !merged {
			i++
		}
	}
	for j := i + 1; j < len(buf) && n < BoardSide; j++ {
		out[n] = buf[j]
		n++
	}
	return out, score
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

// Transpose mirrors the board along the main diagonal.
func (b *Board) Transpose() {
	var t Board
	for r := 0; r < BoardSide; r++ {
		for c := 0; c < BoardSide; c++ {
			t[c*BoardSide+r] = b[r*BoardSide+c]
		}
	}
	*b = t
}

// ReflectHorizontal mirrors every row left-to-right.
func (b *Board) ReflectHorizontal() {
	for r := 0; r < BoardCells; r += BoardSide {
		b[r], b[r+3] = b[r+3], b[r]
		b[r+1], b[r+2] = b[r+2], b[r+1]
	}
}

// ReflectVertical mirrors the rows top-to-bottom.
func (b *Board) ReflectVertical() {
	for c := 0; c < BoardSide; c++ {
		b[c], b[12+c] = b[12+c], b[c]
		b[4+c], b[8+c] = b[8+c], b[4+c]
	}
}

// RotateRight rotates the board clockwise.
func (b *Board) RotateRight() {
	b.Transpose()
	b.ReflectHorizontal()
}

// RotateLeft rotates the board counterclockwise.
func (b *Board) RotateLeft() {
	b.Transpose()
	b.ReflectVertical()
}

// Reverse rotates the board by 180 degrees.
func (b *Board) Reverse() {
	b.ReflectHorizontal()
	b.ReflectVertical()
}

// Rotate rotates the board clockwise n quarter turns (negative n rotates
// counterclockwise).
func (b *Board) Rotate(n int) {
	switch ((n % 4) + 4) % 4 {
	case 1:
		b.RotateRight()
	case 2:
		b.Reverse()
	case 3:
		b.RotateLeft()
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// EmptyCells returns the positions of all empty cells in ascending order.
func (b *Board) EmptyCells() []int {
	var cells []int
	for pos, tile := range b {
		if tile == 0 {
			cells = append(cells, pos)
		}
	}
	return cells
}

// MaxTile returns the largest tile index on the board.
func (b *Board) MaxTile() uint8 {
	var m uint8
	for _, tile := range b {
		if tile > m {
			m = tile
		}
	}
	return m
}

// LegalDirections reports, per direction, whether a slide changes the board.
// b is not modified.
func (b *Board) LegalDirections() [NumDirections]bool {
	var legal [NumDirections]bool
	for d := DirUp; d <= DirLeft; d++ {
		probe := *b
		legal[d] = probe.Slide(d) != Illegal
	}
	return legal
}

// HasLegalSlide reports whether any direction changes the board.
func (b *Board) HasLegalSlide() bool {
	for _, ok := range b.LegalDirections() {
		if ok {
			return true
		}
	}
	return false
}

// String renders the board with displayed tile values.
func (b Board) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", 24) + "+\n"
	sb.WriteString(border)
	for r := 0; r < BoardCells; r += BoardSide {
		sb.WriteByte('|')
		for c := 0; c < BoardSide; c++ {
			fmt.Fprintf(&sb, "%6d", TileValue(b[r+c]))
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(strings.TrimSuffix(border, "\n"))
	return sb.String()
}
