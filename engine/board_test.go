package engine

import (
	"math/rand/v2"
	"testing"
)

// rowBoard returns a board whose first row is row and all other cells empty.
func rowBoard(row [4]uint8) Board {
	var b Board
	copy(b[:4], row[:])
	return b
}

// TestLadder verifies the display values and merge scores.
func TestLadder(t *testing.T) {
	values := []int{0, 1, 2, 3, 6, 12, 24, 48}
	for i, want := range values {
		if got := TileValue(uint8(i)); got != want {
			t.Errorf("TileValue(%d) = %d, want %d", i, got, want)
		}
	}
	scores := map[uint8]int{0: 0, 1: 0, 2: 0, 3: 3, 4: 9, 5: 27, 7: 243, 14: 531441}
	for idx, want := range scores {
		if got := MergeScore(idx); got != want {
			t.Errorf("MergeScore(%d) = %d, want %d", idx, got, want)
		}
	}
	if TileValue(MaxTileIndex+1) != 0 || MergeScore(MaxTileIndex+1) != 0 {
		t.Error("out-of-table index should map to 0")
	}
}

// TestSlideRowVectors pins the single-shift, single-merge row rule.
func TestSlideRowVectors(t *testing.T) {
	tests := []struct {
		name   string
		in     [4]uint8
		want   [4]uint8
		reward int
	}{
		{"one plus two", [4]uint8{1, 2, 0, 0}, [4]uint8{3, 0, 0, 0}, 3},
		{"two plus one", [4]uint8{2, 1, 1, 0}, [4]uint8{3, 1, 0, 0}, 3},
		{"three plus three", [4]uint8{3, 3, 0, 0}, [4]uint8{4, 0, 0, 0}, 9},
		{"ladder merge", [4]uint8{6, 6, 6, 0}, [4]uint8{7, 6, 0, 0}, 243},
		{"no cascade", [4]uint8{3, 3, 3, 3}, [4]uint8{4, 3, 3, 0}, 9},
		{"merge after shift", [4]uint8{1, 1, 2, 0}, [4]uint8{1, 3, 0, 0}, 3},
		{"single shift", [4]uint8{3, 0, 3, 0}, [4]uint8{3, 3, 0, 0}, 0},
		{"leading gap", [4]uint8{0, 1, 1, 1}, [4]uint8{1, 1, 1, 0}, 0},
		{"gap then pair", [4]uint8{0, 3, 3, 0}, [4]uint8{3, 3, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := rowBoard(tt.in)
			got := b.Slide(DirLeft)
			if got != tt.reward {
				t.Errorf("reward = %d, want %d", got, tt.reward)
			}
			want := rowBoard(tt.want)
			if b != want {
				t.Errorf("row = %v, want %v", b[:4], tt.want)
			}
		})
	}
}

// TestSlideNoMoveIsIllegal verifies rows that cannot move leave the board alone.
func TestSlideNoMoveIsIllegal(t *testing.T) {
	for _, row := range [][4]uint8{
		{1, 1, 1, 0}, // small equal tiles never merge
		{2, 2, 0, 0},
		{3, 0, 0, 0},
		{0, 0, 0, 0},
		{4, 255, 0, 0},                     // no wraparound into a 1+2 pair
		{255, 255, 0, 0},                   // off the ladder
		{MaxTileIndex, MaxTileIndex, 0, 0}, // top of the ladder
	} {
		b := rowBoard(row)
		before := b
		if got := b.Slide(DirLeft); got != Illegal {
			t.Errorf("Slide(%v) = %d, want Illegal", row, got)
		}
		if b != before {
			t.Errorf("Slide(%v) mutated board to %v", row, b[:4])
		}
	}
}

// TestSlideDirections moves a lone tile in every direction.
func TestSlideDirections(t *testing.T) {
	want := map[Direction]int{DirUp: 1, DirRight: 6, DirDown: 9, DirLeft: 4}
	for d, pos := range want {
		var b Board
		b[5] = 2
		if r := b.Slide(d); r != 0 {
			t.Errorf("Slide(%s) reward = %d, want 0", d, r)
		}
		if b[pos] != 2 {
			t.Errorf("Slide(%s): tile not at %d, board %v", d, pos, b)
		}
	}
}

// TestSlideMergeDirections checks the merge happens against the wall the
// slide moves toward, and that a gap in front only shifts.
func TestSlideMergeDirections(t *testing.T) {
	var up Board
	up[3], up[7] = 1, 2 // column 3, rows 0-1
	if r := up.Slide(DirUp); r != 3 || up[3] != 3 || up[7] != 0 {
		t.Errorf("Slide(U) = %d, col3 = [%d %d], want 3, [3 0]", r, up[3], up[7])
	}

	var down Board
	down[11], down[15] = 1, 2 // column 3, rows 2-3
	if r := down.Slide(DirDown); r != 3 || down[15] != 3 || down[11] != 0 {
		t.Errorf("Slide(D) = %d, col3 = [%d %d], want 3, [0 3]", r, down[11], down[15])
	}

	var shift Board
	shift[3], shift[7] = 1, 2
	if r := shift.Slide(DirDown); r != 0 || shift[7] != 1 || shift[11] != 2 || shift[3] != 0 {
		t.Errorf("Slide(D) with gap = %d, col3 = %v", r, [4]uint8{shift[3], shift[7], shift[11], shift[15]})
	}
}

// TestFullBoardNoLegalSlide uses an all-ones board, which cannot move.
func TestFullBoardNoLegalSlide(t *testing.T) {
	var b Board
	for i := range b {
		b[i] = 1
	}
	if b.HasLegalSlide() {
		t.Fatal("all-ones board should have no legal slide")
	}
	for d := DirUp; d <= DirLeft; d++ {
		probe := b
		if probe.Slide(d) != Illegal || probe != b {
			t.Errorf("Slide(%s) on all-ones board should be Illegal and no-op", d)
		}
	}
}

// TestSlideProperty checks legality against board change on random boards.
func TestSlideProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 0; n < 2000; n++ {
		var b Board
		for i := range b {
			b[i] = uint8(rng.IntN(7))
		}
		for d := DirUp; d <= DirLeft; d++ {
			after := b
			r := after.Slide(d)
			if r == Illegal && after != b {
				t.Fatalf("illegal slide %s mutated %v", d, b)
			}
			if r != Illegal && after == b {
				t.Fatalf("legal slide %s left %v unchanged", d, b)
			}
			if r < Illegal {
				t.Fatalf("negative reward %d", r)
			}
		}
	}
}

// TestPlace covers position and tile validation.
func TestPlace(t *testing.T) {
	var b Board
	if b.Place(16, 1) != Illegal || b.Place(-1, 1) != Illegal {
		t.Error("out-of-range position should be Illegal")
	}
	if b.Place(0, 0) != Illegal || b.Place(0, 4) != Illegal {
		t.Error("tile outside {1,2,3} should be Illegal")
	}
	if b != (Board{}) {
		t.Error("illegal placement mutated the board")
	}
	if b.Place(3, 2) != 0 || b[3] != 2 {
		t.Errorf("Place(3, 2) failed, board %v", b)
	}
}

// TestTransforms checks rotation identities.
func TestTransforms(t *testing.T) {
	var b Board
	for i := range b {
		b[i] = uint8(i)
	}
	r := b
	r.Rotate(1)
	if r[3] != 0 || r[0] != 12 {
		t.Errorf("RotateRight: r[0]=%d r[3]=%d, want 12, 0", r[0], r[3])
	}
	r.Rotate(-1)
	if r != b {
		t.Error("Rotate(1) then Rotate(-1) should be identity")
	}
	r.Reverse()
	if r[0] != 15 || r[15] != 0 {
		t.Errorf("Reverse: r[0]=%d r[15]=%d", r[0], r[15])
	}
	r.Rotate(2)
	if r != b {
		t.Error("Reverse then Rotate(2) should be identity")
	}
	tr := b
	tr.Transpose()
	if tr[1] != 4 || tr[4] != 1 {
		t.Errorf("Transpose: tr[1]=%d tr[4]=%d, want 4, 1", tr[1], tr[4])
	}
}

// TestQueries covers EmptyCells, MaxTile and String.
func TestQueries(t *testing.T) {
	var b Board
	b[0], b[15] = 3, 5
	if got := len(b.EmptyCells()); got != 14 {
		t.Errorf("len(EmptyCells) = %d, want 14", got)
	}
	if b.MaxTile() != 5 {
		t.Errorf("MaxTile = %d, want 5", b.MaxTile())
	}
	s := b.String()
	if len(s) == 0 || s[0] != '+' {
		t.Errorf("String() = %q", s)
	}
}
