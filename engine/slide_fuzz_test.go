package engine

import "testing"

// FuzzSlide checks, for arbitrary boards, that an illegal slide leaves the
// board untouched and a legal one conserves the total face value.
func FuzzSlide(f *testing.F) {
	f.Add([]byte{1, 2, 0, 0, 3, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, uint8(3))
	f.Add([]byte{6, 6, 6, 6, 1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0}, uint8(0))
	f.Add([]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, uint8(2))

	f.Fuzz(func(t *testing.T, cells []byte, dir uint8) {
		var b Board
		for i := 0; i < BoardCells && i < len(cells); i++ {
			b[i] = cells[i] % MaxTileIndex
		}
		d := Direction(dir % NumDirections)

		before := b
		r := b.Slide(d)
		if r == Illegal {
			if b != before {
				t.Fatalf("illegal %s changed the board:\n%s", d, b)
			}
			return
		}
		if r < 0 {
			t.Fatalf("reward = %d", r)
		}
		if b == before {
			t.Fatalf("legal %s left the board unchanged", d)
		}
		if faceSum(&b) != faceSum(&before) {
			t.Fatalf("%s changed face sum %d -> %d", d, faceSum(&before), faceSum(&b))
		}
		if len(b.EmptyCells()) < len(before.EmptyCells()) {
			t.Fatalf("%s reduced the number of empty cells", d)
		}
	})
}

func faceSum(b *Board) int {
	sum := 0
	for _, c := range b {
		sum += TileValue(c)
	}
	return sum
}
