package engine

// edgeCells lists, for each player slide direction, the edge opposite that
// direction. After a slide only those cells may receive the next tile.
var edgeCells = [NumDirections][BoardSide]int{
	DirUp:    {12, 13, 14, 15},
	DirRight: {0, 4, 8, 12},
	DirDown:  {0, 1, 2, 3},
	DirLeft:  {3, 7, 11, 15},
}

// Candidates returns the empty cells that may receive a tile after the
// player slid in direction last. DirNone allows every empty cell.
func Candidates(b *Board, last Direction) []int {
	if !last.Valid() {
		return b.EmptyCells()
	}
	var cells []int
	for _, pos := range edgeCells[last] {
		if b[pos] == 0 {
			cells = append(cells, pos)
		}
	}
	return cells
}

// TileGenerator is the environment's move rule: a uniformly chosen
// candidate cell and a tile drawn from the bag.
type TileGenerator struct {
	rng IntNSource
	bag Bag
}

// NewTileGenerator returns a generator with a full bag drawing from rng.
func NewTileGenerator(rng IntNSource) *TileGenerator {
	return &TileGenerator{rng: rng, bag: NewBag()}
}

// Reset refills the bag. Called at the start of every episode.
func (g *TileGenerator) Reset() { g.bag.Reset() }

// Bag exposes the generator's bag for inspection.
func (g *TileGenerator) Bag() *Bag { return &g.bag }

// Choose returns a placement for board b given the player's last slide.
// ok is false when no candidate cell exists (the board is full); the bag is
// not touched in that case.
func (g *TileGenerator) Choose(b *Board, last Direction) (a Action, ok bool) {
	cells := Candidates(b, last)
	if len(cells) == 0 {
		return Action{}, false
	}
	pos := cells[g.rng.IntN(len(cells))]
	tile := g.bag.Draw(g.rng)
	return PlaceAction(pos, tile), true
}
