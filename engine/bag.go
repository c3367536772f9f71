package engine

// IntNSource is the slice of *rand.Rand the engine needs. Each party owns
// its own source so independent agents interleave deterministically.
type IntNSource interface {
	IntN(n int) int
}

// bagTiles is the full content of a fresh bag.
var bagTiles = [3]uint8{1, 2, 3}

// Bag deals the tile indices 1, 2 and 3 without replacement. It holds at
// most one copy of each and refills exactly when drawn empty.
type Bag struct {
	tiles [3]uint8
	n     uint8
}

// NewBag returns a full bag.
func NewBag() Bag {
	var b Bag
	b.Reset()
	return b
}

// Reset refills the bag to {1, 2, 3}.
func (b *Bag) Reset() {
	b.tiles = bagTiles
	b.n = uint8(len(bagTiles))
}

// Len returns the number of tiles left.
func (b *Bag) Len() int { return int(b.n) }

// Contents returns the remaining tiles.
func (b *Bag) Contents() []uint8 {
	out := make([]uint8, b.n)
	copy(out, b.tiles[:b.n])
	return out
}

// Draw removes and returns a uniformly chosen tile, refilling first if the
// bag is empty.
func (b *Bag) Draw(rng IntNSource) uint8 {
	if b.n == 0 {
		b.Reset()
	}
	k := rng.IntN(int(b.n))
	tile := b.tiles[k]
	b.n--
	b.tiles[k] = b.tiles[b.n]
	return tile
}
