package engine

// MaxTileIndex is the largest tile index the ladder tables cover.
const MaxTileIndex = 14

var (
	indexToTile  [MaxTileIndex + 1]int
	indexToScore [MaxTileIndex + 1]int
)

func init() {
	// Indices 0-3 are literal: empty, the "1" tile, the "2" tile, the "3" tile.
	for i := 0; i < 4; i++ {
		indexToTile[i] = i
	}
	for i := 4; i <= MaxTileIndex; i++ {
		indexToTile[i] = indexToTile[i-1] * 2
	}

	indexToScore[3] = 3
	for i := 4; i <= MaxTileIndex; i++ {
		indexToScore[i] = indexToScore[i-1] * 3
	}
}

// TileValue returns the displayed value of a tile index.
//   - 0..3 → 0, 1, 2, 3
//   - i ≥ 4 → 2·TileValue(i-1), i.e. 6, 12, 24, ...
//
// Indices outside the table return 0.
func TileValue(idx uint8) int {
	if int(idx) > MaxTileIndex {
		return 0
	}
	return indexToTile[idx]
}

// MergeScore returns the score awarded when a tile of index idx is formed
// by a merge: 3 for the "3" tile, tripling for every ladder step above it.
// Indices below 3 and outside the table return 0.
func MergeScore(idx uint8) int {
	if int(idx) > MaxTileIndex {
		return 0
	}
	return indexToScore[idx]
}
