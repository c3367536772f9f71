package agent

const (
	NumPatterns = 31 // sampling patterns, one weight table each
	PatternSize = 6  // cells per pattern
	ClampTile   = 10 // tile indices above this share a feature digit
	FeatureBase = ClampTile + 1

	// FeatureSpace is the number of distinct feature indices per pattern,
	// FeatureBase^PatternSize = 11^6.
	FeatureSpace = FeatureBase * FeatureBase * FeatureBase * FeatureBase * FeatureBase * FeatureBase
)

// Patterns is the sampling catalogue: rotated and reflected placements of a
// four-cell line plus two cells of the adjacent line (first 15) and of a
// 2×3 rectangle (last 16).
// Cell order matters: the first cell is the most significant base-11 digit.
var Patterns = [NumPatterns][PatternSize]int{
	{0, 1, 2, 3, 4, 5},
	{3, 7, 11, 15, 2, 6},
	{15, 14, 13, 12, 11, 10},
	{3, 2, 1, 0, 7, 6},
	{0, 4, 8, 12, 1, 5},
	{12, 13, 14, 15, 8, 9},
	{15, 11, 7, 3, 14, 10},
	{4, 5, 6, 7, 8, 9},
	{2, 6, 10, 14, 1, 5},
	{11, 10, 9, 8, 7, 6},
	{13, 9, 5, 1, 14, 10},
	{7, 6, 5, 4, 11, 10},
	{1, 5, 9, 13, 2, 6},
	{8, 9, 10, 11, 4, 5},
	{14, 10, 6, 2, 13, 9},
	{0, 1, 2, 4, 5, 6},
	{3, 7, 11, 2, 6, 10},
	{15, 14, 13, 11, 10, 9},
	{12, 8, 4, 13, 9, 5},
	{3, 2, 1, 7, 6, 5},
	{0, 4, 8, 1, 5, 9},
	{12, 13, 14, 8, 9, 10},
	{15, 11, 7, 14, 10, 6},
	{4, 5, 6, 8, 9, 10},
	{2, 6, 10, 1, 5, 9},
	{11, 10, 9, 7, 6, 5},
	{13, 9, 5, 14, 10, 6},
	{7, 6, 5, 11, 10, 9},
	{1, 5, 9, 2, 6, 10},
	{8, 9, 10, 4, 5, 6},
	{14, 10, 6, 13, 9, 5},
}
