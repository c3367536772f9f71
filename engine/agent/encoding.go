// Package agent implements the n-tuple value function and the agents that
// play the Threes engine: random and greedy players, the tile-placing
// environment, and the TD(0) afterstate learner.
package agent

import engine "github.com/eric0410771/Game-Theory-Threes/engine"

// Features holds one feature index per pattern, in catalogue order.
type Features [NumPatterns]uint32

// Encode folds every pattern's six cells into a base-11 index,
// clamping tile indices to ClampTile.
func Encode(b *engine.Board) Features {
	var f Features
	for p := range Patterns {
		var idx uint32
		for _, pos := range Patterns[p] {
			tile := b[pos]
			if tile > ClampTile {
				tile = ClampTile
			}
			idx = idx*FeatureBase + uint32(tile)
		}
		f[p] = idx
	}
	return f
}
