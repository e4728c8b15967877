package oramsim

import "math/rand"

// PositionMap tracks block-to-leaf assignments. Block IDs are dense in
// [0, N) and every block has a position from construction onward, so a
// plain array is enough.
type PositionMap struct {
	leaves []int
}

// NewPositionMap creates a position map for numBlocks blocks, each
// assigned a leaf drawn uniformly from [0, numLeaves).
func NewPositionMap(numBlocks, numLeaves int, rng *rand.Rand) *PositionMap {
	leaves := make([]int, numBlocks)
	for i := range leaves {
		leaves[i] = rng.Intn(numLeaves)
	}
	return &PositionMap{leaves: leaves}
}

// Get returns the leaf currently assigned to blockID.
func (p *PositionMap) Get(blockID int) int {
	return p.leaves[blockID]
}

// Set assigns blockID to leaf.
func (p *PositionMap) Set(blockID, leaf int) {
	p.leaves[blockID] = leaf
}

// Size returns the number of mapped blocks.
func (p *PositionMap) Size() int {
	return len(p.leaves)
}
