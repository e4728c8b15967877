package oramsim

// Block is one (id, data) pair stored in a bucket or the stash.
type Block struct {
	ID   int
	Data []byte
}

// NodeIndex converts a (level, index) tree address into an offset in the
// flat node array. Level 0 is the root; index ranges over [0, 2^level).
func NodeIndex(level, index int) int {
	return (1 << level) - 1 + index
}

// PathNode is one node on a root-to-leaf path.
type PathNode struct {
	Level int
	Index int
}

// PathNodes returns the nodes on the path from the root to leaf x
// in a tree of height L, root first. The node at level l has index
// x >> (L - l); the root index is always 0.
func PathNodes(height, leaf int) []PathNode {
	nodes := make([]PathNode, height+1)
	for l := 0; l <= height; l++ {
		idx := 0
		if l > 0 {
			idx = leaf >> (height - l)
		}
		nodes[l] = PathNode{Level: l, Index: idx}
	}
	return nodes
}

// SameSubtreeAtLevel reports whether leaves a and b share the same
// ancestor at the given level. Level 0 (the root) always matches.
func SameSubtreeAtLevel(height, leafA, leafB, level int) bool {
	if level == 0 {
		return true
	}
	return (leafA >> (height - level)) == (leafB >> (height - level))
}

// BucketTree is the server-side storage: a complete binary tree of
// buckets held in a flat arena, addressed by computed offset rather
// than parent/child links. Each bucket holds at most capacity blocks.
type BucketTree struct {
	nodes    [][]Block
	capacity int
	height   int
}

// NewBucketTree creates an empty tree of the given height with
// bucket capacity Z.
func NewBucketTree(height, capacity int) *BucketTree {
	numNodes := (1 << (height + 1)) - 1
	nodes := make([][]Block, numNodes)
	for i := range nodes {
		nodes[i] = make([]Block, 0, capacity)
	}
	return &BucketTree{
		nodes:    nodes,
		capacity: capacity,
		height:   height,
	}
}

// Height returns the tree height L.
func (t *BucketTree) Height() int {
	return t.height
}

// Capacity returns the bucket capacity Z.
func (t *BucketTree) Capacity() int {
	return t.capacity
}

// Bucket returns the blocks currently stored at (level, index).
// The returned slice is the bucket's backing storage; callers must not
// retain it across mutations.
func (t *BucketTree) Bucket(level, index int) []Block {
	return t.nodes[NodeIndex(level, index)]
}

// BucketLen returns the number of blocks at (level, index).
func (t *BucketTree) BucketLen(level, index int) int {
	return len(t.nodes[NodeIndex(level, index)])
}

// Clear empties the bucket at (level, index).
func (t *BucketTree) Clear(level, index int) {
	t.nodes[NodeIndex(level, index)] = t.nodes[NodeIndex(level, index)][:0]
}

// Append adds a block to the bucket at (level, index). Appending to a
// full bucket is a caller error and returns ErrBucketOverflow with the
// bucket unchanged; blocks are never silently dropped.
func (t *BucketTree) Append(level, index int, b Block) error {
	i := NodeIndex(level, index)
	if len(t.nodes[i]) >= t.capacity {
		return ErrBucketOverflow
	}
	t.nodes[i] = append(t.nodes[i], b)
	return nil
}
