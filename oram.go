package oramsim

import (
	"encoding/binary"
	"math/rand"
	"time"
)

// OpType represents the type of ORAM operation.
type OpType int

const (
	OpRead OpType = iota
	OpWrite
)

// String returns the operation name.
func (op OpType) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "invalid"
	}
}

// IdentityData returns the payload a block carries before it is ever
// written: the 8-byte little-endian encoding of its own id.
func IdentityData(blockID int) []byte {
	d := make([]byte, 8)
	binary.LittleEndian.PutUint64(d, uint64(blockID))
	return d
}

// PathORAM simulates the Path ORAM access protocol over an in-memory
// bucket tree. It is not a secure storage system: payloads are
// plaintext and the point of the structure is measuring stash
// occupancy, not hiding data.
//
// All randomness (initial placement, leaf resampling, the harness's
// operation coin) flows through the single engine-owned generator, so
// two engines built with the same Config produce identical runs.
type PathORAM struct {
	cfg       Config
	numLeaves int

	tree   *BucketTree
	posMap *PositionMap
	stash  *Stash
	rng    *rand.Rand
}

// New creates a PathORAM instance from cfg. A zero Seed seeds the
// generator from the clock; any other value gives a reproducible run.
func New(cfg Config) (*PathORAM, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewWithRand(cfg, rand.New(rand.NewSource(seed)))
}

// NewWithRand creates a PathORAM instance drawing from an explicit
// generator. The engine takes ownership of rng; sharing it with
// another engine forfeits reproducibility.
func NewWithRand(cfg Config, rng *rand.Rand) (*PathORAM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &PathORAM{
		cfg:       cfg,
		numLeaves: cfg.NumLeaves(),
		tree:      NewBucketTree(cfg.Height, cfg.BucketSize),
		posMap:    NewPositionMap(cfg.NumBlocks, cfg.NumLeaves(), rng),
		stash:     NewStash(),
		rng:       rng,
	}
	o.placeInitialBlocks()
	return o, nil
}

// placeInitialBlocks distributes every block onto its assigned path at
// construction. Blocks are visited in a random order; each goes into
// the deepest non-full bucket on the path to its leaf, or into the
// stash when the whole path is full.
func (o *PathORAM) placeInitialBlocks() {
	for _, a := range o.rng.Perm(o.cfg.NumBlocks) {
		leaf := o.posMap.Get(a)
		placed := false
		for l := o.cfg.Height; l >= 0; l-- {
			idx := pathIndex(o.cfg.Height, leaf, l)
			if o.tree.BucketLen(l, idx) < o.cfg.BucketSize {
				o.tree.Append(l, idx, Block{ID: a, Data: IdentityData(a)})
				placed = true
				break
			}
		}
		if !placed {
			o.stash.Put(a, IdentityData(a))
		}
	}
}

// pathIndex returns the index of the level-l node on the path to leaf.
func pathIndex(height, leaf, l int) int {
	if l == 0 {
		return 0
	}
	return leaf >> (height - l)
}

// Capacity returns the number of logical blocks, N.
func (o *PathORAM) Capacity() int {
	return o.cfg.NumBlocks
}

// Height returns the tree height L.
func (o *PathORAM) Height() int {
	return o.cfg.Height
}

// NumLeaves returns the number of leaves, 2^L.
func (o *PathORAM) NumLeaves() int {
	return o.numLeaves
}

// StashSize returns the current number of blocks in the stash.
func (o *PathORAM) StashSize() int {
	return o.stash.Len()
}

// randomLeaf returns a uniform leaf index from the engine generator.
func (o *PathORAM) randomLeaf() int {
	return o.rng.Intn(o.numLeaves)
}

// Access performs one oblivious operation on blockID and returns the
// block's previous data. For OpWrite, newData becomes the block's new
// payload; for OpRead, newData is ignored.
//
// The physical access pattern is a fixed-shape function of the block's
// old leaf only: read and clear every bucket on the old path, then
// refill the same path from the stash.
func (o *PathORAM) Access(op OpType, blockID int, newData []byte) ([]byte, error) {
	if blockID < 0 || blockID >= o.cfg.NumBlocks {
		return nil, ErrInvalidBlockID
	}
	if op != OpRead && op != OpWrite {
		return nil, ErrInvalidOp
	}
	if op == OpWrite && newData == nil {
		return nil, ErrNilWriteData
	}

	// The old leaf locates the path to download; the block itself
	// moves to a fresh random leaf.
	x := o.posMap.Get(blockID)
	o.posMap.Set(blockID, o.randomLeaf())

	// Read the whole path into the stash and leave it empty.
	for _, n := range PathNodes(o.cfg.Height, x) {
		for _, b := range o.tree.Bucket(n.Level, n.Index) {
			o.stash.Put(b.ID, b.Data)
		}
		o.tree.Clear(n.Level, n.Index)
	}

	oldData := o.stash.Get(blockID, IdentityData(blockID))
	if op == OpWrite {
		o.stash.Put(blockID, newData)
	}

	if err := o.evict(x); err != nil {
		return nil, err
	}
	return oldData, nil
}

// Read reads the block with the given ID.
func (o *PathORAM) Read(blockID int) ([]byte, error) {
	return o.Access(OpRead, blockID, nil)
}

// Write writes data to the block with the given ID and returns the
// previous value.
func (o *PathORAM) Write(blockID int, data []byte) ([]byte, error) {
	return o.Access(OpWrite, blockID, data)
}
