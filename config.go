package oramsim

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid ORAM configuration")
	ErrInvalidBlockID = errors.New("invalid block ID")
	ErrInvalidOp      = errors.New("invalid operation type")
	ErrNilWriteData   = errors.New("write requires data")
	ErrBucketOverflow = errors.New("bucket overflow")
	ErrInvalidOps     = errors.New("total ops must exceed warmup ops")
)

// Config holds the fixed parameters of a Path ORAM instance.
// All three tree parameters are explicit; the tree shape never adapts
// to the working set.
type Config struct {
	NumBlocks  int   // N: number of logical blocks (valid IDs: 0 to N-1)
	BucketSize int   // Z: block slots per bucket
	Height     int   // L: tree height (root = level 0, leaves = level L)
	Seed       int64 // RNG seed; 0 means seed from the clock
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.NumBlocks <= 0 || c.BucketSize <= 0 {
		return ErrInvalidConfig
	}
	if c.Height < 1 {
		return ErrInvalidConfig
	}
	// Every block needs a distinct-enough leaf space: 2^L >= N.
	if 1<<c.Height < c.NumBlocks {
		return ErrInvalidConfig
	}
	return nil
}

// NumLeaves returns the number of leaves, 2^L.
func (c Config) NumLeaves() int {
	return 1 << c.Height
}

// NumNodes returns the total node count of the complete tree, 2^(L+1)-1.
func (c Config) NumNodes() int {
	return (1 << (c.Height + 1)) - 1
}
