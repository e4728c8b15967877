package oramsim

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// checkInvariants verifies the structural invariants that must hold at
// every quiescent point: every block id in [0, N) lives in exactly one
// of {a tree bucket, the stash}, no bucket exceeds capacity, and every
// resident block sits in a bucket on the path to its current leaf.
func checkInvariants(t *testing.T, o *PathORAM) {
	t.Helper()

	seen := make(map[int]int)
	for l := 0; l <= o.cfg.Height; l++ {
		for idx := 0; idx < 1<<l; idx++ {
			bucket := o.tree.Bucket(l, idx)
			if len(bucket) > o.cfg.BucketSize {
				t.Fatalf("bucket (%d,%d) holds %d blocks, capacity %d", l, idx, len(bucket), o.cfg.BucketSize)
			}
			for _, b := range bucket {
				seen[b.ID]++
				leaf := o.posMap.Get(b.ID)
				if pathIndex(o.cfg.Height, leaf, l) != idx {
					t.Fatalf("block %d (leaf %d) in bucket (%d,%d) off its path", b.ID, leaf, l, idx)
				}
			}
		}
	}
	for _, id := range o.stash.IDs() {
		seen[id]++
	}

	for a := 0; a < o.cfg.NumBlocks; a++ {
		if seen[a] != 1 {
			t.Fatalf("block %d found %d times across tree+stash, want exactly 1", a, seen[a])
		}
	}
	if len(seen) != o.cfg.NumBlocks {
		t.Fatalf("found %d distinct ids, want %d", len(seen), o.cfg.NumBlocks)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "valid config",
			cfg:     Config{NumBlocks: 16, BucketSize: 4, Height: 5, Seed: 1},
			wantErr: nil,
		},
		{
			name:    "zero blocks",
			cfg:     Config{NumBlocks: 0, BucketSize: 4, Height: 4},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative blocks",
			cfg:     Config{NumBlocks: -1, BucketSize: 4, Height: 4},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero bucket size",
			cfg:     Config{NumBlocks: 16, BucketSize: 0, Height: 4},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero height",
			cfg:     Config{NumBlocks: 1, BucketSize: 1, Height: 0},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "too few leaves",
			cfg:     Config{NumBlocks: 16, BucketSize: 4, Height: 3},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "leaves exactly cover blocks",
			cfg:     Config{NumBlocks: 16, BucketSize: 4, Height: 4, Seed: 1},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oram, err := New(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if oram == nil {
					t.Fatal("expected non-nil ORAM")
				}
				if oram.Capacity() != tt.cfg.NumBlocks {
					t.Errorf("Capacity() = %d, want %d", oram.Capacity(), tt.cfg.NumBlocks)
				}
				if oram.NumLeaves() != 1<<tt.cfg.Height {
					t.Errorf("NumLeaves() = %d, want %d", oram.NumLeaves(), 1<<tt.cfg.Height)
				}
				checkInvariants(t, oram)
			}
		})
	}
}

func TestAccess_WriteAndRead(t *testing.T) {
	oram, err := New(Config{NumBlocks: 16, BucketSize: 4, Height: 4, Seed: 3})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data := bytes.Repeat([]byte{0xAB}, 32)
	if _, err := oram.Write(5, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := oram.Read(5)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read returned %x, want %x", got, data)
	}
}

func TestAccess_ReadUnwritten(t *testing.T) {
	oram, err := New(Config{NumBlocks: 16, BucketSize: 4, Height: 4, Seed: 3})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// A block never written carries its identity payload.
	got, err := oram.Read(7)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, IdentityData(7)) {
		t.Errorf("Read unwritten block returned %x, want identity %x", got, IdentityData(7))
	}
}

func TestAccess_MultipleBlocks(t *testing.T) {
	oram, err := New(Config{NumBlocks: 20, BucketSize: 4, Height: 5, Seed: 9})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		data := bytes.Repeat([]byte{byte(i)}, 16)
		if _, err := oram.Write(i, data); err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
	}

	// Read all back in reverse order.
	for i := 9; i >= 0; i-- {
		got, err := oram.Read(i)
		if err != nil {
			t.Fatalf("Read(%d) failed: %v", i, err)
		}
		expected := bytes.Repeat([]byte{byte(i)}, 16)
		if !bytes.Equal(got, expected) {
			t.Errorf("Read(%d) = %x, want %x", i, got, expected)
		}
	}
}

func TestAccess_Overwrite(t *testing.T) {
	oram, err := New(Config{NumBlocks: 10, BucketSize: 4, Height: 4, Seed: 5})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	oram.Write(3, []byte("first"))
	old, err := oram.Write(3, []byte("second"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Equal(old, []byte("first")) {
		t.Errorf("Write returned old data %q, want %q", old, "first")
	}

	got, _ := oram.Read(3)
	if !bytes.Equal(got, []byte("second")) {
		t.Errorf("After overwrite: got %q, want %q", got, "second")
	}
}

func TestAccess_InvalidBlockID(t *testing.T) {
	oram, err := New(Config{NumBlocks: 10, BucketSize: 4, Height: 4, Seed: 5})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []int{-1, 10, 1000}
	for _, id := range tests {
		t.Run(fmt.Sprintf("id=%d", id), func(t *testing.T) {
			if _, err := oram.Read(id); !errors.Is(err, ErrInvalidBlockID) {
				t.Errorf("Read(%d) error = %v, want ErrInvalidBlockID", id, err)
			}
			if _, err := oram.Write(id, []byte("x")); !errors.Is(err, ErrInvalidBlockID) {
				t.Errorf("Write(%d) error = %v, want ErrInvalidBlockID", id, err)
			}
		})
	}
}

func TestAccess_InvalidOp(t *testing.T) {
	oram, err := New(Config{NumBlocks: 10, BucketSize: 4, Height: 4, Seed: 5})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := oram.Access(OpType(42), 0, nil); !errors.Is(err, ErrInvalidOp) {
		t.Errorf("Access with bad op: error = %v, want ErrInvalidOp", err)
	}
	if _, err := oram.Access(OpWrite, 0, nil); !errors.Is(err, ErrNilWriteData) {
		t.Errorf("Write without data: error = %v, want ErrNilWriteData", err)
	}
}

func TestAccess_InvariantsHold(t *testing.T) {
	oram, err := New(Config{NumBlocks: 32, BucketSize: 2, Height: 5, Seed: 11})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	checkInvariants(t, oram)

	for i := 0; i < 200; i++ {
		a := i % 32
		if i%2 == 0 {
			_, err = oram.Write(a, []byte{byte(i)})
		} else {
			_, err = oram.Read(a)
		}
		if err != nil {
			t.Fatalf("access %d failed: %v", i, err)
		}
		checkInvariants(t, oram)
	}
}

func TestAccess_PathReadComplete(t *testing.T) {
	oram, err := New(Config{NumBlocks: 16, BucketSize: 2, Height: 4, Seed: 13})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Replay the read-and-clear step by hand: after it, every bucket
	// on the path must be empty and its former contents in the stash.
	x := oram.posMap.Get(6)
	var moved []int
	for _, n := range PathNodes(oram.cfg.Height, x) {
		for _, b := range oram.tree.Bucket(n.Level, n.Index) {
			moved = append(moved, b.ID)
			oram.stash.Put(b.ID, b.Data)
		}
		oram.tree.Clear(n.Level, n.Index)
	}

	for _, n := range PathNodes(oram.cfg.Height, x) {
		if got := oram.tree.BucketLen(n.Level, n.Index); got != 0 {
			t.Errorf("bucket (%d,%d) not empty after path read: %d blocks", n.Level, n.Index, got)
		}
	}
	for _, id := range moved {
		if !oram.stash.Contains(id) {
			t.Errorf("block %d read from path but missing from stash", id)
		}
	}

	// Eviction restores the invariants.
	if err := oram.evict(x); err != nil {
		t.Fatalf("evict failed: %v", err)
	}
	checkInvariants(t, oram)
}

func TestAccess_Deterministic(t *testing.T) {
	cfg := Config{NumBlocks: 24, BucketSize: 3, Height: 5, Seed: 77}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		id := (i * 7) % 24
		var gotA, gotB []byte
		if i%3 == 0 {
			gotA, _ = a.Write(id, []byte{byte(i)})
			gotB, _ = b.Write(id, []byte{byte(i)})
		} else {
			gotA, _ = a.Read(id)
			gotB, _ = b.Read(id)
		}
		if !bytes.Equal(gotA, gotB) {
			t.Fatalf("op %d: engines diverged: %x vs %x", i, gotA, gotB)
		}
		if a.StashSize() != b.StashSize() {
			t.Fatalf("op %d: stash sizes diverged: %d vs %d", i, a.StashSize(), b.StashSize())
		}
	}
}

func TestScenario_SmallTree(t *testing.T) {
	// N=4, Z=2, L=2, seeded: every block appears exactly once across
	// tree+stash at construction, and write/write/read on block 0
	// returns the second value.
	oram, err := New(Config{NumBlocks: 4, BucketSize: 2, Height: 2, Seed: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	checkInvariants(t, oram)

	if _, err := oram.Write(0, []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := oram.Write(0, []byte("y")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := oram.Read(0)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, []byte("y")) {
		t.Errorf("Read(0) = %q, want %q", got, "y")
	}
	checkInvariants(t, oram)
}
