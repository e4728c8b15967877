package oramsim

// Stash holds blocks that are not resident in any bucket. It is a
// block-id to data map with explicit insertion order: eviction scans
// candidates in the order they entered the stash, and updating an
// existing id keeps its original position. Pinning the order makes
// eviction ties, and therefore measured stash distributions,
// reproducible for a given seed.
type Stash struct {
	data  map[int][]byte
	order []int
}

// NewStash creates an empty stash.
func NewStash() *Stash {
	return &Stash{data: make(map[int][]byte)}
}

// Get returns the data for blockID, or fallback if absent.
func (s *Stash) Get(blockID int, fallback []byte) []byte {
	if d, ok := s.data[blockID]; ok {
		return d
	}
	return fallback
}

// Put stores data for blockID. A new id is appended to the iteration
// order; an existing id keeps its position.
func (s *Stash) Put(blockID int, data []byte) {
	if _, ok := s.data[blockID]; !ok {
		s.order = append(s.order, blockID)
	}
	s.data[blockID] = data
}

// Remove deletes blockID from the stash and returns its data.
// The second return is false if the id was not present.
func (s *Stash) Remove(blockID int) ([]byte, bool) {
	d, ok := s.data[blockID]
	if !ok {
		return nil, false
	}
	delete(s.data, blockID)
	for i, id := range s.order {
		if id == blockID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return d, true
}

// Contains reports whether blockID is in the stash.
func (s *Stash) Contains(blockID int) bool {
	_, ok := s.data[blockID]
	return ok
}

// Len returns the number of stashed blocks. This is the statistic the
// simulation harness samples.
func (s *Stash) Len() int {
	return len(s.data)
}

// IDs returns the stashed block ids in insertion order. The returned
// slice is the stash's backing storage; callers must not mutate it.
func (s *Stash) IDs() []int {
	return s.order
}
