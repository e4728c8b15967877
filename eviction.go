package oramsim

// evict writes stash blocks back onto the path to leaf, deepest level
// first. Filling from the leaf end pushes each block as far from the
// root as its position allows, which is what keeps the stash small.
func (o *PathORAM) evict(leaf int) error {
	for l := o.cfg.Height; l >= 0; l-- {
		idx := pathIndex(o.cfg.Height, leaf, l)

		// The path was cleared before eviction, but re-check the
		// bucket rather than assuming.
		used := o.tree.BucketLen(l, idx)
		if used >= o.cfg.BucketSize {
			continue
		}
		capacity := o.cfg.BucketSize - used

		// A stash block qualifies for this bucket iff its own
		// current leaf, not the accessed one, lies in the subtree
		// rooted here. Candidates are taken in stash insertion
		// order.
		chosen := make([]int, 0, capacity)
		for _, bid := range o.stash.IDs() {
			if SameSubtreeAtLevel(o.cfg.Height, o.posMap.Get(bid), leaf, l) {
				chosen = append(chosen, bid)
				if len(chosen) == capacity {
					break
				}
			}
		}

		for _, bid := range chosen {
			data, _ := o.stash.Remove(bid)
			if err := o.tree.Append(l, idx, Block{ID: bid, Data: data}); err != nil {
				return err
			}
		}
	}
	return nil
}
