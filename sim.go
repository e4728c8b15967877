package oramsim

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"
)

// simProgressEvery is how often the harness logs a progress line.
const simProgressEvery = 1_000_000

// SimResult holds the output of one simulation run.
type SimResult struct {
	// TailCounts[i] is the number of recorded samples whose stash
	// size strictly exceeds i, for i in [0, MaxStash].
	// TailCounts[MaxStash] is 0 by definition.
	TailCounts []int

	// MaxStash is the largest stash size observed after warmup.
	MaxStash int

	// Recorded is the number of samples, totalOps - warmupOps.
	Recorded int
}

// versionData encodes the payload a simulated write stores: the
// (block id, version) pair, little-endian.
func versionData(blockID, version int) []byte {
	d := make([]byte, 16)
	binary.LittleEndian.PutUint64(d[0:8], uint64(blockID))
	binary.LittleEndian.PutUint64(d[8:16], uint64(version))
	return d
}

// Simulate drives totalOps accesses over all blocks cyclically, each
// chosen to be a read or a write by a fair coin from the engine
// generator. Writes store a fresh (block id, version) payload. After
// each operation past the warmup the stash size is sampled; the
// samples become a strict tail-count distribution.
func (o *PathORAM) Simulate(totalOps, warmupOps int) (*SimResult, error) {
	if warmupOps < 0 || totalOps <= warmupOps {
		return nil, ErrInvalidOps
	}

	log.WithFields(log.Fields{
		"totalOps": totalOps,
		"warmup":   warmupOps,
		"N":        o.cfg.NumBlocks,
		"Z":        o.cfg.BucketSize,
		"L":        o.cfg.Height,
	}).Debug("simulation start")

	versions := make([]int, o.cfg.NumBlocks)
	samples := make([]int, 0, totalOps-warmupOps)
	blockID := 0

	for t := 0; t < totalOps; t++ {
		op := OpRead
		if o.rng.Intn(2) == 1 {
			op = OpWrite
		}
		a := blockID
		blockID++
		if blockID == o.cfg.NumBlocks {
			blockID = 0
		}

		var err error
		if op == OpWrite {
			versions[a]++
			_, err = o.Access(OpWrite, a, versionData(a, versions[a]))
		} else {
			_, err = o.Access(OpRead, a, nil)
		}
		if err != nil {
			return nil, err
		}

		if t >= warmupOps {
			samples = append(samples, o.stash.Len())
		}
		if (t+1)%simProgressEvery == 0 {
			log.WithFields(log.Fields{
				"ops":   t + 1,
				"stash": o.stash.Len(),
			}).Debug("simulation progress")
		}
	}

	tails, maxStash := tailCounts(samples)
	res := &SimResult{
		TailCounts: tails,
		MaxStash:   maxStash,
		Recorded:   len(samples),
	}

	log.WithFields(log.Fields{
		"recorded": res.Recorded,
		"maxStash": res.MaxStash,
	}).Debug("simulation done")
	return res, nil
}

// tailCounts builds the strict tail distribution of samples:
// tails[i] = number of samples with value > i, for i in [0, max].
func tailCounts(samples []int) (tails []int, maxStash int) {
	for _, v := range samples {
		if v > maxStash {
			maxStash = v
		}
	}

	hist := make([]int, maxStash+1)
	for _, v := range samples {
		hist[v]++
	}

	tails = make([]int, maxStash+1)
	running := 0
	for k := maxStash; k >= 1; k-- {
		running += hist[k]
		tails[k-1] = running
	}
	// tails[maxStash] stays 0: nothing exceeds the maximum.
	return tails, maxStash
}
