package main

import (
	"math/bits"
	"os"

	"github.com/docopt/docopt-go"
	log "github.com/sirupsen/logrus"

	"github.com/etclab/oramsim"
)

const usage = `Path ORAM stash simulator.

Runs a sequence of oblivious accesses over a Path ORAM tree and records
the cumulative tail-count distribution of observed stash sizes.

Usage:
  oramsim --N=<n> --Z=<z> --L=<l> --ops=<ops> --warmup=<warmup> [--seed=<seed>] [--out=<file>]
  oramsim -h | --help

Options:
  --N=<n>            Number of logical blocks.
  --Z=<z>            Bucket capacity.
  --L=<l>            Tree height (root is level 0, leaves level L).
  --ops=<ops>        Total number of accesses to perform.
  --warmup=<warmup>  Accesses to discard before sampling the stash.
  --seed=<seed>      RNG seed for a reproducible run [default: 0].
  --out=<file>       Write the tail-count distribution to this file.
  -h --help          Show this help.`

type opts struct {
	N      int    `docopt:"--N"`
	Z      int    `docopt:"--Z"`
	L      int    `docopt:"--L"`
	Ops    int    `docopt:"--ops"`
	Warmup int    `docopt:"--warmup"`
	Seed   int    `docopt:"--seed"`
	Out    string `docopt:"--out"`
}

func init() {
	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "15:04:05.000",
		FullTimestamp:   true,
	})
}

// ceilLog2 returns the smallest l with 2^l >= n, for n > 0.
func ceilLog2(n int) int {
	return bits.Len(uint(n - 1))
}

func main() {
	os.Exit(run())
}

func run() int {
	parsed, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Errorf("parse arguments: %v", err)
		return 1
	}
	var o opts
	if err := parsed.Bind(&o); err != nil {
		log.Errorf("bind arguments: %v", err)
		return 1
	}

	if o.N > 0 && o.L < ceilLog2(o.N) {
		log.Warnf("L=%d is less than ceil(log2(N))=%d", o.L, ceilLog2(o.N))
		return 2
	}

	log.Infof("initializing Path ORAM: N=%d, Z=%d, L=%d, seed=%d", o.N, o.Z, o.L, o.Seed)
	oram, err := oramsim.New(oramsim.Config{
		NumBlocks:  o.N,
		BucketSize: o.Z,
		Height:     o.L,
		Seed:       int64(o.Seed),
	})
	if err != nil {
		log.Errorf("construct ORAM: %v", err)
		return 1
	}

	log.Infof("simulating: totalOps=%d, warmup=%d", o.Ops, o.Warmup)
	res, err := oram.Simulate(o.Ops, o.Warmup)
	if err != nil {
		log.Errorf("simulate: %v", err)
		return 1
	}

	log.Infof("recorded accesses: %d", res.Recorded)
	log.Infof("max stash observed: %d", res.MaxStash)

	if o.Out != "" {
		if err := oramsim.WriteTailCounts(o.Out, res); err != nil {
			log.Errorf("write output: %v", err)
			return 1
		}
		log.Infof("wrote file: %s", o.Out)
	}
	return 0
}
