package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/docopt/docopt-go"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/etclab/oramsim"
)

const usage = `Plot Path ORAM stash-size exceedance probabilities.

Reads tail-count files produced by oramsim and renders
Pr[stash size > R] against R on a logarithmic axis.

Usage:
  stashplot [--out=<png>] <series>...
  stashplot -h | --help

Arguments:
  <series>     A tail-count file, optionally prefixed with a legend
               label: "Z = 4=simulation2.txt" or just "simulation2.txt".

Options:
  --out=<png>  Output image path [default: stash_probability_plot.png].
  -h --help    Show this help.`

type opts struct {
	Series []string `docopt:"<series>"`
	Out    string   `docopt:"--out"`
}

func init() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "15:04:05.000",
		FullTimestamp:   true,
	})
}

// splitSeries separates an optional "label=" prefix from the file path.
// The path is everything after the last '='; a bare path labels the
// series with its own base name.
func splitSeries(s string) (label, path string) {
	if i := strings.LastIndex(s, "="); i >= 0 {
		return s[:i], s[i+1:]
	}
	return filepath.Base(s), s
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

	p := plot.New()
	p.Title.Text = "Path ORAM Stash Size Probability"
	p.X.Label.Text = "Required stash size R (excluding R=0)"
	p.Y.Label.Text = "Pr[stash size > R]"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	for _, s := range o.Series {
		label, path := splitSeries(s)
		total, tails, err := oramsim.ReadTailCounts(path)
		if err != nil {
			log.Errorf("read %s: %v", path, err)
			return 1
		}

		rs, probs := oramsim.Exceedance(total, tails)
		var xys plotter.XYs
		for i, r := range rs {
			// A zero probability has no finite log; drop it.
			if probs[i] <= 0 {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(r), Y: probs[i]})
		}
		if len(xys) == 0 {
			log.Warnf("%s: no nonzero tail probabilities, skipping", path)
			continue
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			log.Errorf("build series %s: %v", label, err)
			return 1
		}
		p.Add(line, points)
		p.Legend.Add(label, line, points)
	}

	if err := p.Save(7*vg.Inch, 5*vg.Inch, o.Out); err != nil {
		log.Errorf("save plot: %v", err)
		return 1
	}
	log.Infof("saved plot to %s", o.Out)
	return 0
}
