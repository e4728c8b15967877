package oramsim

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"github.com/pkg/errors"
)

// WriteTailCounts writes a simulation result in the line-oriented
// format the reporting tools parse:
//
//	-1,<S>
//	<i>,<tail_count_i>    for i = 0 .. maxStash
//
// The write is atomic: readers never observe a partial file.
func WriteTailCounts(path string, res *SimResult) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "-1,%d\n", res.Recorded)
	for i, c := range res.TailCounts {
		fmt.Fprintf(&buf, "%d,%d\n", i, c)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write tail counts to %s", path)
	}
	return nil
}

// ReadTailCounts parses a tail-count file written by WriteTailCounts.
// It returns the recorded-sample count S and the tail counts indexed
// by stash-size threshold.
func ReadTailCounts(path string) (int, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, errors.Wrap(err, "open tail counts")
	}
	defer f.Close()

	total := -1
	counts := make(map[int]int)
	maxThreshold := -1

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, ",", 2)
		if len(fields) != 2 {
			return 0, nil, errors.Errorf("malformed line %q in %s", line, path)
		}
		i, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return 0, nil, errors.Wrapf(err, "parse threshold in %q", line)
		}
		v, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return 0, nil, errors.Wrapf(err, "parse count in %q", line)
		}
		if i == -1 {
			total = v
			continue
		}
		if i < 0 {
			return 0, nil, errors.Errorf("negative threshold %d in %s", i, path)
		}
		counts[i] = v
		if i > maxThreshold {
			maxThreshold = i
		}
	}
	if err := sc.Err(); err != nil {
		return 0, nil, errors.Wrap(err, "read tail counts")
	}
	if total < 0 {
		return 0, nil, errors.Errorf("no total line (-1,S) found in %s", path)
	}

	tails := make([]int, maxThreshold+1)
	for i, v := range counts {
		tails[i] = v
	}
	return total, tails, nil
}

// Exceedance returns the thresholds R > 0 and the corresponding
// probabilities P[stash size > R] = tails[R] / total.
func Exceedance(total int, tails []int) (rs []int, probs []float64) {
	for r := 1; r < len(tails); r++ {
		rs = append(rs, r)
		probs = append(probs, float64(tails[r])/float64(total))
	}
	return rs, probs
}
