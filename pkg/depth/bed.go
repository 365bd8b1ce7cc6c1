package depth

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/asmqc/depthmontage/pkg/errors"
	"github.com/asmqc/depthmontage/pkg/window"
)

// ParseBED reads a BED-style region file and returns regions per sequence,
// sorted by start. Lines starting with '#' and blank lines are ignored;
// lines with fewer than three columns or malformed coordinates are skipped.
func ParseBED(path string, logger *log.Logger) (map[string][]window.Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "open region file %s", path)
	}
	defer f.Close()

	regions := make(map[string][]window.Interval)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		start, err1 := strconv.Atoi(fields[1])
		end, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			if logger != nil {
				logger.Debugf("skipping malformed region line: %s", line)
			}
			continue
		}
		regions[fields[0]] = append(regions[fields[0]], window.Interval{Start: start, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "read region file")
	}

	for id := range regions {
		ivs := regions[id]
		sort.Slice(ivs, func(i, j int) bool {
			if ivs[i].Start != ivs[j].Start {
				return ivs[i].Start < ivs[j].Start
			}
			return ivs[i].End < ivs[j].End
		})
	}
	return regions, nil
}

// ParseRegionLiteral parses a single chrom:start-end region argument.
func ParseRegionLiteral(raw string) (string, window.Interval, error) {
	var iv window.Interval
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 || idx == len(raw)-1 {
		return "", iv, errors.New(errors.ErrCodeInvalidRegion, "invalid region literal %q (want chrom:start-end)", raw)
	}
	id := raw[:idx]
	bounds := strings.SplitN(raw[idx+1:], "-", 2)
	if len(bounds) != 2 {
		return "", iv, errors.New(errors.ErrCodeInvalidRegion, "invalid region literal %q (want chrom:start-end)", raw)
	}
	start, err1 := strconv.Atoi(bounds[0])
	end, err2 := strconv.Atoi(bounds[1])
	if err1 != nil || err2 != nil || start > end {
		return "", iv, errors.New(errors.ErrCodeInvalidRegion, "invalid region bounds in %q", raw)
	}
	iv = window.Interval{Start: start, End: end}
	return id, iv, nil
}
