package montage

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/asmqc/depthmontage/pkg/depth"
	"github.com/asmqc/depthmontage/pkg/errors"
	"github.com/asmqc/depthmontage/pkg/window"
)

// targetSelection names the two sequences anchored to the diagram rows,
// with optional per-sequence base ranges taken from the karyotype.
type targetSelection struct {
	Chr1, Chr2 string
	// Ranges are 0-based closed intervals keyed by sequence ID. A missing
	// entry means the full sequence.
	Ranges map[string]window.Interval
}

// selectTargets derives the two row sequences from a karyotype file, or
// falls back to the first two index entries when the karyotype is absent.
// Karyotype tokens are `name` or `name:start:end` with 1-based inclusive
// coordinates.
func selectTargets(karyotypePath, faiPath string, logger *log.Logger) (targetSelection, error) {
	sel := targetSelection{Ranges: make(map[string]window.Interval)}

	var names []string
	if karyotypePath != "" {
		if _, err := os.Stat(karyotypePath); err == nil {
			var perr error
			names, perr = parseKaryotype(karyotypePath, sel.Ranges, logger)
			if perr != nil {
				return sel, perr
			}
		}
	}

	if len(names) < 2 {
		lengths, err := depth.ParseFAI(faiPath)
		if err != nil {
			return sel, err
		}
		if len(lengths) == 0 {
			return sel, errors.New(errors.ErrCodeNoData, "index %s lists no sequences", faiPath)
		}
		names = names[:0]
		for _, sl := range lengths {
			names = append(names, sl.ID)
			if len(names) == 2 {
				break
			}
		}
	}

	sel.Chr1 = names[0]
	sel.Chr2 = sel.Chr1
	if len(names) > 1 {
		sel.Chr2 = names[1]
	}
	return sel, nil
}

// parseKaryotype collects up to two sequence names and their optional
// ranges. Malformed range tokens keep the name and drop the range.
func parseKaryotype(path string, ranges map[string]window.Interval, logger *log.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "opening karyotype %s", path)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		token := strings.Fields(line)[0]
		parts := strings.Split(token, ":")
		base := parts[0]
		names = append(names, base)
		if len(parts) == 3 {
			start, err1 := strconv.Atoi(parts[1])
			end, err2 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil {
				logger.Debug("ignoring malformed karyotype range", "token", token)
			} else {
				// 1-based inclusive to 0-based closed.
				ranges[base] = window.Interval{Start: max0(start - 1), End: max0(end - 1)}
			}
		}
		if len(names) == 2 {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "reading karyotype %s", path)
	}
	return names, nil
}

// sliceToRange clips both depth arrays to a karyotype range, bounded by
// whichever arrays are present.
func sliceToRange(a, b []int32, iv window.Interval) ([]int32, []int32) {
	s := max0(iv.Start)
	e := iv.End
	if len(a) > 0 && e > len(a)-1 {
		e = len(a) - 1
	}
	if len(b) > 0 && e > len(b)-1 {
		e = len(b) - 1
	}
	if e < s {
		return a, b
	}
	if len(a) > 0 {
		a = a[s : e+1]
	}
	if len(b) > 0 {
		b = b[s : e+1]
	}
	return a, b
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
