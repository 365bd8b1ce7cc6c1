// Package depth loads per-base sequencing-depth data and its companion
// inputs (FAI index, BED regions).
//
// Depth sources are FASTA-like text files, optionally gzip-compressed:
// header lines starting with '>' carry a sequence ID, and each following
// body line carries one non-negative integer depth value for the next base.
// Parsing is single-pass and streaming; a sequence's values are accumulated
// only while it is the current sequence.
package depth

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/pgzip"
	"gopkg.in/fatih/set.v0"

	"github.com/asmqc/depthmontage/pkg/errors"
)

// MaxDepth is the largest representable per-base depth. Values above it are
// clamped, not rejected.
const MaxDepth = 65535

// progressEvery is the cadence of collected-sequence progress notices.
const progressEvery = 5

// Store maps sequence IDs to their per-base depth values. A Store is built
// once by a parse pass and never mutated afterwards.
type Store struct {
	sequences map[string][]uint16
	means     map[string]float64
}

// ParseFile parses the depth source at path, restricted to the target
// sequence IDs. An empty (or nil) target set means all sequences are kept.
// Files ending in .gz are decompressed transparently.
func ParseFile(ctx context.Context, path string, targets set.Interface, logger *log.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "open depth source %s", path)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReaderSize(f, 4*1024*1024)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "decompress depth source %s", path)
		}
		defer gz.Close()
		r = gz
	}

	if logger != nil {
		logger.Debugf("parsing depth source %s", path)
	}
	return Parse(ctx, r, targets, logger)
}

// Parse parses a depth source from r, restricted to the target sequence IDs
// (empty or nil set means all). Malformed value lines are skipped silently;
// negative values are dropped and values above MaxDepth are clamped. Target
// IDs never seen in the source are simply absent from the result.
func Parse(ctx context.Context, r io.Reader, targets set.Interface, logger *log.Logger) (*Store, error) {
	st := &Store{
		sequences: make(map[string][]uint16),
		means:     make(map[string]float64),
	}

	keepAll := targets == nil || targets.Size() == 0
	var (
		currentID string
		current   []uint16
		sum       float64
		include   bool
		collected int
		skipped   int
	)

	commit := func() {
		if currentID == "" {
			return
		}
		if !include {
			skipped++
			return
		}
		st.sequences[currentID] = current
		if len(current) > 0 {
			st.means[currentID] = sum / float64(len(current))
		} else {
			st.means[currentID] = 0
		}
		collected++
		if logger != nil && collected%progressEvery == 0 {
			logger.Infof("collected depth data for %d target sequences", collected)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, ">") {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			commit()
			currentID = line[1:]
			include = keepAll || targets.Has(currentID)
			current = nil
			sum = 0
			continue
		}
		if !include || currentID == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil || v < 0 {
			// Malformed or negative lines are parse-skips, never fatal.
			continue
		}
		if v > MaxDepth {
			v = MaxDepth
		}
		current = append(current, uint16(v))
		sum += float64(v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceMissing, err, "read depth source")
	}
	commit()

	if logger != nil {
		logger.Infof("parsing completed: collected %d sequences, skipped %d", collected, skipped)
	}
	return st, nil
}

// NewStore builds a Store directly from in-memory depth arrays. Intended for
// tests and synthetic inputs; values are clamped like parsed ones.
func NewStore(sequences map[string][]int) *Store {
	st := &Store{
		sequences: make(map[string][]uint16, len(sequences)),
		means:     make(map[string]float64, len(sequences)),
	}
	for id, vals := range sequences {
		seq := make([]uint16, 0, len(vals))
		var sum float64
		for _, v := range vals {
			if v < 0 {
				continue
			}
			if v > MaxDepth {
				v = MaxDepth
			}
			seq = append(seq, uint16(v))
			sum += float64(v)
		}
		st.sequences[id] = seq
		if len(seq) > 0 {
			st.means[id] = sum / float64(len(seq))
		}
	}
	return st
}

// IDs returns the stored sequence IDs in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.sequences))
	for id := range s.sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether the store holds depth data for id.
func (s *Store) Has(id string) bool {
	_, ok := s.sequences[id]
	return ok
}

// Len returns the number of bases stored for id, 0 when absent.
func (s *Store) Len(id string) int {
	return len(s.sequences[id])
}

// Mean returns the arithmetic mean depth over all positions of id, 0 when
// the sequence is empty or absent.
func (s *Store) Mean(id string) float64 {
	return s.means[id]
}

// Depths returns a widened copy of the depth values for id, or an empty
// slice when absent.
func (s *Store) Depths(id string) []int32 {
	return s.Region(id, 0, len(s.sequences[id])-1)
}

// Region returns the depth values of id over the closed interval
// [start, end], clipped to the stored range. An invalid or empty interval
// yields an empty slice.
func (s *Store) Region(id string, start, end int) []int32 {
	seq, ok := s.sequences[id]
	if !ok {
		return []int32{}
	}
	if start < 0 {
		start = 0
	}
	if end >= len(seq) {
		end = len(seq) - 1
	}
	if start > end {
		return []int32{}
	}
	out := make([]int32, end-start+1)
	for i := start; i <= end; i++ {
		out[i-start] = int32(seq[i])
	}
	return out
}
