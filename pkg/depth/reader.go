package depth

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"gopkg.in/fatih/set.v0"

	"github.com/asmqc/depthmontage/pkg/window"
)

// SeqDepths is the per-sequence output of a SynchronizedReader: the depth
// arrays of the two sources for one sequence ID. A source that is absent,
// unreadable, or lacks the sequence contributes an empty array.
type SeqDepths struct {
	ID string
	A  []int32
	B  []int32
}

// Empty reports whether neither source carries data for the sequence.
// Callers must treat an all-empty sequence as a skip condition.
func (s SeqDepths) Empty() bool {
	return len(s.A) == 0 && len(s.B) == 0
}

// SynchronizedReader loads up to two depth sources independently and yields
// per-sequence aligned depth arrays. The two sources are parsed separately
// because they are not guaranteed to list sequences in the same order or to
// contain the same sequence set.
type SynchronizedReader struct {
	// PathA and PathB are the two depth source paths; either may be empty.
	// By convention A is the HiFi source and B the ONT source, but the
	// reader is source-agnostic.
	PathA string
	PathB string

	// Targets restricts which sequence IDs are parsed and yielded; empty
	// or nil means all sequences found in either source.
	Targets set.Interface

	// Regions, when non-nil, filters which sequences are yielded to those
	// with at least one region. It does not slice the arrays.
	Regions map[string][]window.Interval

	Logger *log.Logger
}

// Read parses both sources and returns the aligned per-sequence depth
// arrays, ordered by sequence ID. A parse failure on one source is logged
// as a warning and degrades that source to empty arrays instead of aborting.
func (r *SynchronizedReader) Read(ctx context.Context) ([]SeqDepths, error) {
	storeA := r.parseOne(ctx, r.PathA)
	storeB := r.parseOne(ctx, r.PathB)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := r.sequenceIDs(storeA, storeB)

	out := make([]SeqDepths, 0, len(ids))
	for _, id := range ids {
		if r.Regions != nil {
			if _, ok := r.Regions[id]; !ok {
				continue
			}
		}
		sd := SeqDepths{ID: id, A: []int32{}, B: []int32{}}
		if storeA != nil && storeA.Has(id) {
			sd.A = storeA.Depths(id)
		}
		if storeB != nil && storeB.Has(id) {
			sd.B = storeB.Depths(id)
		}
		out = append(out, sd)
		if r.Logger != nil {
			r.Logger.Debugf("loaded sequence %s (A=%d bases, B=%d bases)", id, len(sd.A), len(sd.B))
		}
	}
	if r.Logger != nil {
		r.Logger.Infof("synchronized read finished: %d sequences", len(out))
	}
	return out, nil
}

// parseOne parses a single source, degrading to nil on failure.
func (r *SynchronizedReader) parseOne(ctx context.Context, path string) *Store {
	if path == "" {
		return nil
	}
	st, err := ParseFile(ctx, path, r.Targets, r.Logger)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warnf("failed to parse depth source %s: %v", path, err)
		}
		return nil
	}
	return st
}

// sequenceIDs returns the sorted set of IDs to yield: the target set when
// non-empty, otherwise the union of IDs available in either store.
func (r *SynchronizedReader) sequenceIDs(storeA, storeB *Store) []string {
	if r.Targets != nil && r.Targets.Size() > 0 {
		ids := make([]string, 0, r.Targets.Size())
		for _, item := range r.Targets.List() {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		return ids
	}

	union := set.New(set.NonThreadSafe)
	for _, st := range []*Store{storeA, storeB} {
		if st == nil {
			continue
		}
		for _, id := range st.IDs() {
			union.Add(id)
		}
	}
	ids := make([]string, 0, union.Size())
	for _, item := range union.List() {
		ids = append(ids, item.(string))
	}
	sort.Strings(ids)
	return ids
}
