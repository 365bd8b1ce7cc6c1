// Package window aggregates per-base depth values into fixed-size windows
// and classifies positions into zero/low/normal depth regions.
//
// Windowing is segment-first: a sequence is split into maximal runs of
// strictly positive values before windows are cut, so a window mean is
// never diluted by adjacent zero-depth bases. A second moving-average mode
// is provided for single-dataset full-sequence summaries.
package window

import (
	"gonum.org/v1/gonum/stat"
)

// Interval is a closed index interval [Start, End].
type Interval struct {
	Start int
	End   int
}

// Len returns the number of positions covered by the interval.
func (iv Interval) Len() int { return iv.End - iv.Start + 1 }

// Windows holds windowed depth statistics. The three slices are parallel:
// Means[i] is the arithmetic mean over positions Starts[i]..Ends[i]
// (inclusive) of the source sequence.
type Windows struct {
	Means  []float64
	Starts []int
	Ends   []int
}

// Len returns the number of windows.
func (w Windows) Len() int { return len(w.Means) }

// Stats computes segment-first windowed statistics over depths.
//
// The sequence is first split into contiguous non-zero segments (runs of
// strictly positive values bounded by zeros or sequence edges). Each segment
// is then subdivided into consecutive windows of length size; the final
// window of a segment may be shorter and is never merged into the next
// segment. Start/end indices are absolute positions in depths.
//
// An empty input yields empty (non-nil) slices.
func Stats(depths []int32, size int) Windows {
	w := Windows{
		Means:  []float64{},
		Starts: []int{},
		Ends:   []int{},
	}
	if len(depths) == 0 || size <= 0 {
		return w
	}

	vals := toFloats(depths)
	for _, seg := range Segments(depths) {
		segLen := seg.Len()
		for off := 0; off < segLen; off += size {
			end := off + size
			if end > segLen {
				end = segLen
			}
			absStart := seg.Start + off
			absEnd := seg.Start + end - 1
			w.Means = append(w.Means, stat.Mean(vals[absStart:absEnd+1], nil))
			w.Starts = append(w.Starts, absStart)
			w.Ends = append(w.Ends, absEnd)
		}
	}
	return w
}

// Segments returns the maximal contiguous runs of strictly positive values
// in depths, ordered by start index.
func Segments(depths []int32) []Interval {
	var segs []Interval
	start := -1
	for i, v := range depths {
		if v > 0 && start < 0 {
			start = i
		} else if v == 0 && start >= 0 {
			segs = append(segs, Interval{Start: start, End: i - 1})
			start = -1
		}
	}
	if start >= 0 {
		segs = append(segs, Interval{Start: start, End: len(depths) - 1})
	}
	return segs
}

// Moving computes a moving-average summary over the full sequence without
// segment splitting. It returns window-center positions and the mean over
// each window of length size. When the sequence is shorter than size it
// collapses to a single window covering the whole sequence, centered at the
// midpoint index.
func Moving(depths []int32, size int) (positions []int, means []float64) {
	positions = []int{}
	means = []float64{}
	if len(depths) == 0 || size <= 0 {
		return positions, means
	}

	vals := toFloats(depths)
	if len(depths) < size {
		positions = append(positions, len(depths)/2)
		means = append(means, stat.Mean(vals, nil))
		return positions, means
	}

	// Rolling sum: each valid window shares size-1 values with its
	// predecessor.
	var sum float64
	for _, v := range vals[:size] {
		sum += v
	}
	center := (size - 1) / 2
	positions = append(positions, center)
	means = append(means, sum/float64(size))
	for i := size; i < len(vals); i++ {
		sum += vals[i] - vals[i-size]
		positions = append(positions, i-size+1+center)
		means = append(means, sum/float64(size))
	}
	return positions, means
}

// MergeSimilar merges consecutive moving-average windows whose means differ
// by less than tol into single intervals, returning the merged position
// intervals and their representative means (the first window's mean of each
// run).
func MergeSimilar(positions []int, means []float64, tol float64) ([]Interval, []float64) {
	if len(means) == 0 {
		return []Interval{}, []float64{}
	}

	var merged []Interval
	var mergedMeans []float64
	cur := Interval{Start: positions[0], End: positions[0]}
	curMean := means[0]
	for i := 1; i < len(means); i++ {
		d := means[i] - curMean
		if d < 0 {
			d = -d
		}
		if d < tol {
			cur.End = positions[i]
			continue
		}
		merged = append(merged, cur)
		mergedMeans = append(mergedMeans, curMean)
		cur = Interval{Start: positions[i], End: positions[i]}
		curMean = means[i]
	}
	merged = append(merged, cur)
	mergedMeans = append(mergedMeans, curMean)
	return merged, mergedMeans
}

func toFloats(depths []int32) []float64 {
	vals := make([]float64, len(depths))
	for i, v := range depths {
		vals[i] = float64(v)
	}
	return vals
}
