package window

import (
	"math"
	"reflect"
	"testing"
)

func TestStatsSegmentFirst(t *testing.T) {
	// Non-zero segments are [2,4] (3,4,5) and [7,8] (20,20). Windows of
	// size 2 over [2,4]: [2,3] mean 3.5 and [4,4] mean 5; over [7,8]:
	// [7,8] mean 20.
	depths := []int32{0, 0, 3, 4, 5, 0, 0, 20, 20, 0}
	w := Stats(depths, 2)

	wantMeans := []float64{3.5, 5, 20}
	wantStarts := []int{2, 4, 7}
	wantEnds := []int{3, 4, 8}

	if !reflect.DeepEqual(w.Means, wantMeans) {
		t.Errorf("Means = %v, want %v", w.Means, wantMeans)
	}
	if !reflect.DeepEqual(w.Starts, wantStarts) {
		t.Errorf("Starts = %v, want %v", w.Starts, wantStarts)
	}
	if !reflect.DeepEqual(w.Ends, wantEnds) {
		t.Errorf("Ends = %v, want %v", w.Ends, wantEnds)
	}
}

func TestStatsTilesWithoutGaps(t *testing.T) {
	// With no zero values and N a multiple of the window size, windows
	// must tile the sequence exactly.
	depths := make([]int32, 120)
	for i := range depths {
		depths[i] = int32(i%7 + 1)
	}
	w := Stats(depths, 10)

	if w.Len() != 12 {
		t.Fatalf("Len = %d, want 12", w.Len())
	}
	if w.Starts[0] != 0 {
		t.Errorf("first window starts at %d, want 0", w.Starts[0])
	}
	if w.Ends[w.Len()-1] != len(depths)-1 {
		t.Errorf("last window ends at %d, want %d", w.Ends[w.Len()-1], len(depths)-1)
	}
	for i := 1; i < w.Len(); i++ {
		if w.Starts[i] != w.Ends[i-1]+1 {
			t.Errorf("window %d starts at %d, want %d (no gap/overlap)", i, w.Starts[i], w.Ends[i-1]+1)
		}
	}
}

func TestStatsShortSegmentTail(t *testing.T) {
	// The final window of a segment may be shorter and is never merged
	// with the next segment.
	depths := []int32{1, 1, 1, 0, 2, 2}
	w := Stats(depths, 2)

	wantStarts := []int{0, 2, 4}
	wantEnds := []int{1, 2, 5}
	if !reflect.DeepEqual(w.Starts, wantStarts) || !reflect.DeepEqual(w.Ends, wantEnds) {
		t.Errorf("windows = %v..%v, want %v..%v", w.Starts, w.Ends, wantStarts, wantEnds)
	}
}

func TestStatsEmpty(t *testing.T) {
	w := Stats(nil, 100)
	if w.Len() != 0 || w.Means == nil || w.Starts == nil || w.Ends == nil {
		t.Errorf("empty input should yield three empty slices, got %+v", w)
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		name   string
		depths []int32
		want   []Interval
	}{
		{
			name:   "bounded by zeros",
			depths: []int32{0, 1, 2, 0, 3, 0},
			want:   []Interval{{1, 2}, {4, 4}},
		},
		{
			name:   "run to sequence end",
			depths: []int32{0, 0, 5, 5},
			want:   []Interval{{2, 3}},
		},
		{
			name:   "all zero",
			depths: []int32{0, 0, 0},
			want:   nil,
		},
		{
			name:   "all positive",
			depths: []int32{1, 2, 3},
			want:   []Interval{{0, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Segments(tt.depths); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Segments = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMovingShortSequenceCollapses(t *testing.T) {
	depths := []int32{2, 4, 6}
	positions, means := Moving(depths, 10)

	if len(means) != 1 {
		t.Fatalf("got %d windows, want 1", len(means))
	}
	if means[0] != 4 {
		t.Errorf("mean = %v, want 4 (mean of whole sequence)", means[0])
	}
	if positions[0] != 1 {
		t.Errorf("position = %d, want midpoint 1", positions[0])
	}
}

func TestMovingMatchesStatsOnExactTiling(t *testing.T) {
	// For a sequence with no zeros, the moving average over a window
	// starting at a tile boundary equals the segment-first tile mean.
	depths := []int32{4, 6, 8, 2, 10, 4}
	tiles := Stats(depths, 2)
	positions, means := Moving(depths, 2)

	if len(means) != len(depths)-1 {
		t.Fatalf("got %d moving windows, want %d", len(means), len(depths)-1)
	}
	for i, s := range tiles.Starts {
		// Window starting at s has its center recorded at s + (size-1)/2.
		found := false
		for j, p := range positions {
			if p == s {
				found = true
				if math.Abs(means[j]-tiles.Means[i]) > 1e-12 {
					t.Errorf("moving mean at %d = %v, tile mean = %v", s, means[j], tiles.Means[i])
				}
			}
		}
		if !found {
			t.Errorf("no moving window centered at tile start %d", s)
		}
	}
}

func TestMovingEmpty(t *testing.T) {
	positions, means := Moving(nil, 5)
	if len(positions) != 0 || len(means) != 0 {
		t.Errorf("empty input should yield empty outputs, got %v %v", positions, means)
	}
}

func TestMergeSimilar(t *testing.T) {
	positions := []int{0, 1, 2, 3, 4}
	means := []float64{1.0, 1.05, 1.09, 5.0, 5.01}

	merged, mergedMeans := MergeSimilar(positions, means, 0.1)
	wantIntervals := []Interval{{0, 2}, {3, 4}}
	wantMeans := []float64{1.0, 5.0}

	if !reflect.DeepEqual(merged, wantIntervals) {
		t.Errorf("merged = %v, want %v", merged, wantIntervals)
	}
	if !reflect.DeepEqual(mergedMeans, wantMeans) {
		t.Errorf("means = %v, want %v", mergedMeans, wantMeans)
	}
}
