package window

// DefaultMinSafeDepth is the default threshold below which non-zero coverage
// is flagged as low depth.
const DefaultMinSafeDepth = 5

// Regions holds the classified depth regions of one sequence. Zero and Low
// are maximal closed intervals ordered by start index; normal regions are
// computed separately only where a caller needs them.
type Regions struct {
	Zero []Interval
	Low  []Interval
}

// Classify labels positions of depths against the minimum-safe-depth
// threshold: zero = value 0, low = 0 < value < minSafe. Adjacent same-label
// positions are merged into single closed intervals.
func Classify(depths []int32, minSafe int) Regions {
	t := int32(minSafe)
	return Regions{
		Zero: maskRegions(depths, func(v int32) bool { return v == 0 }),
		Low:  maskRegions(depths, func(v int32) bool { return v > 0 && v < t }),
	}
}

// Normal returns the maximal intervals of positions with value >= minSafe.
func Normal(depths []int32, minSafe int) []Interval {
	t := int32(minSafe)
	return maskRegions(depths, func(v int32) bool { return v >= t })
}

// Combine returns the elementwise sum of the two depth arrays, used when a
// combined-coverage classification over both datasets is wanted. When either
// input is empty the other is returned unchanged. The inputs must otherwise
// have equal lengths; the shorter-length check is the caller's concern.
func Combine(a, b []int32) []int32 {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	sum := make([]int32, len(a))
	for i := range a {
		sum[i] = a[i] + b[i]
	}
	return sum
}

// maskRegions scans depths once and merges adjacent positions matching pred
// into maximal closed intervals. A run extending to the final index is
// closed at sequence end.
func maskRegions(depths []int32, pred func(int32) bool) []Interval {
	var regions []Interval
	start := -1
	for i, v := range depths {
		if pred(v) && start < 0 {
			start = i
		} else if !pred(v) && start >= 0 {
			regions = append(regions, Interval{Start: start, End: i - 1})
			start = -1
		}
	}
	if start >= 0 {
		regions = append(regions, Interval{Start: start, End: len(depths) - 1})
	}
	return regions
}
