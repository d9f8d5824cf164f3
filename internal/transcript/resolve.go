package transcript

// Resolve returns the index of the first segment, in collection order, whose
// closed interval [Start, End] contains t. Overlapping or unsorted segments
// are allowed; the lowest index always wins.
func Resolve(t float64, segs []Segment) (int, bool) {
	for i, seg := range segs {
		if seg.Contains(t) {
			return i, true
		}
	}
	return -1, false
}
