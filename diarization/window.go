package diarization

// ContextWindow returns the inclusive bounds [lo, hi] of the units used to
// embed units[i]. It starts at ±window and, while the covered audio is
// shorter than minStable, grows one unit to the right and then one to the
// left until the span is long enough or both ends are exhausted.
func ContextWindow(units []Unit, i, window int, minStable float64) (lo, hi int) {
	n := len(units)
	lo, hi = max(0, i-window), min(n-1, i+window)
	span := func() float64 { return units[hi].End - units[lo].Start }

	for span() < minStable {
		grew := false
		if hi < n-1 {
			hi++
			grew = true
			if span() >= minStable {
				break
			}
		}
		if lo > 0 {
			lo--
			grew = true
		}
		if !grew {
			break
		}
	}
	return lo, hi
}
