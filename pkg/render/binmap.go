package render

// MapColumns resamples a row of bins onto width display columns. When
// compressing, each column takes the max of its bin range so a
// narrowband peak never vanishes between sample points; when
// stretching, adjacent bins are linearly interpolated. Either way a
// single dominant bin stays within one column of its exact position.
func MapColumns(bins []float64, width int) []float64 {
	if width < 1 || len(bins) == 0 {
		return nil
	}
	out := make([]float64, width)
	if len(bins) == 1 {
		for i := range out {
			out[i] = bins[0]
		}
		return out
	}
	if width < len(bins) {
		for c := range out {
			lo := c * len(bins) / width
			hi := (c + 1) * len(bins) / width
			if hi <= lo {
				hi = lo + 1
			}
			m := bins[lo]
			for _, v := range bins[lo+1 : hi] {
				if v > m {
					m = v
				}
			}
			out[c] = m
		}
		return out
	}
	den := width - 1
	if den < 1 {
		den = 1
	}
	for c := 0; c < width; c++ {
		pos := float64(c) / float64(den) * float64(len(bins)-1)
		lo := int(pos)
		hi := lo + 1
		if hi >= len(bins) {
			hi = len(bins) - 1
		}
		t := pos - float64(lo)
		out[c] = bins[lo]*(1-t) + bins[hi]*t
	}
	return out
}

// Normalize maps a dB value into [0,1] within the configured dynamic
// range, clamping outside it.
func Normalize(db, floor, ceil float64) float64 {
	if ceil <= floor {
		return 0
	}
	v := (db - floor) / (ceil - floor)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
