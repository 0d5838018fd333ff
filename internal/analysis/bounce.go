package analysis

import "math"

// BounceReport describes the vertical motion of a body dropped onto a
// surface.
type BounceReport struct {
	// Apexes are the local maxima of height after the first impact.
	Apexes []float64
	// Impacts are the sample indices of local minima.
	Impacts []int
	// Restitution is estimated from successive apex heights above rest:
	// e = sqrt(h[n+1] / h[n]), averaged. Zero when fewer than two apexes.
	Restitution float64
	Rest        float64
}

// Bounces finds impacts and apexes in a height trace. Extrema smaller than
// tol above the resting height are ignored.
func Bounces(heights []float64, tol float64) BounceReport {
	var r BounceReport
	if len(heights) < 3 {
		return r
	}
	r.Rest = heights[len(heights)-1]
	for _, h := range heights {
		r.Rest = math.Min(r.Rest, h)
	}

	for i := 1; i < len(heights)-1; i++ {
		prev, h, next := heights[i-1], heights[i], heights[i+1]
		switch {
		case h < prev && h <= next:
			r.Impacts = append(r.Impacts, i)
		case h > prev && h >= next && len(r.Impacts) > 0 && h-r.Rest > tol:
			r.Apexes = append(r.Apexes, h)
		}
	}

	var sum float64
	var n int
	for i := 1; i < len(r.Apexes); i++ {
		a, b := r.Apexes[i-1]-r.Rest, r.Apexes[i]-r.Rest
		if a <= 0 || b <= 0 {
			continue
		}
		sum += math.Sqrt(b / a)
		n++
	}
	if n > 0 {
		r.Restitution = sum / float64(n)
	}
	return r
}
