package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Bin is one frequency bin of a power spectrum.
type Bin struct {
	Freq  float64
	Power float64
}

// Spectrum returns the one-sided power spectrum of values sampled every dt
// seconds. The mean is removed first, so a resting body has no power. A
// Hann window limits leakage from non-periodic runs.
func Spectrum(values []float64, dt float64) []Bin {
	n := len(values)
	if n < 2 || dt <= 0 {
		return nil
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range values {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * w
	}

	coeffs := fft.FFTReal(windowed)
	bins := make([]Bin, n/2+1)
	for k := range bins {
		a := cmplx.Abs(coeffs[k])
		bins[k] = Bin{Freq: float64(k) / (float64(n) * dt), Power: a * a / float64(n)}
	}
	return bins
}

// DominantFrequency returns the frequency of the strongest non-DC bin, or 0
// when the signal is flat.
func DominantFrequency(values []float64, dt float64) float64 {
	bins := Spectrum(values, dt)
	best, power := 0.0, 0.0
	for _, b := range bins[min(1, len(bins)):] {
		if b.Power > power {
			best, power = b.Freq, b.Power
		}
	}
	if power < 1e-12 {
		return 0
	}
	return best
}

// Peaks returns the n strongest non-DC bins, strongest first.
func Peaks(bins []Bin, n int) []Bin {
	var out []Bin
	for i := 1; i < len(bins)-1; i++ {
		if bins[i].Power <= bins[i-1].Power || bins[i].Power < bins[i+1].Power {
			continue
		}
		out = append(out, bins[i])
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Power > out[j-1].Power; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
