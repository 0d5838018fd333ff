package analysis

import (
	"math"
	"strings"
	"testing"
)

func sine(freq, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	dt := 1.0 / 60
	got := DominantFrequency(sine(2, dt, 240), dt)
	if math.Abs(got-2) > 0.25 {
		t.Errorf("expected ~2Hz, got %f", got)
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 7
	}
	if f := DominantFrequency(flat, 0.01); f != 0 {
		t.Errorf("flat signal should have no dominant frequency, got %f", f)
	}
}

func TestSpectrumShortInput(t *testing.T) {
	if Spectrum([]float64{1}, 0.1) != nil {
		t.Error("expected nil spectrum for one sample")
	}
	if Spectrum([]float64{1, 2, 3}, 0) != nil {
		t.Error("expected nil spectrum for zero dt")
	}
}

func TestPeaks(t *testing.T) {
	dt := 1.0 / 100
	n := 400
	values := make([]float64, n)
	for i := range values {
		ti := float64(i) * dt
		values[i] = math.Sin(2*math.Pi*5*ti) + 0.3*math.Sin(2*math.Pi*12*ti)
	}
	peaks := Peaks(Spectrum(values, dt), 2)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	if math.Abs(peaks[0].Freq-5) > 0.3 || math.Abs(peaks[1].Freq-12) > 0.3 {
		t.Errorf("unexpected peaks: %+v", peaks)
	}
}

// ballistic drops a point from h0 onto y=0 with restitution e.
func ballistic(h0, e, dt float64, n int) []float64 {
	y, v := h0, 0.0
	out := make([]float64, n)
	for i := range out {
		v -= 9.81 * dt
		y += v * dt
		if y < 0 {
			y = 0
			v = -e * v
		}
		out[i] = y
	}
	return out
}

func TestBouncesRecoverRestitution(t *testing.T) {
	r := Bounces(ballistic(4, 0.5, 1.0/600, 6000), 0.01)
	if len(r.Impacts) < 3 {
		t.Fatalf("expected several impacts, got %d", len(r.Impacts))
	}
	if len(r.Apexes) < 2 {
		t.Fatalf("expected at least 2 apexes, got %d", len(r.Apexes))
	}
	if math.Abs(r.Restitution-0.5) > 0.05 {
		t.Errorf("expected restitution ~0.5, got %f", r.Restitution)
	}
}

func TestBouncesNoMotion(t *testing.T) {
	r := Bounces([]float64{1, 1, 1, 1}, 1e-3)
	if len(r.Apexes) != 0 || r.Restitution != 0 {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestPhasePortrait(t *testing.T) {
	dt := 0.01
	values := make([]float64, 100)
	for i := range values {
		values[i] = 2 * float64(i) * dt // constant velocity 2
	}
	p := NewPhasePortrait(values, dt)
	if len(p.Points) != 98 {
		t.Fatalf("expected 98 points, got %d", len(p.Points))
	}
	for _, pt := range p.Points {
		if math.Abs(pt.Y-2) > 1e-9 {
			t.Fatalf("expected velocity 2, got %f", pt.Y)
		}
	}

	art := p.ASCII(40, 10)
	if lines := strings.Count(art, "\n"); lines != 10 {
		t.Errorf("expected 10 lines, got %d", lines)
	}
	if !strings.Contains(art, "•") {
		t.Error("expected plotted points")
	}
}

func TestPhasePortraitEmpty(t *testing.T) {
	if NewPhasePortrait([]float64{1, 2}, 0.1).ASCII(10, 5) != "" {
		t.Error("expected empty plot")
	}
}
