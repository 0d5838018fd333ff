// Package audio turns simulation energy into sound: a soft pad whose filter
// opens with kinetic energy, plus a short pluck whenever a sudden energy
// loss signals an impact.
package audio

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"

	"github.com/san-kum/rigidlab/internal/logger"
	"github.com/san-kum/rigidlab/internal/metrics"
	"github.com/san-kum/rigidlab/internal/world"
)

const (
	SampleRate = 44100
	BufferSize = 1024

	// impactRatio is the fraction of kinetic energy that must vanish in one
	// tick to count as an impact.
	impactRatio = 0.2
	minImpact   = 0.05
)

// pad chord: G2 Bb2 D3 F3 A3
var padFreqs = []float64{98.00, 116.54, 146.83, 174.61, 220.00}

// Synth is the sample generator. It holds no device state.
type Synth struct {
	mu     sync.Mutex
	energy float64
	pluck  float64

	time        float64
	smooth      float64
	filter      [2]float64
	delay       [2][]float64
	head        int
	pluckEnv    float64
	pluckPhase  float64
	pluckFreq   float64
	pendingFreq float64
}

func NewSynth() *Synth {
	n := int(SampleRate * 0.6)
	return &Synth{delay: [2][]float64{make([]float64, n), make([]float64, n)}}
}

// SetEnergy sets the kinetic energy the pad follows.
func (s *Synth) SetEnergy(e float64) {
	s.mu.Lock()
	s.energy = e
	s.mu.Unlock()
}

// Impact queues a pluck; louder and higher for larger strength.
func (s *Synth) Impact(strength float64) {
	s.mu.Lock()
	s.pluck = math.Max(s.pluck, math.Min(strength, 1))
	s.pendingFreq = 440 + 440*math.Min(strength, 1)
	s.mu.Unlock()
}

func triangle(phase float64) float64 {
	p := phase - math.Floor(phase)
	return 4*math.Abs(p-0.5) - 1
}

func lowpass(sample, cutoff, dt, state float64) float64 {
	rc := 1 / (2 * math.Pi * cutoff)
	return state + dt/(rc+dt)*(sample-state)
}

// Fill writes stereo samples; it is the portaudio stream callback.
func (s *Synth) Fill(out [][]float32) {
	s.mu.Lock()
	target := s.energy
	if s.pluck > 0 {
		s.pluckEnv = s.pluck
		s.pluckFreq = s.pendingFreq
		s.pluck = 0
	}
	s.mu.Unlock()

	s.smooth = s.smooth*0.995 + target*0.005
	cutoff := 300 + math.Min(s.smooth/5, 900)
	dt := 1.0 / SampleRate
	const vol = 0.25

	for i := range out[0] {
		var l, r float64
		for j, f := range padFreqs {
			g := 1 / float64(len(padFreqs))
			lfo := 0.7 + 0.3*math.Sin(s.time*0.2+float64(j))
			l += triangle(s.time*f*0.999) * g * lfo
			r += triangle(s.time*f*1.001) * g * lfo
		}
		if s.pluckEnv > 1e-4 {
			p := math.Sin(2*math.Pi*s.pluckPhase) * s.pluckEnv
			l += p
			r += p
			s.pluckPhase += s.pluckFreq * dt
			s.pluckEnv *= 0.9995
		}

		s.filter[0] = lowpass(l, cutoff, dt, s.filter[0])
		s.filter[1] = lowpass(r, cutoff, dt, s.filter[1])

		dl, dr := s.delay[0][s.head], s.delay[1][s.head]
		mixL := s.filter[0] + dl*0.3 + dr*0.1
		mixR := s.filter[1] + dr*0.3 + dl*0.1
		s.delay[0][s.head] = mixL * 0.7
		s.delay[1][s.head] = mixR * 0.7
		s.head = (s.head + 1) % len(s.delay[0])

		out[0][i] = float32(clamp(mixL*vol, -1, 1))
		out[1][i] = float32(clamp(mixR*vol, -1, 1))
		s.time += dt
	}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// impactStrength compares kinetic energy across one tick. It returns 0 when
// the drop is too small to hear.
func impactStrength(prev, cur float64) float64 {
	drop := prev - cur
	if prev <= 0 || drop < minImpact || drop < impactRatio*prev {
		return 0
	}
	return drop / prev
}

// Sonifier plays a Synth on the default output device and follows the
// world it observes. It implements sim.Observer.
type Sonifier struct {
	Synth  *Synth
	stream *portaudio.Stream
	prevKE float64
	log    *log.Logger
}

func NewSonifier(l *log.Logger) *Sonifier {
	return &Sonifier{Synth: NewSynth(), log: logger.OrDiscard(l)}
}

func (s *Sonifier) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, s.Synth.Fill)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	s.stream = stream
	s.log.Info("audio started", "rate", SampleRate)
	return nil
}

func (s *Sonifier) Stop() {
	if s.stream == nil {
		return
	}
	s.stream.Stop()
	s.stream.Close()
	portaudio.Terminate()
	s.stream = nil
}

func (s *Sonifier) OnTick(w *world.World, tick int) {
	ke := metrics.KineticEnergy(w)
	if strength := impactStrength(s.prevKE, ke); strength > 0 {
		s.Synth.Impact(strength)
		s.log.Debug("impact", "tick", tick, "strength", strength)
	}
	s.prevKE = ke
	s.Synth.SetEnergy(ke)
}
