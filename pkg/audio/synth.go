package audio

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Synth generates audio blocks through the same DeliverFunc contract as
// a real capture stream. It backs --demo mode and tests: a set of
// amplitude-modulated oscillators plus a little noise, or a single pure
// tone.
type Synth struct {
	sampleRate int
	blockSize  int
	deliver    DeliverFunc
	oscs       []synthOsc
	noise      float64

	t float64

	mu      sync.Mutex
	stopc   chan struct{}
	done    chan struct{}
	running bool
}

type synthOsc struct {
	freq    float64
	amp     float64
	ampMod  float64
	ampModF float64
}

// NewSynth returns a demo source with a musical-ish spread of partials.
func NewSynth(sampleRate, blockSize int, deliver DeliverFunc) *Synth {
	return &Synth{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		deliver:    deliver,
		noise:      0.005,
		oscs: []synthOsc{
			{freq: 65, amp: 0.5, ampMod: 0.8, ampModF: 1.9},
			{freq: 110, amp: 0.4, ampMod: 0.7, ampModF: 1.1},
			{freq: 220, amp: 0.3, ampMod: 0.6, ampModF: 2.6},
			{freq: 440, amp: 0.3, ampMod: 0.7, ampModF: 0.7},
			{freq: 880, amp: 0.2, ampMod: 0.5, ampModF: 1.4},
			{freq: 1760, amp: 0.12, ampMod: 0.5, ampModF: 3.1},
			{freq: 3520, amp: 0.07, ampMod: 0.4, ampModF: 2.2},
			{freq: 7040, amp: 0.04, ampMod: 0.4, ampModF: 4.8},
		},
	}
}

// NewTone returns a source emitting a single steady sinusoid at freq Hz.
func NewTone(sampleRate, blockSize int, freq, amp float64, deliver DeliverFunc) *Synth {
	return &Synth{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		deliver:    deliver,
		oscs:       []synthOsc{{freq: freq, amp: amp}},
	}
}

// Block synthesizes and delivers exactly one block. Useful in tests
// that want to drive the pipeline without real-time pacing.
func (s *Synth) Block() {
	out := make([]float32, s.blockSize)
	dt := 1.0 / float64(s.sampleRate)
	for i := range out {
		t := s.t + float64(i)*dt
		var v float64
		for _, o := range s.oscs {
			amp := o.amp
			if o.ampMod > 0 {
				amp *= 1 - o.ampMod + o.ampMod*math.Abs(math.Sin(2*math.Pi*o.ampModF*t))
			}
			v += amp * math.Sin(2*math.Pi*o.freq*t)
		}
		if s.noise > 0 {
			v += (rand.Float64()*2 - 1) * s.noise
		}
		out[i] = float32(v)
	}
	s.t += float64(s.blockSize) * dt
	s.deliver(out)
}

// Start begins delivering blocks paced to the nominal sample clock.
func (s *Synth) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopc = make(chan struct{})
	s.done = make(chan struct{})

	interval := time.Duration(float64(time.Second) * float64(s.blockSize) / float64(s.sampleRate))
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopc:
				return
			case <-ticker.C:
				s.Block()
			}
		}
	}()
}

// Stop halts delivery. Idempotent.
func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopc)
	<-s.done
	return nil
}
