// Package dsp turns the incoming sample stream into rows of log-power
// frequency bins via an overlapped, Hann-windowed FFT.
package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// epsilon keeps log10 finite on all-zero input. Silence lands around
// -200 dB, far below any displayable floor.
const epsilon = 1e-10

// Row is one time instant of the waterfall: log-power (dBFS) per
// frequency bin, plus a monotonically increasing index. Bin count is
// FFT size / 2 and constant for the life of an Analyzer.
type Row struct {
	Index uint64
	Bins  []float64
}

// Analyzer accumulates samples and emits a Row for every hop once a
// full window is buffered. Single-goroutine use; the analysis loop is
// its only caller.
type Analyzer struct {
	size       int // FFT window length W, power of two
	hop        int // samples between successive windows
	sampleRate int

	fft     *fourier.FFT
	window  []float64
	buf     []float32
	scratch []float64
	coeffs  []complex128
	next    uint64
}

// NewAnalyzer returns an analyzer for FFT size W and hop h at the given
// sample rate. W must be a power of two and 1 <= h <= W.
func NewAnalyzer(size, hop, sampleRate int) (*Analyzer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("dsp: fft size %d is not a power of two", size)
	}
	if hop < 1 || hop > size {
		return nil, fmt.Errorf("dsp: hop %d out of range [1, %d]", hop, size)
	}
	if sampleRate < 1 {
		return nil, fmt.Errorf("dsp: sample rate %d", sampleRate)
	}
	return &Analyzer{
		size:       size,
		hop:        hop,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		window:     HannWindow(size),
		buf:        make([]float32, 0, 2*size),
		scratch:    make([]float64, size),
	}, nil
}

// Bins returns the number of frequency bins per row (W/2).
func (a *Analyzer) Bins() int { return a.size / 2 }

// Feed appends samples to the accumulator and returns every row that
// became complete. Zero-length input is ignored. Never fails on valid
// input; silence produces finite bins.
func (a *Analyzer) Feed(samples []float32) []Row {
	if len(samples) == 0 {
		return nil
	}
	a.buf = append(a.buf, samples...)

	var rows []Row
	for len(a.buf) >= a.size {
		rows = append(rows, a.transform(a.buf[:a.size]))
		a.buf = a.buf[a.hop:]
	}
	// Reclaim capacity so the accumulator does not creep as the slice
	// head advances.
	if len(a.buf) > 0 && cap(a.buf) > 4*a.size {
		kept := make([]float32, len(a.buf), 2*a.size)
		copy(kept, a.buf)
		a.buf = kept
	}
	return rows
}

func (a *Analyzer) transform(frame []float32) Row {
	for i, s := range frame {
		a.scratch[i] = float64(s) * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.scratch)

	// Real input: keep the first W/2 bins, the upper half mirrors them.
	bins := make([]float64, a.size/2)
	norm := 2.0 / float64(a.size)
	for i := range bins {
		mag := cmplxAbs(a.coeffs[i]) * norm
		bins[i] = 20 * math.Log10(mag+epsilon)
	}
	r := Row{Index: a.next, Bins: bins}
	a.next++
	return r
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// PeakBin returns the index of the strongest bin in a row.
func PeakBin(r Row) int {
	peak := 0
	for i, v := range r.Bins {
		if v > r.Bins[peak] {
			peak = i
		}
	}
	return peak
}

// BinFor returns the bin index nearest freq Hz.
func (a *Analyzer) BinFor(freq float64) int {
	bin := int(math.Round(freq * float64(a.size) / float64(a.sampleRate)))
	if bin < 0 {
		bin = 0
	}
	if bin >= a.size/2 {
		bin = a.size/2 - 1
	}
	return bin
}

// FreqFor returns the center frequency in Hz of a bin index.
func (a *Analyzer) FreqFor(bin int) float64 {
	return float64(bin) * float64(a.sampleRate) / float64(a.size)
}
