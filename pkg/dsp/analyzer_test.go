package dsp

import (
	"math"
	"testing"
)

func sine(freq float64, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return out
}

func TestNewAnalyzerValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		hop     int
		rate    int
		wantErr bool
	}{
		{"valid", 1024, 512, 44100, false},
		{"valid full hop", 1024, 1024, 44100, false},
		{"valid min hop", 1024, 1, 44100, false},
		{"not power of two", 1000, 500, 44100, true},
		{"zero size", 0, 1, 44100, true},
		{"hop zero", 1024, 0, 44100, true},
		{"hop exceeds size", 1024, 2048, 44100, true},
		{"zero rate", 1024, 512, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyzer(tt.size, tt.hop, tt.rate)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAnalyzer(%d, %d, %d) error = %v, wantErr %v",
					tt.size, tt.hop, tt.rate, err, tt.wantErr)
			}
		})
	}
}

func TestSilenceProducesFiniteBins(t *testing.T) {
	a, err := NewAnalyzer(1024, 512, 44100)
	if err != nil {
		t.Fatal(err)
	}
	rows := a.Feed(make([]float32, 1024))
	if len(rows) != 1 {
		t.Fatalf("Feed(silence) emitted %d rows, want 1", len(rows))
	}
	if got, want := len(rows[0].Bins), 512; got != want {
		t.Fatalf("row has %d bins, want %d", got, want)
	}
	for i, v := range rows[0].Bins {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("bin %d = %v, want finite", i, v)
		}
	}
}

func TestSinusoidPeakBin(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		rate int
		size int
	}{
		{"440Hz at 44.1k/1024", 440, 44100, 1024},
		{"440Hz at 44.1k/2048", 440, 44100, 2048},
		{"1kHz at 48k/1024", 1000, 48000, 1024},
		{"5kHz at 48k/2048", 5000, 48000, 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAnalyzer(tt.size, tt.size/2, tt.rate)
			if err != nil {
				t.Fatal(err)
			}
			rows := a.Feed(sine(tt.freq, tt.rate, tt.size))
			if len(rows) != 1 {
				t.Fatalf("emitted %d rows, want 1", len(rows))
			}
			got := PeakBin(rows[0])
			want := int(math.Round(tt.freq * float64(tt.size) / float64(tt.rate)))
			if got < want-1 || got > want+1 {
				t.Errorf("peak bin = %d, want %d ± 1", got, want)
			}
			if bin := a.BinFor(tt.freq); bin != want {
				t.Errorf("BinFor(%v) = %d, want %d", tt.freq, bin, want)
			}
		})
	}
}

func TestOverlapRowCount(t *testing.T) {
	// 2048 samples, W=1024, hop=512: windows at 0, 512, 1024.
	a, err := NewAnalyzer(1024, 512, 44100)
	if err != nil {
		t.Fatal(err)
	}
	rows := a.Feed(sine(440, 44100, 2048))
	if len(rows) != 3 {
		t.Fatalf("emitted %d rows, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Index != uint64(i) {
			t.Errorf("row %d has index %d, want %d", i, r.Index, i)
		}
	}

	// The next hop's worth of samples yields exactly one more row.
	rows = a.Feed(sine(440, 44100, 512))
	if len(rows) != 1 {
		t.Fatalf("second Feed emitted %d rows, want 1", len(rows))
	}
	if rows[0].Index != 3 {
		t.Errorf("row index = %d, want 3", rows[0].Index)
	}
}

func TestFeedIgnoresEmpty(t *testing.T) {
	a, err := NewAnalyzer(1024, 512, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if rows := a.Feed(nil); rows != nil {
		t.Errorf("Feed(nil) = %d rows, want none", len(rows))
	}
	if rows := a.Feed([]float32{}); rows != nil {
		t.Errorf("Feed(empty) = %d rows, want none", len(rows))
	}
}

func TestFeedAccumulatesAcrossBatches(t *testing.T) {
	a, err := NewAnalyzer(1024, 1024, 44100)
	if err != nil {
		t.Fatal(err)
	}
	tone := sine(440, 44100, 1024)
	// Deliver the window in four driver-sized blocks.
	var rows []Row
	for i := 0; i < 4; i++ {
		rows = append(rows, a.Feed(tone[i*256:(i+1)*256])...)
	}
	if len(rows) != 1 {
		t.Fatalf("emitted %d rows across batches, want 1", len(rows))
	}
	got := PeakBin(rows[0])
	want := a.BinFor(440)
	if got < want-1 || got > want+1 {
		t.Errorf("peak bin = %d, want %d ± 1", got, want)
	}
}

func TestFreqForRoundTrips(t *testing.T) {
	a, err := NewAnalyzer(2048, 1024, 48000)
	if err != nil {
		t.Fatal(err)
	}
	for _, bin := range []int{0, 1, 100, 1023} {
		freq := a.FreqFor(bin)
		if got := a.BinFor(freq); got != bin {
			t.Errorf("BinFor(FreqFor(%d)) = %d", bin, got)
		}
	}
}

func TestHannWindow(t *testing.T) {
	w := HannWindow(1024)
	if w[0] > 1e-12 || w[len(w)-1] > 1e-12 {
		t.Errorf("window ends = %v, %v, want 0", w[0], w[len(w)-1])
	}
	mid := w[len(w)/2]
	if math.Abs(mid-1) > 1e-4 {
		t.Errorf("window midpoint = %v, want ~1", mid)
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", make([]float32, 64), 0},
		{"dc one", []float32{1, 1, 1, 1}, 1},
		{"alternating", []float32{1, -1, 1, -1}, 1},
		{"half", []float32{0.5, -0.5}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RMS(tt.samples); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RMS() = %v, want %v", got, tt.want)
			}
		})
	}
}
