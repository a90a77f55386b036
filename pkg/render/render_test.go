package render

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pmoser/panwave/pkg/dsp"
	"github.com/pmoser/panwave/pkg/waterfall"
)

func TestMapColumnsIdentity(t *testing.T) {
	bins := []float64{1, 2, 3, 4}
	got := MapColumns(bins, 4)
	for i := range bins {
		if got[i] != bins[i] {
			t.Errorf("col %d = %v, want %v", i, got[i], bins[i])
		}
	}
}

func TestMapColumnsPeakSurvivesCompression(t *testing.T) {
	// 512 bins with one hot bin, squeezed into 80 columns: the hot
	// column must be within one column of the exact position.
	bins := make([]float64, 512)
	for i := range bins {
		bins[i] = -120
	}
	const hot = 100
	bins[hot] = 0

	cols := MapColumns(bins, 80)
	peak := 0
	for i, v := range cols {
		if v > cols[peak] {
			peak = i
		}
	}
	want := int(math.Round(float64(hot) / 511 * 79))
	if peak < want-1 || peak > want+1 {
		t.Errorf("peak column = %d, want %d ± 1", peak, want)
	}
}

func TestMapColumnsStretch(t *testing.T) {
	bins := []float64{0, 10}
	got := MapColumns(bins, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0] != 0 || got[4] != 10 {
		t.Errorf("endpoints = %v, %v, want 0, 10", got[0], got[4])
	}
	if math.Abs(got[2]-5) > 1e-9 {
		t.Errorf("midpoint = %v, want 5", got[2])
	}
}

func TestMapColumnsDegenerate(t *testing.T) {
	if got := MapColumns(nil, 10); got != nil {
		t.Errorf("MapColumns(nil) = %v, want nil", got)
	}
	if got := MapColumns([]float64{1}, 0); got != nil {
		t.Errorf("MapColumns(width 0) = %v, want nil", got)
	}
	got := MapColumns([]float64{7}, 3)
	for i, v := range got {
		if v != 7 {
			t.Errorf("col %d = %v, want 7", i, v)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		db    float64
		floor float64
		ceil  float64
		want  float64
	}{
		{"at floor", -90, -90, -10, 0},
		{"at ceil", -10, -90, -10, 1},
		{"midpoint", -50, -90, -10, 0.5},
		{"below floor clamps", -200, -90, -10, 0},
		{"above ceil clamps", 5, -90, -10, 1},
		{"inverted range", 0, -10, -90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.db, tt.floor, tt.ceil); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Normalize(%v, %v, %v) = %v, want %v",
					tt.db, tt.floor, tt.ceil, got, tt.want)
			}
		})
	}
}

func TestSchemeColorClamps(t *testing.T) {
	s := SchemeByName("thermal")
	black := s.Color(0)
	if black != s.Color(-1) {
		t.Error("negative intensity should clamp to the dark end")
	}
	if black != s.Color(math.NaN()) {
		t.Error("NaN should clamp to the dark end")
	}
	white := s.Color(1)
	if white != s.Color(2) {
		t.Error("intensity above 1 should clamp to the bright end")
	}
	if black == white {
		t.Error("ramp ends should differ")
	}
}

func TestSchemeByNameFallback(t *testing.T) {
	if got := SchemeByName("no-such-scheme").Name; got != "thermal" {
		t.Errorf("fallback scheme = %q, want thermal", got)
	}
	for _, name := range SchemeNames() {
		if got := SchemeByName(name).Name; got != name {
			t.Errorf("SchemeByName(%q).Name = %q", name, got)
		}
	}
}

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(w, h)
	return screen
}

func TestRendererDrawsAndResizesStore(t *testing.T) {
	screen := newSimScreen(t, 40, 10)
	defer screen.Fini()

	store := waterfall.New(64)
	bins := make([]float64, 16)
	for i := range bins {
		bins[i] = -10 // loud everywhere
	}
	store.Push(dsp.Row{Index: 0, Bins: bins})

	r := New(screen, store, nil, Options{
		FPS: 60, DBFloor: -90, DBCeil: -10, Scheme: "mono", ShowStatus: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Give the loop a few ticks to draw.
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Status bar occupies row 0, so the history must fit in 9 rows.
	if got := store.Cap(); got != 9 {
		t.Errorf("store capacity = %d, want 9 (height minus status line)", got)
	}

	// Newest row sits directly under the status line, bright.
	_, _, style, _ := screen.GetContent(0, 1)
	_, bg, _ := style.Decompose()
	if bg == tcell.ColorDefault {
		t.Error("waterfall cell has default background, want ramp color")
	}
}

func TestRendererQuitKey(t *testing.T) {
	keys := []struct {
		name string
		key  tcell.Key
		r    rune
	}{
		{"q", tcell.KeyRune, 'q'},
		{"escape", tcell.KeyEscape, 0},
		{"ctrl-c", tcell.KeyCtrlC, 0},
	}

	for _, tt := range keys {
		t.Run(tt.name, func(t *testing.T) {
			screen := newSimScreen(t, 40, 10)
			defer screen.Fini()

			store := waterfall.New(8)
			r := New(screen, store, nil, Options{FPS: 60, DBFloor: -90, DBCeil: -10})

			done := make(chan error, 1)
			go func() { done <- r.Run(context.Background()) }()

			screen.InjectKey(tt.key, tt.r, tcell.ModNone)

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("Run() = %v, want nil on user quit", err)
				}
			case <-time.After(time.Second):
				t.Fatal("Run did not return on quit key")
			}
		})
	}
}
