// Package render draws the waterfall history onto the terminal at a
// fixed cadence, independent of audio arrival jitter. If no new row
// arrived since the last tick it redraws the same history, so the
// display never visibly stalls.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pmoser/panwave/pkg/waterfall"
)

// ErrTerminalInit indicates the terminal could not be acquired.
var ErrTerminalInit = errors.New("render: terminal init failed")

// NewScreen acquires and initializes the controlling terminal. The
// caller owns the screen and must call Fini to restore the terminal.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminalInit, err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminalInit, err)
	}
	return screen, nil
}

// Options are the renderer's tunables. DBFloor and DBCeil bound the
// displayed dynamic range; values outside clamp to the ramp ends.
type Options struct {
	FPS        int
	DBFloor    float64
	DBCeil     float64
	Scheme     string
	ShowStatus bool
}

// Status is the live session info shown in the status line, pulled
// from the session once per frame.
type Status struct {
	Device     string
	SampleRate int
	FFTSize    int
	Dropped    int64
	Demo       bool
}

// StatusFunc supplies the current Status. Must be safe to call from
// the render goroutine.
type StatusFunc func() Status

// Renderer owns the draw loop. It reads the waterfall store, never
// writes it (except resizing its capacity to track terminal height).
type Renderer struct {
	screen tcell.Screen
	store  *waterfall.Store
	status StatusFunc
	opts   Options
	scheme Scheme
	paused bool
}

// New returns a renderer drawing store onto screen. status may be nil.
func New(screen tcell.Screen, store *waterfall.Store, status StatusFunc, opts Options) *Renderer {
	if opts.FPS < 1 {
		opts.FPS = 30
	}
	return &Renderer{
		screen: screen,
		store:  store,
		status: status,
		opts:   opts,
		scheme: SchemeByName(opts.Scheme),
	}
}

// Run drives the draw loop until the context is cancelled or the user
// quits (q, Esc, Ctrl-C). The screen is left for the owner to Fini.
func (r *Renderer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 32)
	quitPoll := make(chan struct{})
	go func() {
		for {
			ev := r.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quitPoll:
				return
			}
		}
	}()
	defer close(quitPoll)

	r.fitStore()
	ticker := time.NewTicker(time.Second / time.Duration(r.opts.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if quit := r.handleEvent(ev); quit {
				return nil
			}
		case <-ticker.C:
			if !r.paused {
				r.draw()
			}
		}
	}
}

func (r *Renderer) handleEvent(ev tcell.Event) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		r.screen.Sync()
		r.fitStore()
		r.draw()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				return true
			case ' ':
				r.paused = !r.paused
				r.draw()
			case 's', 'S':
				r.opts.ShowStatus = !r.opts.ShowStatus
				r.fitStore()
			case '+', '=':
				if r.opts.DBFloor+3 < r.opts.DBCeil {
					r.opts.DBFloor += 3
				}
			case '-', '_':
				r.opts.DBFloor -= 3
			case ']':
				r.opts.DBCeil += 3
			case '[':
				if r.opts.DBCeil-3 > r.opts.DBFloor {
					r.opts.DBCeil -= 3
				}
			}
		}
	}
	return false
}

// fitStore sizes the history to the visible region so the time axis
// always fills the terminal.
func (r *Renderer) fitStore() {
	_, h := r.screen.Size()
	visible := h - r.statusLines()
	if visible < 1 {
		visible = 1
	}
	r.store.Resize(visible)
}

func (r *Renderer) statusLines() int {
	if r.opts.ShowStatus {
		return 1
	}
	return 0
}

// draw repaints the full visible region: newest row at the top edge,
// older rows scrolling down and off the bottom.
func (r *Renderer) draw() {
	w, h := r.screen.Size()
	if w < 1 || h < 1 {
		return
	}
	top := r.statusLines()
	visible := h - top
	rows := r.store.Snapshot()

	for y := 0; y < visible; y++ {
		idx := len(rows) - 1 - y
		if idx < 0 {
			clearLine(r.screen, w, top+y)
			continue
		}
		cols := MapColumns(rows[idx].Bins, w)
		for x := 0; x < w; x++ {
			v := Normalize(cols[x], r.opts.DBFloor, r.opts.DBCeil)
			st := tcell.StyleDefault.Background(r.scheme.Color(v))
			r.screen.SetContent(x, top+y, ' ', nil, st)
		}
	}

	if r.opts.ShowStatus {
		r.drawStatus(w)
	}
	r.screen.Show()
}

var statusStyle = tcell.StyleDefault.
	Foreground(tcell.NewRGBColor(160, 160, 180)).
	Background(tcell.NewRGBColor(24, 24, 32))

func (r *Renderer) drawStatus(w int) {
	var st Status
	if r.status != nil {
		st = r.status()
	}
	mode := "live"
	if st.Demo {
		mode = "demo"
	}
	paused := ""
	if r.paused {
		paused = " │ PAUSED"
	}
	line := fmt.Sprintf(" %s │ %s @ %d Hz │ fft %d │ %.0f..%.0f dB │ drops %d%s │ q:quit ",
		mode, st.Device, st.SampleRate, st.FFTSize,
		r.opts.DBFloor, r.opts.DBCeil, st.Dropped, paused)

	x := 0
	for _, ch := range line {
		if x >= w {
			break
		}
		r.screen.SetContent(x, 0, ch, nil, statusStyle)
		x++
	}
	for ; x < w; x++ {
		r.screen.SetContent(x, 0, ' ', nil, statusStyle)
	}
}

func clearLine(s tcell.Screen, w, y int) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, tcell.StyleDefault)
	}
}
