// Package session owns the pan-adapter lifecycle: device selection,
// stream start, the analysis and render loops, and deterministic
// teardown.
//
// State machine: SelectingDevice → Capturing → ShuttingDown →
// Terminated. A stream fault during Capturing is fatal — it drives the
// shutdown transition rather than any reconnect attempt.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pmoser/panwave/pkg/audio"
	"github.com/pmoser/panwave/pkg/config"
	"github.com/pmoser/panwave/pkg/dsp"
	"github.com/pmoser/panwave/pkg/relay"
	"github.com/pmoser/panwave/pkg/render"
	"github.com/pmoser/panwave/pkg/waterfall"
)

// State is the session lifecycle phase.
type State int

const (
	SelectingDevice State = iota
	Capturing
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case SelectingDevice:
		return "selecting-device"
	case Capturing:
		return "capturing"
	case ShuttingDown:
		return "shutting-down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Source is a running capture stream as the session sees it: something
// that can be stopped deterministically.
type Source interface {
	Stop() error
}

// OpenFunc starts capture delivering blocks into deliver and returns
// the running source. The real implementation wraps audio.Open; tests
// and demo mode substitute synthetic sources.
type OpenFunc func(deliver audio.DeliverFunc) (Source, error)

// Session drives one capture-and-render run for a selected device.
type Session struct {
	cfg    *config.Config
	device audio.Device
	open   OpenFunc
	demo   bool

	// NewScreen acquires the terminal. Overridable so tests can use a
	// tcell simulation screen.
	NewScreen func() (tcell.Screen, error)

	mu     sync.Mutex
	state  State
	faultc chan error
}

// New returns a session in SelectingDevice for the given device.
func New(cfg *config.Config, device audio.Device, open OpenFunc, demo bool) *Session {
	return &Session{
		cfg:       cfg,
		device:    device,
		open:      open,
		demo:      demo,
		NewScreen: render.NewScreen,
		faultc:    make(chan error, 1),
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()
	slog.Debug("session state", "from", prev, "to", st)
}

// Fault reports a mid-session stream failure. The first fault wins and
// triggers shutdown; later ones are dropped.
func (s *Session) Fault(err error) {
	select {
	case s.faultc <- err:
	default:
	}
}

// Run executes the session until user quit, signal, or stream fault.
// Returns nil on a clean quit and the fault on a stream error. On an
// open failure the session stays in SelectingDevice and the error is
// returned without touching the terminal.
func (s *Session) Run(ctx context.Context) error {
	rel := relay.New(s.cfg.Audio.RelayDepth)

	src, err := s.open(rel.Push)
	if err != nil {
		// Still SelectingDevice: the caller may re-prompt or bail.
		return fmt.Errorf("session: open %q: %w", s.device.Name, err)
	}

	historyRows := s.cfg.Visual.HistoryRows
	if historyRows <= 0 {
		historyRows = 64 // renderer resizes to terminal height on start
	}
	store := waterfall.New(historyRows)

	analyzer, err := dsp.NewAnalyzer(s.cfg.Audio.FFTSize, s.cfg.Audio.HopSize, s.sampleRate())
	if err != nil {
		_ = src.Stop()
		s.setState(Terminated)
		return fmt.Errorf("session: %w", err)
	}

	screen, err := s.NewScreen()
	if err != nil {
		_ = src.Stop()
		s.setState(Terminated)
		return err
	}
	defer screen.Fini() // restore the terminal no matter how we exit

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Analysis loop: the relay's only consumer.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			batch, ok := rel.Pop(100 * time.Millisecond)
			if !ok {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			for _, row := range analyzer.Feed(batch.Samples) {
				store.Push(row)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	status := func() render.Status {
		return render.Status{
			Device:     s.device.Name,
			SampleRate: s.sampleRate(),
			FFTSize:    s.cfg.Audio.FFTSize,
			Dropped:    rel.Dropped(),
			Demo:       s.demo,
		}
	}
	renderer := render.New(screen, store, status, render.Options{
		FPS:        s.cfg.Visual.FPS,
		DBFloor:    s.cfg.Visual.DBFloor,
		DBCeil:     s.cfg.Visual.DBCeil,
		Scheme:     s.cfg.Visual.ColorScheme,
		ShowStatus: s.cfg.Visual.ShowStatus,
	})

	renderDone := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderDone <- renderer.Run(ctx)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	s.setState(Capturing)

	var fault error
	select {
	case <-ctx.Done():
	case <-sigc:
		slog.Info("signal received, shutting down")
	case err := <-renderDone:
		_ = err // user quit
	case fault = <-s.faultc:
		slog.Error("stream fault", "err", fault)
	}

	s.setState(ShuttingDown)
	stopErr := src.Stop()
	cancel()
	wg.Wait()
	s.setState(Terminated)

	stats := rel.Snapshot()
	slog.Info("session finished",
		"pushed", stats.Pushed, "popped", stats.Popped, "dropped", stats.Dropped)

	if fault != nil {
		return fmt.Errorf("session: %w", fault)
	}
	if stopErr != nil {
		return fmt.Errorf("session: stop capture: %w", stopErr)
	}
	return nil
}

func (s *Session) sampleRate() int {
	if s.cfg.Audio.SampleRate > 0 {
		return s.cfg.Audio.SampleRate
	}
	if s.device.SampleRate > 0 {
		return s.device.SampleRate
	}
	return 44100
}
