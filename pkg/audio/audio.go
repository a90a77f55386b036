// Package audio provides input device enumeration and callback-driven
// PCM capture on top of PortAudio.
//
// The capture path is the latency-critical part of the program: the
// driver invokes the delivery callback on its own thread, and nothing
// in this package may block there. Delivery hands each block to a
// caller-supplied func and returns; queueing policy lives downstream.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Sentinel errors for the failure classes callers branch on.
var (
	// ErrNoDevices indicates the platform reported zero usable input devices.
	ErrNoDevices = errors.New("audio: no input devices found")
	// ErrDeviceOpen indicates the device is busy, gone, or rejected the
	// requested stream parameters.
	ErrDeviceOpen = errors.New("audio: device open failed")
	// ErrUnsupportedFormat indicates the device cannot deliver samples
	// this package knows how to convert to mono float32.
	ErrUnsupportedFormat = errors.New("audio: unsupported sample format")
	// ErrStreamFault indicates a mid-session hardware or driver failure.
	// It is fatal to the session; there is no automatic reconnect.
	ErrStreamFault = errors.New("audio: stream fault")
)

var (
	preInitOnce sync.Once
	preInitDone chan struct{} = make(chan struct{})
	preInitErr  error
)

// PreInit starts PortAudio initialization in the background. Call this
// early in main() so the slow host-API scan overlaps the user reading
// the device list. NewBackend waits for it to finish.
func PreInit() {
	preInitOnce.Do(func() {
		go func() {
			slog.Debug("pre-initializing PortAudio...")
			preInitErr = portaudio.Initialize()
			if preInitErr != nil {
				slog.Error("pre-init portaudio failed", "err", preInitErr)
			}
			slog.Debug("PortAudio pre-init complete")
			close(preInitDone)
		}()
	})
}

// Backend owns the process-wide PortAudio initialization. All
// enumeration and capture goes through an explicit *Backend so teardown
// is deterministic rather than ambient global state.
type Backend struct {
	mu     sync.Mutex
	closed bool
}

// NewBackend initializes the audio subsystem (waiting for a pending
// PreInit if one is in flight) and returns the owning handle.
func NewBackend() (*Backend, error) {
	PreInit()
	<-preInitDone
	if preInitErr != nil {
		return nil, fmt.Errorf("audio: initialize: %w", preInitErr)
	}
	return &Backend{}, nil
}

// Close releases the audio subsystem. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return portaudio.Terminate()
}
