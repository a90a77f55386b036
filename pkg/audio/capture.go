package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// DeliverFunc receives one block of mono samples on the driver thread.
// The slice is owned by the receiver. Implementations must not block.
type DeliverFunc func(samples []float32)

// Capture is an open, running input stream delivering mono float32
// blocks to a DeliverFunc until Stop is called.
type Capture struct {
	stream   *portaudio.Stream
	deliver  DeliverFunc
	channels int

	overflows atomic.Int64 // driver-reported input overflows

	mu      sync.Mutex
	running bool
}

// Open opens dev at sampleRate and starts delivering blocks of
// framesPerBuffer mono samples to deliver.
//
// sampleRate must be a rate the device supports natively; no resampling
// is performed. A mono stream is preferred; if the device rejects mono,
// its native channel count is opened and downmixed by averaging.
func Open(b *Backend, dev Device, sampleRate, framesPerBuffer int, deliver DeliverFunc) (*Capture, error) {
	if b == nil {
		return nil, fmt.Errorf("audio: open %q: nil backend", dev.Name)
	}
	if dev.info == nil {
		return nil, fmt.Errorf("%w: %q has no platform handle", ErrDeviceOpen, dev.Name)
	}
	if dev.MaxInputs < 1 {
		return nil, fmt.Errorf("%w: %q has no input channels", ErrUnsupportedFormat, dev.Name)
	}

	c := &Capture{deliver: deliver}

	stream, channels, err := c.openStream(dev, sampleRate, framesPerBuffer, 1)
	if err != nil && dev.MaxInputs > 1 {
		// Some host APIs refuse mono; fall back to the native layout.
		slog.Debug("mono open rejected, retrying with native channels",
			"device", dev.Name, "channels", dev.MaxInputs, "err", err)
		stream, channels, err = c.openStream(dev, sampleRate, framesPerBuffer, dev.MaxInputs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q @ %d Hz: %v", ErrDeviceOpen, dev.Name, sampleRate, err)
	}

	c.stream = stream
	c.channels = channels
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: start %q: %v", ErrDeviceOpen, dev.Name, err)
	}
	c.running = true
	slog.Debug("audio capture started",
		"device", dev.Name, "rate", sampleRate, "channels", channels, "block", framesPerBuffer)
	return c, nil
}

func (c *Capture) openStream(dev Device, sampleRate, framesPerBuffer, channels int) (*portaudio.Stream, int, error) {
	params := portaudio.LowLatencyParameters(dev.info, nil)
	params.Input.Channels = channels
	params.Output.Device = nil
	params.Output.Channels = 0
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = framesPerBuffer

	stream, err := portaudio.OpenStream(params, c.callback)
	if err != nil {
		return nil, 0, err
	}
	return stream, channels, nil
}

// callback runs on the PortAudio driver thread. It downmixes to mono,
// copies out of the driver-owned buffers, and hands off. The copy is
// required: PortAudio reuses its buffers as soon as we return.
func (c *Capture) callback(in [][]float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.InputOverflow != 0 {
		c.overflows.Add(1)
	}
	if len(in) == 0 || len(in[0]) == 0 {
		return
	}
	n := len(in[0])
	out := make([]float32, n)
	copy(out, in[0])
	if len(in) > 1 {
		for _, ch := range in[1:] {
			for i, s := range ch {
				out[i] += s
			}
		}
		scale := 1.0 / float32(len(in))
		for i := range out {
			out[i] *= scale
		}
	}
	c.deliver(out)
}

// Overflows returns the count of driver-reported input overflows.
func (c *Capture) Overflows() int64 { return c.overflows.Load() }

// Stop halts delivery and releases the device. Idempotent.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	if err := c.stream.Stop(); err != nil {
		_ = c.stream.Close()
		return fmt.Errorf("audio: stop capture: %w", err)
	}
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("audio: close capture: %w", err)
	}
	slog.Debug("audio capture stopped")
	return nil
}
