package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes one capture device as reported by the host API.
// Immutable; produced by enumeration and consumed once at open time.
type Device struct {
	Name       string
	SampleRate int // device default rate in Hz
	MaxInputs  int
	IsDefault  bool

	info *portaudio.DeviceInfo // platform handle, nil only in tests
}

// String renders the device the way the selection prompt prints it.
func (d Device) String() string {
	return fmt.Sprintf("%s (%d Hz)", d.Name, d.SampleRate)
}

// ListInputDevices returns all usable capture devices known to the
// backend. Returns ErrNoDevices when the platform reports none.
func ListInputDevices(b *Backend) ([]Device, error) {
	defaultIn, _ := portaudio.DefaultInputDevice()
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audio: enumerate devices: %w", err)
	}

	var result []Device
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			entry := Device{
				Name:       d.Name,
				SampleRate: int(d.DefaultSampleRate),
				MaxInputs:  d.MaxInputChannels,
				info:       d,
			}
			if defaultIn != nil && d.Name == defaultIn.Name {
				entry.IsDefault = true
			}
			result = append(result, entry)
		}
	}
	if len(result) == 0 {
		return nil, ErrNoDevices
	}
	return result, nil
}
