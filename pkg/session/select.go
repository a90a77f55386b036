package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pmoser/panwave/pkg/audio"
)

// ErrInvalidSelection indicates out-of-range or non-numeric device
// input. Recoverable: the prompt is re-issued.
var ErrInvalidSelection = errors.New("session: invalid device selection")

// SelectDevice prints the device list, reads an index from in, and
// re-prompts until a valid index or EOF. On success it echoes the
// selection and waits for Enter before returning.
func SelectDevice(in io.Reader, out io.Writer, devices []audio.Device) (int, error) {
	fmt.Fprintln(out, "Input devices:")
	for i, d := range devices {
		marker := ""
		if d.IsDefault {
			marker = " [default]"
		}
		fmt.Fprintf(out, "%d. %s (%d Hz)%s\n", i, d.Name, d.SampleRate, marker)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Select device [0-%d]: ", len(devices)-1)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("session: read selection: %w", err)
			}
			return 0, fmt.Errorf("%w: input closed", ErrInvalidSelection)
		}
		idx, err := parseIndex(scanner.Text(), len(devices))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		d := devices[idx]
		fmt.Fprintf(out, "Selected device: %s @ %d Hz\n", d.Name, d.SampleRate)
		fmt.Fprint(out, "Press Enter to begin...")
		scanner.Scan() // discard; EOF here is fine, capture starts anyway
		return idx, nil
	}
}

func parseIndex(text string, n int) (int, error) {
	text = strings.TrimSpace(text)
	idx, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, text)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d out of range [0-%d]", ErrInvalidSelection, idx, n-1)
	}
	return idx, nil
}
