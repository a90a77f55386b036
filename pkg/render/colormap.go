package render

import "github.com/gdamore/tcell/v2"

type rgb struct{ r, g, b int32 }

// Scheme is a color ramp from quiet to loud. Intensities in [0,1] are
// interpolated along the stops.
type Scheme struct {
	Name  string
	stops []rgb
}

var schemes = []Scheme{
	{
		Name: "thermal",
		stops: []rgb{
			{0, 0, 0}, {0, 0, 96}, {128, 0, 160}, {255, 96, 0}, {255, 220, 64}, {255, 255, 255},
		},
	},
	{
		// dafft-style phosphor ramp.
		Name: "green",
		stops: []rgb{
			{0, 0, 0}, {0, 255, 0}, {255, 255, 0}, {255, 255, 255},
		},
	},
	{
		Name: "mono",
		stops: []rgb{
			{0, 0, 0}, {255, 255, 255},
		},
	},
}

// SchemeByName returns the named scheme, falling back to thermal.
func SchemeByName(name string) Scheme {
	for _, s := range schemes {
		if s.Name == name {
			return s
		}
	}
	return schemes[0]
}

// SchemeNames lists the available ramps for --help and config errors.
func SchemeNames() []string {
	names := make([]string, len(schemes))
	for i, s := range schemes {
		names[i] = s.Name
	}
	return names
}

func lerp8(t float64, a, b int32) int32 {
	return int32(float64(a)*(1-t) + float64(b)*t)
}

// Color maps an intensity in [0,1] to a terminal color along the ramp.
// NaN and out-of-range values clamp to the ends.
func (s Scheme) Color(v float64) tcell.Color {
	last := len(s.stops) - 1
	if !(v > 0) { // catches NaN
		c := s.stops[0]
		return tcell.NewRGBColor(c.r, c.g, c.b)
	}
	if v >= 1 {
		c := s.stops[last]
		return tcell.NewRGBColor(c.r, c.g, c.b)
	}
	pos := v * float64(last)
	i := int(pos)
	t := pos - float64(i)
	a, b := s.stops[i], s.stops[i+1]
	return tcell.NewRGBColor(lerp8(t, a.r, b.r), lerp8(t, a.g, b.g), lerp8(t, a.b, b.b))
}
