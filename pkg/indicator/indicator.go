// Package indicator maps logger status to a tri-color LED. The LED is a
// common-anode part, so channel values are inverted: logical off drives
// every channel to 255.
package indicator

// Color is one of the small closed set of states the LED can show.
type Color int

const (
	Off Color = iota
	Green
	Yellow
	Orange
	Red
	Blue
	Magenta
)

// rgb triples are the raw channel values for the common-anode LED.
var rgbTable = map[Color][3]uint8{
	Off:     {255, 255, 255},
	Green:   {255, 0, 255},
	Yellow:  {10, 10, 255},
	Orange:  {0, 108, 255},
	Red:     {0, 255, 255},
	Blue:    {255, 255, 0},
	Magenta: {0, 255, 0},
}

var nameTable = map[Color]string{
	Off:     "all off",
	Green:   "green",
	Yellow:  "yellow",
	Orange:  "orange",
	Red:     "red",
	Blue:    "blue",
	Magenta: "magenta",
}

// RGB returns the raw channel values for c.
func (c Color) RGB() (r, g, b uint8) {
	v := rgbTable[c]
	return v[0], v[1], v[2]
}

// Name returns the human-readable name of c.
func (c Color) Name() string {
	if n, ok := nameTable[c]; ok {
		return n
	}
	return "unrecognized color"
}

// FromRGB resolves raw channel values back to a Color by exact match.
// There is no nearest-color logic; unmapped triples report false.
func FromRGB(r, g, b uint8) (Color, bool) {
	for c, v := range rgbTable {
		if v[0] == r && v[1] == g && v[2] == b {
			return c, true
		}
	}
	return Off, false
}

// NameRGB describes raw channel values, reporting "unrecognized color"
// for triples outside the fixed set.
func NameRGB(r, g, b uint8) string {
	c, ok := FromRGB(r, g, b)
	if !ok {
		return "unrecognized color"
	}
	return c.Name()
}

// Level returns the load tier color for the running maximum against the
// trip value, or Off when no tier has been reached.
func Level(maxLoad, tripValue float64) Color {
	if tripValue <= 0 {
		return Off
	}
	ratio := maxLoad / tripValue
	switch {
	case ratio > 1.0:
		return Red
	case ratio > 0.75:
		return Orange
	case ratio > 0.5:
		return Yellow
	default:
		return Off
	}
}

// Decide is the full status policy: battery-low shows Blue and overrides
// everything; otherwise a reached load tier shows; otherwise base, the
// color last explicitly set, is kept.
func Decide(maxLoad, tripValue, batteryVoltage, lowBattery float64, base Color) Color {
	if batteryVoltage < lowBattery {
		return Blue
	}
	if tier := Level(maxLoad, tripValue); tier != Off {
		return tier
	}
	return base
}
