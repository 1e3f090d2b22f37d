package indicator

import (
	"fmt"
	"io"
)

// Display is the indicator hardware collaborator. Values are the raw
// (inverted, common-anode) channel levels.
type Display interface {
	SetColor(r, g, b uint8) error
}

// Lamp drives a Display, remembers the current color, and announces
// every change on the interactive channel by name.
type Lamp struct {
	display Display
	term    io.Writer
	current Color
}

// NewLamp creates a lamp over display announcing changes to term. A nil
// term suppresses announcements.
func NewLamp(display Display, term io.Writer) *Lamp {
	return &Lamp{display: display, term: term, current: Off}
}

// Set drives the display to c and records it as the lamp state.
func (l *Lamp) Set(c Color) error {
	r, g, b := c.RGB()
	if err := l.display.SetColor(r, g, b); err != nil {
		return fmt.Errorf("setting indicator: %w", err)
	}
	l.current = c
	if l.term != nil {
		fmt.Fprintf(l.term, "RGB changed to: %s %d %d %d\n", c.Name(), r, g, b)
	}
	return nil
}

// Current returns the color last set.
func (l *Lamp) Current() Color { return l.current }

// Recorder is a Display that records every color it was driven to, for
// tests and headless runs.
type Recorder struct {
	History []Color
	Raw     [][3]uint8
}

var _ Display = (*Recorder)(nil)

func (r *Recorder) SetColor(red, green, blue uint8) error {
	r.Raw = append(r.Raw, [3]uint8{red, green, blue})
	if c, ok := FromRGB(red, green, blue); ok {
		r.History = append(r.History, c)
	}
	return nil
}

// Last returns the most recent recorded color, or Off when none.
func (r *Recorder) Last() Color {
	if len(r.History) == 0 {
		return Off
	}
	return r.History[len(r.History)-1]
}
