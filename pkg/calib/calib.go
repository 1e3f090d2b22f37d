// Package calib converts raw load cell counts into engineering force
// units through a two-point linear calibration: a zero offset captured
// with no load, and a scale factor derived from a known reference weight.
package calib

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/oceanops/tensionlog/pkg/cell"
)

// ErrUncalibrated is returned by Convert while the scale factor still
// holds its uncalibrated sentinel.
var ErrUncalibrated = errors.New("load cell not calibrated")

const (
	// DefaultZeroOffset is the uncalibrated zero offset sentinel.
	DefaultZeroOffset int64 = 1000
	// DefaultScaleFactor is the uncalibrated scale factor sentinel.
	DefaultScaleFactor float64 = 0

	// CalSamples is the averaging window for a full calibration.
	CalSamples = 64
	// TareSamples is the smaller averaging window for a quick field tare.
	TareSamples = 8
)

// Calibration holds the two-point linear calibration of the cell.
type Calibration struct {
	ZeroOffset  int64
	ScaleFactor float64
}

// Default returns the uncalibrated sentinel calibration.
func Default() Calibration {
	return Calibration{ZeroOffset: DefaultZeroOffset, ScaleFactor: DefaultScaleFactor}
}

// IsDefault reports whether either field still holds its sentinel, i.e.
// the operator has never supplied a calibration.
func (c Calibration) IsDefault() bool {
	return c.ScaleFactor == DefaultScaleFactor || c.ZeroOffset == DefaultZeroOffset
}

// Convert turns a raw count into force. A zero scale factor means the
// cell is uncalibrated and conversion fails; the caller should still
// record the raw count.
func (c Calibration) Convert(raw int64) (float64, error) {
	if c.ScaleFactor == 0 {
		return 0, ErrUncalibrated
	}
	return float64(raw-c.ZeroOffset) / c.ScaleFactor, nil
}

// Zero sets the zero offset to the mean of n consecutive readings taken
// with no load on the cell.
func (c *Calibration) Zero(s cell.Sensor, n int) error {
	mean, err := ReadMean(s, n)
	if err != nil {
		return fmt.Errorf("zero calibration: %w", err)
	}
	c.ZeroOffset = mean
	return nil
}

// ScaleFromKnownWeight derives the scale factor from the mean raw count
// observed with a known reference weight on a freshly zeroed cell.
func (c *Calibration) ScaleFromKnownWeight(known float64, rawMean int64) error {
	if known == 0 {
		return fmt.Errorf("known weight must be non-zero")
	}
	c.ScaleFactor = float64(rawMean-c.ZeroOffset) / known
	return nil
}

// Set overrides both values directly, no averaging.
func (c *Calibration) Set(zeroOffset int64, scaleFactor float64) {
	c.ZeroOffset = zeroOffset
	c.ScaleFactor = scaleFactor
}

// ReadMean averages n consecutive raw readings to damp sensor jitter.
// Readings not yet available are waited out by polling Available.
func ReadMean(s cell.Sensor, n int) (int64, error) {
	if n < 1 {
		return 0, fmt.Errorf("averaging window must be at least 1, got %d", n)
	}
	var sum int64
	for i := 0; i < n; i++ {
		for !s.Available() {
			time.Sleep(time.Millisecond)
		}
		raw, err := s.Reading()
		if err != nil {
			return 0, fmt.Errorf("reading %d of %d: %w", i+1, n, err)
		}
		sum += raw
	}
	return int64(math.Round(float64(sum) / float64(n))), nil
}
