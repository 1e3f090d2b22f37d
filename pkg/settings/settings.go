// Package settings holds the logger's operating parameters and their
// durable key=value record on the storage card.
package settings

import (
	"errors"
	"fmt"
	"time"
)

// ErrIntervalOrder is returned when a change would leave the sync
// interval shorter than the log interval.
var ErrIntervalOrder = errors.New("sync interval must not be shorter than log interval")

// Defaults used when the card record is absent or a field is missing.
const (
	DefaultEcho         = true
	DefaultLogInterval  = 1000 * time.Millisecond
	DefaultSyncInterval = 10000 * time.Millisecond
	DefaultTripValue    = 1700.0
	// DefaultGain selects x16 from the gain table.
	DefaultGain = 4
)

// Settings are the logger's operating parameters.
type Settings struct {
	// Echo mirrors log lines to the interactive terminal.
	Echo bool
	// LogInterval is the minimum spacing between recorded samples.
	LogInterval time.Duration
	// SyncInterval is the minimum spacing between forced flushes; always
	// at least LogInterval.
	SyncInterval time.Duration
	// TripValue is the force threshold used for status coloring.
	TripValue float64
	// Gain indexes the sensor gain table. It lives in the host config,
	// not the card record.
	Gain int
}

// Default returns the hardcoded default settings.
func Default() Settings {
	return Settings{
		Echo:         DefaultEcho,
		LogInterval:  DefaultLogInterval,
		SyncInterval: DefaultSyncInterval,
		TripValue:    DefaultTripValue,
		Gain:         DefaultGain,
	}
}

// SetLogInterval changes the log interval, rejecting values above the
// current sync interval. Validation happens here, at the point of change.
func (s *Settings) SetLogInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("log interval must be positive, got %v", d)
	}
	if d > s.SyncInterval {
		return ErrIntervalOrder
	}
	s.LogInterval = d
	return nil
}

// SetSyncInterval changes the sync interval, rejecting values below the
// current log interval.
func (s *Settings) SetSyncInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("sync interval must be positive, got %v", d)
	}
	if d < s.LogInterval {
		return ErrIntervalOrder
	}
	s.SyncInterval = d
	return nil
}

// SetTripValue changes the trip threshold.
func (s *Settings) SetTripValue(v float64) error {
	if v <= 0 {
		return fmt.Errorf("trip value must be positive, got %v", v)
	}
	s.TripValue = v
	return nil
}
