// Package session holds the shared run context the sampling loop and the
// command interpreter both operate on. There are no package globals; the
// single thread of control owns everything through this object.
package session

import (
	"fmt"
	"io"
	"time"

	"github.com/oceanops/tensionlog/pkg/calib"
	"github.com/oceanops/tensionlog/pkg/card"
	"github.com/oceanops/tensionlog/pkg/cell"
	"github.com/oceanops/tensionlog/pkg/clock"
	"github.com/oceanops/tensionlog/pkg/indicator"
	"github.com/oceanops/tensionlog/pkg/logbook"
	"github.com/oceanops/tensionlog/pkg/settings"
)

// Session is the process-wide state: current settings, current
// calibration, the durable store, the open session file, and the
// collaborators. The interpreter mutates it; the loop reads it.
type Session struct {
	Settings settings.Settings
	Cal      calib.Calibration

	Store  *settings.Store
	Card   card.Card
	Sensor cell.Sensor
	Clock  clock.Clock
	Lamp   *indicator.Lamp
	Book   *logbook.Logbook

	// Term is the interactive channel.
	Term io.Writer
}

// save persists the current settings and calibration, synchronously.
func (s *Session) save() error {
	return s.Store.Save(s.Settings, s.Cal)
}

// Tare re-zeros the cell with the quick field averaging window and
// persists before returning. A crash before the save leaves the old
// calibration authoritative.
func (s *Session) Tare() error {
	if err := s.Cal.Zero(s.Sensor, calib.TareSamples); err != nil {
		return err
	}
	return s.save()
}

// CalibrateZero is the first step of a full calibration: zero over n
// readings with no load, persisted immediately.
func (s *Session) CalibrateZero(n int) error {
	if err := s.Cal.Zero(s.Sensor, n); err != nil {
		return err
	}
	return s.save()
}

// CalibrateScale is the second step: with the known weight resting on
// the freshly zeroed cell, average n readings and derive the scale
// factor, persisted immediately.
func (s *Session) CalibrateScale(known float64, n int) error {
	rawMean, err := calib.ReadMean(s.Sensor, n)
	if err != nil {
		return err
	}
	if err := s.Cal.ScaleFromKnownWeight(known, rawMean); err != nil {
		return err
	}
	return s.save()
}

// SetManualCalibration overrides both calibration values directly and
// persists.
func (s *Session) SetManualCalibration(zeroOffset int64, scaleFactor float64) error {
	s.Cal.Set(zeroOffset, scaleFactor)
	return s.save()
}

// SetEcho toggles terminal echo and persists.
func (s *Session) SetEcho(on bool) error {
	s.Settings.Echo = on
	return s.save()
}

// SetLogInterval validates against the sync interval, then persists.
func (s *Session) SetLogInterval(d time.Duration) error {
	if err := s.Settings.SetLogInterval(d); err != nil {
		return err
	}
	return s.save()
}

// SetSyncInterval validates against the log interval, then persists.
func (s *Session) SetSyncInterval(d time.Duration) error {
	if err := s.Settings.SetSyncInterval(d); err != nil {
		return err
	}
	return s.save()
}

// Halt reports a fatal condition, sets the alarm color, and stops
// permanently. The device cannot safely run without its collaborators,
// so it fails loud and stops rather than losing data silently.
func (s *Session) Halt(err error) {
	if s.Term != nil {
		fmt.Fprintf(s.Term, "%v error\n", err)
		fmt.Fprintln(s.Term, "Program suspended")
	}
	if s.Lamp != nil {
		s.Lamp.Set(indicator.Magenta)
	}
	select {}
}
