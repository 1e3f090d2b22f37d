package logbook

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/oceanops/tensionlog/pkg/battery"
	"github.com/oceanops/tensionlog/pkg/calib"
	"github.com/oceanops/tensionlog/pkg/cell"
	"github.com/oceanops/tensionlog/pkg/clock"
	"github.com/oceanops/tensionlog/pkg/indicator"
	"github.com/oceanops/tensionlog/pkg/settings"
)

// Loop is the sampling state machine: one armed state with two
// independent timers. Samples are gated by the log interval; flushes,
// battery checks and indicator refreshes by the sync interval. Flushing
// less often than sampling trades loss on power failure for endurance.
type Loop struct {
	Sensor   cell.Sensor
	Clock    clock.Clock
	Cal      *calib.Calibration
	Settings *settings.Settings
	Book     *Logbook
	Lamp     *indicator.Lamp
	Gauge    battery.Gauge
	// LowBattery is the voltage below which the indicator shows the
	// battery-low color.
	LowBattery float64
	// Term receives echoed rows when Settings.Echo is on.
	Term io.Writer

	start    time.Time
	lastLog  time.Time
	lastSync time.Time

	// MaxLoad is the running maximum of successfully converted values
	// since boot. It never decreases and resets only on restart.
	MaxLoad float64
	hasMax  bool
}

// Start arms both timers at now. The first record lands one log interval
// later.
func (l *Loop) Start(now time.Time) {
	l.start = now
	l.lastLog = now
	l.lastSync = now
}

// Tick runs one loop iteration at now. It never blocks on the operator;
// interval checks are plain comparisons so the caller stays responsive
// to interactive commands between ticks.
func (l *Loop) Tick(now time.Time) error {
	if now.Sub(l.lastLog) < l.Settings.LogInterval {
		return nil
	}
	l.lastLog = now

	rec := l.sample(now)
	if err := l.Book.Append(rec); err != nil {
		return err
	}
	if l.Settings.Echo && l.Term != nil {
		fmt.Fprintln(l.Term, rec.Row())
	}

	if rec.Converted && (!l.hasMax || rec.Load > l.MaxLoad) {
		l.MaxLoad = rec.Load
		l.hasMax = true
		if tier := indicator.Level(l.MaxLoad, l.Settings.TripValue); tier != indicator.Off && tier != l.Lamp.Current() {
			if err := l.Lamp.Set(tier); err != nil {
				log.Printf("Failed to set indicator tier: %v", err)
			}
		}
	}

	if now.Sub(l.lastSync) < l.Settings.SyncInterval {
		return nil
	}
	l.lastSync = now

	if l.Settings.Echo && l.Term != nil {
		fmt.Fprintln(l.Term, "Writing to card.")
	}
	if err := l.Book.Sync(); err != nil {
		return err
	}

	l.checkBattery()
	return nil
}

// sample acquires one reading and converts it. An unavailable sensor or
// uncalibrated cell still yields a record, with sentinels in place of
// the missing values.
func (l *Loop) sample(now time.Time) Record {
	rec := Record{
		ElapsedMS: now.Sub(l.start).Milliseconds(),
		Timestamp: l.Clock.Now(),
		Raw:       cell.RawUnavailable,
	}

	if !l.Sensor.Available() {
		return rec
	}
	raw, err := l.Sensor.Reading()
	if err != nil {
		log.Printf("Sensor read failed: %v", err)
		return rec
	}
	rec.Raw = raw

	load, err := l.Cal.Convert(raw)
	if err != nil {
		// Uncalibrated: the raw count is still recorded.
		return rec
	}
	rec.Load = load
	rec.Converted = true
	return rec
}

// checkBattery samples the pack voltage and applies the status policy.
func (l *Loop) checkBattery() {
	if l.Gauge == nil {
		return
	}
	vbat, err := l.Gauge.Voltage()
	if err != nil {
		log.Printf("Battery read failed: %v", err)
		return
	}
	target := indicator.Decide(l.MaxLoad, l.Settings.TripValue, vbat, l.LowBattery, l.Lamp.Current())
	if target != l.Lamp.Current() {
		if err := l.Lamp.Set(target); err != nil {
			log.Printf("Failed to set indicator: %v", err)
		}
	}
}
