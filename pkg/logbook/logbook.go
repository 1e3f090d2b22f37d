// Package logbook owns the session log file and the periodic
// read-convert-record loop that fills it.
package logbook

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oceanops/tensionlog/pkg/card"
	"github.com/oceanops/tensionlog/pkg/cell"
	"github.com/oceanops/tensionlog/pkg/clock"
)

// Header is the CSV header row of every session file.
const Header = "millis,time,raw_load,load"

// Record is one sample appended to the session file.
type Record struct {
	ElapsedMS int64
	Timestamp time.Time
	// Raw is the sensor count, or cell.RawUnavailable.
	Raw int64
	// Load is the converted force. Valid only when Converted is true;
	// otherwise the sentinel is written in its place.
	Load      float64
	Converted bool
}

// Row renders the record as a session file line, without newline.
func (r Record) Row() string {
	raw := strconv.FormatInt(r.Raw, 10)
	load := strconv.FormatInt(cell.RawUnavailable, 10)
	if r.Converted {
		load = strconv.FormatFloat(r.Load, 'f', 2, 64)
	}
	return fmt.Sprintf("%d,%s,%s,%s", r.ElapsedMS, clock.ISO8601Z(r.Timestamp), raw, load)
}

// SelectName derives the session filename from the date: YYMMDDNN.CSV,
// taking the first two-digit sequence not already on the card. Exactly
// one session file is opened per boot; rotation only happens across a
// restart.
func SelectName(now time.Time, c card.Card) (string, error) {
	now = now.UTC()
	for seq := 0; seq < 100; seq++ {
		name := fmt.Sprintf("%02d%02d%02d%02d.CSV", now.Year()%100, int(now.Month()), now.Day(), seq)
		if !c.Exists(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no free session filename for %s", now.Format("060102"))
}

// Logbook is the open session file.
type Logbook struct {
	file card.File
	name string
}

// Open selects the session filename for now, creates the file, and
// writes the header row.
func Open(c card.Card, now time.Time) (*Logbook, error) {
	name, err := SelectName(now, c)
	if err != nil {
		return nil, err
	}
	f, err := c.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating session file %s: %w", name, err)
	}
	if _, err := f.Write([]byte(Header + "\n")); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing session header: %w", err)
	}
	return &Logbook{file: f, name: name}, nil
}

// Name returns the session filename.
func (b *Logbook) Name() string { return b.name }

// Append writes one record row.
func (b *Logbook) Append(r Record) error {
	if _, err := b.file.Write([]byte(r.Row() + "\n")); err != nil {
		return fmt.Errorf("appending to %s: %w", b.name, err)
	}
	return nil
}

// Sync forces buffered rows onto the card.
func (b *Logbook) Sync() error {
	if err := b.file.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", b.name, err)
	}
	return nil
}

// Close closes the session file.
func (b *Logbook) Close() error { return b.file.Close() }
