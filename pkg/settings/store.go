package settings

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oceanops/tensionlog/pkg/calib"
	"github.com/oceanops/tensionlog/pkg/card"
)

// DefaultRecordName is the settings record filename on the card.
const DefaultRecordName = "config.txt"

// Store persists settings and calibration as a key=value text record on
// the storage card. Saves are synchronous full rewrites; the record is
// the sole authority for what survives a power cycle.
type Store struct {
	card card.Card
	name string
}

// NewStore creates a store over c using the given record name; empty name
// selects DefaultRecordName.
func NewStore(c card.Card, name string) *Store {
	if name == "" {
		name = DefaultRecordName
	}
	return &Store{card: c, name: name}
}

// RecordName returns the record's filename on the card.
func (st *Store) RecordName() string { return st.name }

// Load reads the record from the card. A missing record is created with
// the hardcoded defaults and re-read, so Load always returns a fully
// populated result unless the card itself is unusable. defaultCal
// reports whether the loaded calibration still holds sentinel defaults,
// so the caller can prompt the operator to calibrate.
func (st *Store) Load() (s Settings, c calib.Calibration, defaultCal bool, err error) {
	s = Default()
	c = calib.Default()

	if !st.card.Exists(st.name) {
		// First boot or record lost to a power cut mid-rewrite: repair
		// with defaults, then re-read.
		if err = st.Save(s, c); err != nil {
			return s, c, false, fmt.Errorf("creating default settings record: %w", err)
		}
	}

	f, err := st.card.Open(st.name)
	if err != nil {
		return s, c, false, fmt.Errorf("opening settings record: %w", err)
	}
	defer f.Close()

	// Unconditional per-key dispatch: line order cannot mask a field, and
	// unknown keys are ignored.
	apply := map[string]func(string){
		"echo":          func(v string) { s.Echo = parseBool(v, s.Echo) },
		"log_interval":  func(v string) { s.LogInterval = parseMillis(v, s.LogInterval) },
		"sync_interval": func(v string) { s.SyncInterval = parseMillis(v, s.SyncInterval) },
		"trip_value":    func(v string) { s.TripValue = parseFloat(v, s.TripValue) },
		"cal_factor":    func(v string) { c.ScaleFactor = parseFloat(v, c.ScaleFactor) },
		"zero_offset":   func(v string) { c.ZeroOffset = parseInt(v, c.ZeroOffset) },
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := splitLine(scanner.Text())
		if !ok {
			// Malformed line (missing key or value): skip, keep loading.
			continue
		}
		if set, known := apply[key]; known {
			set(value)
		}
	}
	if err = scanner.Err(); err != nil {
		return s, c, false, fmt.Errorf("reading settings record: %w", err)
	}

	return s, c, c.IsDefault(), nil
}

// Save serializes every field as one `key = value` line and replaces the
// record wholesale. Delete-then-recreate avoids stale trailing data from
// a shorter rewrite; it is synchronous and either completes or fails
// loudly.
func (st *Store) Save(s Settings, c calib.Calibration) error {
	if st.card.Exists(st.name) {
		if err := st.card.Remove(st.name); err != nil {
			return fmt.Errorf("removing old settings record: %w", err)
		}
	}

	f, err := st.card.Create(st.name)
	if err != nil {
		return fmt.Errorf("creating settings record: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "echo = %d\n", boolInt(s.Echo))
	fmt.Fprintf(&b, "log_interval = %d\n", s.LogInterval.Milliseconds())
	fmt.Fprintf(&b, "sync_interval = %d\n", s.SyncInterval.Milliseconds())
	fmt.Fprintf(&b, "cal_factor = %s\n", strconv.FormatFloat(c.ScaleFactor, 'g', -1, 64))
	fmt.Fprintf(&b, "zero_offset = %d\n", c.ZeroOffset)
	fmt.Fprintf(&b, "trip_value = %s\n", strconv.FormatFloat(s.TripValue, 'g', -1, 64))

	if _, err := f.Write([]byte(b.String())); err != nil {
		f.Close()
		return fmt.Errorf("writing settings record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing settings record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing settings record: %w", err)
	}
	return nil
}

// splitLine extracts at most one key/value pair from a record line.
func splitLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	k, v, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(k)
	value = strings.TrimSpace(v)
	if key == "" || value == "" {
		return "", "", false
	}
	// A second value token would be junk; take only the first.
	if fields := strings.Fields(value); len(fields) > 0 {
		value = fields[0]
	}
	return key, value, true
}

func parseBool(v string, fallback bool) bool {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n != 0
}

func parseMillis(v string, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}

func parseInt(v string, fallback int64) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(v string, fallback float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
