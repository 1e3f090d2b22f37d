package clock

import "time"

// Clock is the real-time clock collaborator. Now returns calendar time in
// UTC; Adjust sets the clock to a new calendar time.
type Clock interface {
	Now() time.Time
	Adjust(t time.Time)
}

// ISO8601Z formats t as an ISO-8601 UTC timestamp with Z suffix and
// second precision, the format recorded in the session log.
func ISO8601Z(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// System is a Clock backed by the host clock plus an adjustable offset, so
// the operator can set the logger's notion of time without touching the
// host.
type System struct {
	offset time.Duration
}

var _ Clock = (*System)(nil)

// NewSystem creates a system clock with zero offset.
func NewSystem() *System { return &System{} }

func (s *System) Now() time.Time { return time.Now().UTC().Add(s.offset) }

func (s *System) Adjust(t time.Time) {
	s.offset = t.Sub(time.Now().UTC())
}

// Manual is a Clock that only moves when told to, for tests and the
// simulated device.
type Manual struct {
	now time.Time
}

var _ Clock = (*Manual)(nil)

// NewManual creates a manual clock starting at t.
func NewManual(t time.Time) *Manual { return &Manual{now: t.UTC()} }

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) Adjust(t time.Time) { m.now = t.UTC() }

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) { m.now = m.now.Add(d) }
