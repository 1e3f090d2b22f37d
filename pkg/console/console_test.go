package console

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanops/tensionlog/pkg/calib"
	"github.com/oceanops/tensionlog/pkg/card"
	"github.com/oceanops/tensionlog/pkg/clock"
	"github.com/oceanops/tensionlog/pkg/indicator"
	"github.com/oceanops/tensionlog/pkg/logbook"
	"github.com/oceanops/tensionlog/pkg/session"
	"github.com/oceanops/tensionlog/pkg/settings"
)

// scriptSensor feeds queued raw counts for calibration averaging.
type scriptSensor struct {
	readings []int64
	pos      int
}

func (s *scriptSensor) Begin() error            { return nil }
func (s *scriptSensor) SetGain(int) error       { return nil }
func (s *scriptSensor) SetSampleRate(int) error { return nil }
func (s *scriptSensor) Available() bool         { return s.pos < len(s.readings) }

func (s *scriptSensor) Reading() (int64, error) {
	r := s.readings[s.pos]
	s.pos++
	return r, nil
}

func queue(v int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type fixture struct {
	sess *session.Session
	card *card.Mem
	term *bytes.Buffer
}

func newFixture(t *testing.T, sensor *scriptSensor) *fixture {
	t.Helper()
	c := card.NewMem()
	store := settings.NewStore(c, "config.txt")
	sets, cal, _, err := store.Load()
	require.NoError(t, err)

	book, err := logbook.Open(c, time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	term := &bytes.Buffer{}
	sess := &session.Session{
		Settings: sets,
		Cal:      cal,
		Store:    store,
		Card:     c,
		Sensor:   sensor,
		Clock:    clock.NewManual(time.Date(2019, time.January, 1, 8, 0, 0, 0, time.UTC)),
		Lamp:     indicator.NewLamp(&indicator.Recorder{}, term),
		Book:     book,
		Term:     term,
	}
	return &fixture{sess: sess, card: c, term: term}
}

// run feeds script to the interpreter and dispatches the first command
// byte, as the main loop would after polling it.
func (f *fixture) run(t *testing.T, cmd byte, script string) {
	t.Helper()
	in := NewInput(strings.NewReader(script))
	interp := New(f.sess, in, f.term)
	require.NoError(t, interp.Dispatch(cmd))
}

func (f *fixture) reload(t *testing.T) (settings.Settings, calib.Calibration) {
	t.Helper()
	s, c, _, err := f.sess.Store.Load()
	require.NoError(t, err)
	return s, c
}

func TestDispatch_ToggleEchoPersists(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'e', "")
	assert.False(t, f.sess.Settings.Echo)
	assert.Contains(t, f.term.String(), "Echo OFF")

	s, _ := f.reload(t)
	assert.False(t, s.Echo)

	f.run(t, 'E', "")
	assert.True(t, f.sess.Settings.Echo)
	assert.Contains(t, f.term.String(), "Echo ON")
}

func TestDispatch_SetLogInterval(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'l', "500\n")
	assert.Equal(t, 500*time.Millisecond, f.sess.Settings.LogInterval)
	assert.Contains(t, f.term.String(), "Log interval set at: 500 ms.")

	s, _ := f.reload(t)
	assert.Equal(t, 500*time.Millisecond, s.LogInterval)
}

func TestDispatch_LogIntervalAboveSyncReprompts(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	// 20000 > sync 10000: rejected and re-prompted; 2000 accepted.
	f.run(t, 'l', "20000\n2000\n")
	assert.Contains(t, f.term.String(), "Value is greater than the sync interval!")
	assert.Equal(t, 2000*time.Millisecond, f.sess.Settings.LogInterval)
}

func TestDispatch_SyncIntervalBelowLogReprompts(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 's', "500\n5000\n")
	assert.Contains(t, f.term.String(), "Value is less than the log interval!")
	assert.Equal(t, 5000*time.Millisecond, f.sess.Settings.SyncInterval)
}

func TestDispatch_ReportTime(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'z', "")
	assert.Contains(t, f.term.String(), "2019-01-01T08:00:00Z")
}

func TestDispatch_SetClock(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	// Six values, then the ready pause before the clock actually moves.
	f.run(t, 'd', "2020\n6\n15\n13\n45\n30\n\n")
	assert.Contains(t, f.term.String(), "Press enter when ready to set time.")
	assert.Equal(t, "2020-06-15T13:45:30Z", clock.ISO8601Z(f.sess.Clock.Now()))
}

func TestDispatch_SetClock_WaitsForReady(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	in := NewInput(strings.NewReader("2020\n6\n15\n13\n45\n30\n"))
	interp := New(f.sess, in, f.term)

	// Input ends before the ready pause: the clock must not be set.
	before := f.sess.Clock.Now()
	err := interp.Dispatch('d')
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, before, f.sess.Clock.Now())
}

func TestDispatch_Tare(t *testing.T) {
	f := newFixture(t, &scriptSensor{readings: queue(2048, calib.TareSamples)})

	f.run(t, 't', "")
	assert.Equal(t, int64(2048), f.sess.Cal.ZeroOffset)
	assert.Contains(t, f.term.String(), "Load cell zeroed.")

	_, c := f.reload(t)
	assert.Equal(t, int64(2048), c.ZeroOffset)
}

func TestDispatch_FullCalibration(t *testing.T) {
	readings := append(queue(1000, calib.CalSamples), queue(3000, calib.CalSamples)...)
	f := newFixture(t, &scriptSensor{readings: readings})

	// confirm, ready for zero, ready for weight, weight value
	f.run(t, 'c', "y\n\n\n50\n")

	assert.Equal(t, int64(1000), f.sess.Cal.ZeroOffset)
	assert.Equal(t, 40.0, f.sess.Cal.ScaleFactor)
	assert.Contains(t, f.term.String(), "Calibration weight entered: 50")

	// Persisted before returning.
	_, c := f.reload(t)
	assert.Equal(t, int64(1000), c.ZeroOffset)
	assert.Equal(t, 40.0, c.ScaleFactor)

	// (5000-1000)/40 == 100
	v, err := f.sess.Cal.Convert(5000)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestDispatch_CalibrationAborted(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'c', "n\n")
	assert.Contains(t, f.term.String(), "Calibration aborted")
	assert.True(t, f.sess.Cal.IsDefault())
}

func TestDispatch_BareEnterAbortsCalibration(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'c', "\n")
	assert.Contains(t, f.term.String(), "Calibration aborted")
	assert.True(t, f.sess.Cal.IsDefault())
}

func TestDispatch_WhitespaceEOFAbortsConfirmation(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	// Spaces then end of input, no terminator: the confirmation must
	// abort cleanly, not crash the logger.
	f.run(t, 'm', "  ")
	assert.Contains(t, f.term.String(), "Manual calibration update aborted")
	assert.True(t, f.sess.Cal.IsDefault())
}

func TestDispatch_ManualCalibration(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'm', "y\n2500\n12.5\n")
	assert.Equal(t, int64(2500), f.sess.Cal.ZeroOffset)
	assert.Equal(t, 12.5, f.sess.Cal.ScaleFactor)

	_, c := f.reload(t)
	assert.Equal(t, 12.5, c.ScaleFactor)
}

func TestDispatch_ManualCalibrationAborted(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'm', "q\n")
	assert.Contains(t, f.term.String(), "Manual calibration update aborted")
	assert.True(t, f.sess.Cal.IsDefault())
}

func TestDispatch_ShowCalibration(t *testing.T) {
	f := newFixture(t, &scriptSensor{})
	f.sess.Cal = calib.Calibration{ZeroOffset: 1000, ScaleFactor: 40}

	f.run(t, 'v', "")
	out := f.term.String()
	assert.Contains(t, out, "Zero offset: 1000")
	assert.Contains(t, out, "Cal factor: 40.00")
	assert.Contains(t, out, "Gain: 16")
	assert.Contains(t, out, "Trip value: 1700")
}

func TestDispatch_InvalidCommand(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'q', "")
	assert.Contains(t, f.term.String(), "Invalid command q")
}

func TestFileManager_ListAndExit(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'f', "l\nx\n")
	out := f.term.String()
	assert.Contains(t, out, "19010100.CSV")
	assert.Contains(t, out, "config.txt")
	assert.Contains(t, out, "**no more files**")
}

func TestFileManager_Transfer(t *testing.T) {
	f := newFixture(t, &scriptSensor{})
	w, err := f.card.Create("OLD.CSV")
	require.NoError(t, err)
	_, err = w.Write([]byte("millis,time,raw_load,load\n1,x,2,3\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f.run(t, 'f', "t\nOLD.CSV\nx\n")
	assert.Contains(t, f.term.String(), "File dump from OLD.CSV")
	assert.Contains(t, f.term.String(), "1,x,2,3")
}

func TestFileManager_TransferMissing(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'f', "t\nNOPE.CSV\nx\n")
	assert.Contains(t, f.term.String(), "File does not exist.")
}

func TestFileManager_Delete(t *testing.T) {
	f := newFixture(t, &scriptSensor{})
	w, err := f.card.Create("OLD.CSV")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f.run(t, 'f', "d\nOLD.CSV\nx\n")
	assert.Contains(t, f.term.String(), "File removed.")
	assert.False(t, f.card.Exists("OLD.CSV"))
}

func TestFileManager_DeleteActiveSessionRefused(t *testing.T) {
	f := newFixture(t, &scriptSensor{})
	active := f.sess.Book.Name()

	f.run(t, 'f', "d\n"+active+"\nx\n")
	assert.Contains(t, f.term.String(), "Cannot delete the active session file.")
	assert.True(t, f.card.Exists(active))
}

func TestFileManager_ClearCardPreservesActiveAndSettings(t *testing.T) {
	f := newFixture(t, &scriptSensor{})
	for _, name := range []string{"18123100.CSV", "18123101.CSV"} {
		w, err := f.card.Create(name)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	f.run(t, 'f', "c\ny\nx\n")

	assert.False(t, f.card.Exists("18123100.CSV"))
	assert.False(t, f.card.Exists("18123101.CSV"))
	assert.True(t, f.card.Exists(f.sess.Book.Name()))
	assert.True(t, f.card.Exists("config.txt"))
}

func TestFileManager_ClearCardAborted(t *testing.T) {
	f := newFixture(t, &scriptSensor{})
	w, err := f.card.Create("18123100.CSV")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f.run(t, 'f', "c\nn\nx\n")
	assert.True(t, f.card.Exists("18123100.CSV"))
}

func TestFileManager_InvalidOption(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	f.run(t, 'f', "z\nx\n")
	assert.Contains(t, f.term.String(), "Invalid option entered!")
}

func TestFileManager_WhitespaceEOFReturnsError(t *testing.T) {
	f := newFixture(t, &scriptSensor{})

	in := NewInput(strings.NewReader("  "))
	interp := New(f.sess, in, f.term)
	err := interp.Dispatch('f')
	assert.ErrorIs(t, err, io.EOF)
}
