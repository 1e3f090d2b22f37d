package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanops/tensionlog/pkg/calib"
	"github.com/oceanops/tensionlog/pkg/card"
	"github.com/oceanops/tensionlog/pkg/settings"
)

type queueSensor struct {
	readings []int64
	pos      int
}

func (s *queueSensor) Begin() error            { return nil }
func (s *queueSensor) SetGain(int) error       { return nil }
func (s *queueSensor) SetSampleRate(int) error { return nil }
func (s *queueSensor) Available() bool         { return s.pos < len(s.readings) }

func (s *queueSensor) Reading() (int64, error) {
	r := s.readings[s.pos]
	s.pos++
	return r, nil
}

func flat(v int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func newSession(t *testing.T, sensor *queueSensor) (*Session, *card.Mem) {
	t.Helper()
	c := card.NewMem()
	store := settings.NewStore(c, settings.DefaultRecordName)
	sets, cal, _, err := store.Load()
	require.NoError(t, err)
	return &Session{
		Settings: sets,
		Cal:      cal,
		Store:    store,
		Card:     c,
		Sensor:   sensor,
	}, c
}

func reload(t *testing.T, s *Session) (settings.Settings, calib.Calibration) {
	t.Helper()
	sets, cal, _, err := s.Store.Load()
	require.NoError(t, err)
	return sets, cal
}

func TestTare_PersistsBeforeReturning(t *testing.T) {
	s, _ := newSession(t, &queueSensor{readings: flat(1234, calib.TareSamples)})

	require.NoError(t, s.Tare())
	assert.Equal(t, int64(1234), s.Cal.ZeroOffset)

	_, cal := reload(t, s)
	assert.Equal(t, int64(1234), cal.ZeroOffset)
}

func TestCalibrate_ZeroThenScale(t *testing.T) {
	readings := append(flat(1000, calib.CalSamples), flat(6000, calib.CalSamples)...)
	s, _ := newSession(t, &queueSensor{readings: readings})

	require.NoError(t, s.CalibrateZero(calib.CalSamples))
	require.NoError(t, s.CalibrateScale(100, calib.CalSamples))

	assert.Equal(t, int64(1000), s.Cal.ZeroOffset)
	assert.Equal(t, 50.0, s.Cal.ScaleFactor)

	_, cal := reload(t, s)
	assert.Equal(t, 50.0, cal.ScaleFactor)
}

func TestCalibrateScale_ZeroWeightNotPersisted(t *testing.T) {
	s, _ := newSession(t, &queueSensor{readings: flat(6000, calib.CalSamples)})

	assert.Error(t, s.CalibrateScale(0, calib.CalSamples))
	_, cal := reload(t, s)
	assert.True(t, cal.IsDefault())
}

func TestSetManualCalibration(t *testing.T) {
	s, _ := newSession(t, &queueSensor{})

	require.NoError(t, s.SetManualCalibration(2500, 12.5))
	_, cal := reload(t, s)
	assert.Equal(t, int64(2500), cal.ZeroOffset)
	assert.Equal(t, 12.5, cal.ScaleFactor)
}

func TestSetEcho_Persists(t *testing.T) {
	s, _ := newSession(t, &queueSensor{})

	require.NoError(t, s.SetEcho(false))
	sets, _ := reload(t, s)
	assert.False(t, sets.Echo)
}

func TestSetIntervals_ValidateBeforeSaving(t *testing.T) {
	s, _ := newSession(t, &queueSensor{})

	// A rejected value never reaches the card.
	assert.ErrorIs(t, s.SetLogInterval(20*time.Second), settings.ErrIntervalOrder)
	sets, _ := reload(t, s)
	assert.Equal(t, time.Second, sets.LogInterval)

	require.NoError(t, s.SetLogInterval(2*time.Second))
	require.NoError(t, s.SetSyncInterval(20*time.Second))

	sets, _ = reload(t, s)
	assert.Equal(t, 2*time.Second, sets.LogInterval)
	assert.Equal(t, 20*time.Second, sets.SyncInterval)
}

func TestOps_PropagateSaveFailure(t *testing.T) {
	s, c := newSession(t, &queueSensor{readings: flat(1234, calib.TareSamples)})
	c.FailAll = true

	assert.Error(t, s.Tare())
	assert.Error(t, s.SetEcho(false))
	assert.Error(t, s.SetManualCalibration(1, 1))
}
