package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGainValue(t *testing.T) {
	for index, want := range []int{1, 2, 4, 8, 16, 32, 64, 128} {
		g, err := GainValue(index)
		require.NoError(t, err)
		assert.Equal(t, want, g)
	}
}

func TestGainValue_OutOfRange(t *testing.T) {
	_, err := GainValue(-1)
	assert.Error(t, err)
	_, err = GainValue(GainCount())
	assert.Error(t, err)
}

func TestSim_NotAvailableBeforeBegin(t *testing.T) {
	s := NewSim(SimConfig{})
	assert.False(t, s.Available())
	_, err := s.Reading()
	assert.Error(t, err)
}

func TestSim_BeginTwice(t *testing.T) {
	s := NewSim(SimConfig{})
	require.NoError(t, s.Begin())
	assert.Error(t, s.Begin())
}

func TestSim_ReadingsRideOnZeroOffset(t *testing.T) {
	s := NewSim(SimConfig{ZeroOffset: 1000, Amplitude: 200, Period: 10, NoiseLevel: 2, Seed: 1})
	require.NoError(t, s.Begin())
	for i := 0; i < 50; i++ {
		require.True(t, s.Available())
		r, err := s.Reading()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r, int64(1000-2))
		assert.LessOrEqual(t, r, int64(1000+200+2))
	}
}

func TestSim_FixedSeedIsDeterministic(t *testing.T) {
	cfg := SimConfig{ZeroOffset: 500, Amplitude: 100, Period: 8, NoiseLevel: 6, Seed: 42}
	a := NewSim(cfg)
	b := NewSim(cfg)
	require.NoError(t, a.Begin())
	require.NoError(t, b.Begin())
	for i := 0; i < 32; i++ {
		ra, err := a.Reading()
		require.NoError(t, err)
		rb, err := b.Reading()
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
	}
}

func TestSim_SetGain(t *testing.T) {
	s := NewSim(SimConfig{})
	assert.NoError(t, s.SetGain(0))
	assert.NoError(t, s.SetGain(GainCount()-1))
	assert.Error(t, s.SetGain(GainCount()))
}

func TestSim_SetSampleRate(t *testing.T) {
	s := NewSim(SimConfig{})
	assert.NoError(t, s.SetSampleRate(0))
	assert.Error(t, s.SetSampleRate(-1))
}
