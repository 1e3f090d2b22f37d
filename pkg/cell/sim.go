package cell

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
)

// SimConfig tunes the simulated load cell.
type SimConfig struct {
	// ZeroOffset is the raw count the cell reads under no load.
	ZeroOffset int64
	// Amplitude is the peak raw-count swing of the simulated load wave.
	Amplitude float32
	// Period is the number of readings per full wave cycle.
	Period int
	// NoiseLevel is the peak-to-peak raw-count jitter.
	NoiseLevel float32
	// Seed seeds the jitter source; a fixed seed gives a deterministic
	// sequence.
	Seed int64
}

// Sim is a simulated load cell for bench runs and tests. It produces a
// slow sinusoidal load riding on the zero offset, with uniform jitter.
type Sim struct {
	cfg     SimConfig
	rng     *rand.Rand
	tick    int
	gain    int
	started bool
}

var _ Sensor = (*Sim)(nil)

// NewSim creates a simulated cell. Zero-valued fields of cfg get workable
// bench defaults.
func NewSim(cfg SimConfig) *Sim {
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 2000
	}
	if cfg.Period <= 0 {
		cfg.Period = 600
	}
	if cfg.NoiseLevel == 0 {
		cfg.NoiseLevel = 4
	}
	return &Sim{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		gain: 1,
	}
}

func (s *Sim) Begin() error {
	if s.started {
		return fmt.Errorf("sensor already started")
	}
	s.started = true
	return nil
}

func (s *Sim) SetGain(index int) error {
	g, err := GainValue(index)
	if err != nil {
		return err
	}
	s.gain = g
	return nil
}

func (s *Sim) SetSampleRate(code int) error {
	if code < 0 {
		return fmt.Errorf("sample rate code %d out of range", code)
	}
	return nil
}

func (s *Sim) Available() bool { return s.started }

func (s *Sim) Reading() (int64, error) {
	if !s.started {
		return 0, fmt.Errorf("sensor not started")
	}
	phase := math32.Mod(float32(s.tick), float32(s.cfg.Period)) / float32(s.cfg.Period)
	wave := s.cfg.Amplitude * (1 + math32.Sin(2*math32.Pi*phase)) / 2
	noise := (s.rng.Float32() - 0.5) * s.cfg.NoiseLevel
	s.tick++
	return s.cfg.ZeroOffset + int64(wave+noise), nil
}
