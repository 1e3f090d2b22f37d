package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the host-side application configuration: which ports and
// directories the logger binary attaches to. The durable operating
// settings live on the card itself, not here.
type Config struct {
	Console Console `yaml:"console"`
	Card    CardCfg `yaml:"card"`
	Sensor  Sensor  `yaml:"sensor"`
	Battery Battery `yaml:"battery"`
}

// Console selects the interactive channel.
type Console struct {
	// Port is the serial port for the operator terminal; empty means
	// stdin/stdout.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// CardCfg configures the storage card mount.
type CardCfg struct {
	// Dir is the directory where the card is mounted.
	Dir string `yaml:"dir"`
	// SettingsFile is the durable settings record name.
	SettingsFile string `yaml:"settings_file"`
}

// Sensor configures the load cell link.
type Sensor struct {
	// Port is the amplifier serial port; empty selects the simulated cell.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	// Gain indexes the fixed gain table (1,2,4,8,16,32,64,128).
	Gain int `yaml:"gain"`
	// SampleRate is the amplifier sample rate code.
	SampleRate int `yaml:"sample_rate"`
	Sim        Sim `yaml:"sim"`
}

// Sim tunes the simulated load cell.
type Sim struct {
	ZeroOffset int64   `yaml:"zero_offset"`
	Amplitude  float64 `yaml:"amplitude"`
	Period     int     `yaml:"period"`
	NoiseLevel float64 `yaml:"noise_level"`
	Seed       int64   `yaml:"seed"`
}

// Battery configures the battery gauge divider and threshold.
type Battery struct {
	R1         float64 `yaml:"r1"`
	R2         float64 `yaml:"r2"`
	VRef       float64 `yaml:"vref"`
	ADCRange   float64 `yaml:"adc_range"`
	LowVoltage float64 `yaml:"low_voltage"`
	// SimVoltage is the voltage reported when no gauge hardware is
	// attached.
	SimVoltage float64 `yaml:"sim_voltage"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Console: Console{
			Port: "", // stdio
			Baud: 9600,
		},
		Card: CardCfg{
			Dir:          "card",
			SettingsFile: "config.txt",
		},
		Sensor: Sensor{
			Port:       "",
			Baud:       9600,
			Gain:       4, // x16
			SampleRate: 320,
			Sim: Sim{
				ZeroOffset: 1000,
				Amplitude:  2000,
				Period:     600,
				NoiseLevel: 4,
			},
		},
		Battery: Battery{
			R1:         20000,
			R2:         20000,
			VRef:       3.3,
			ADCRange:   1024,
			LowVoltage: 3.5,
			SimVoltage: 4.1,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Console.Baud == 0 {
		c.Console.Baud = def.Console.Baud
	}

	if c.Card.Dir == "" {
		c.Card.Dir = def.Card.Dir
	}
	if c.Card.SettingsFile == "" {
		c.Card.SettingsFile = def.Card.SettingsFile
	}

	if c.Sensor.Baud == 0 {
		c.Sensor.Baud = def.Sensor.Baud
	}
	if c.Sensor.SampleRate == 0 {
		c.Sensor.SampleRate = def.Sensor.SampleRate
	}
	if c.Sensor.Sim.Amplitude == 0 {
		c.Sensor.Sim.Amplitude = def.Sensor.Sim.Amplitude
	}
	if c.Sensor.Sim.Period == 0 {
		c.Sensor.Sim.Period = def.Sensor.Sim.Period
	}
	if c.Sensor.Sim.NoiseLevel == 0 {
		c.Sensor.Sim.NoiseLevel = def.Sensor.Sim.NoiseLevel
	}

	if c.Battery.R1 == 0 {
		c.Battery.R1 = def.Battery.R1
	}
	if c.Battery.R2 == 0 {
		c.Battery.R2 = def.Battery.R2
	}
	if c.Battery.VRef == 0 {
		c.Battery.VRef = def.Battery.VRef
	}
	if c.Battery.ADCRange == 0 {
		c.Battery.ADCRange = def.Battery.ADCRange
	}
	if c.Battery.LowVoltage == 0 {
		c.Battery.LowVoltage = def.Battery.LowVoltage
	}
	if c.Battery.SimVoltage == 0 {
		c.Battery.SimVoltage = def.Battery.SimVoltage
	}
}
