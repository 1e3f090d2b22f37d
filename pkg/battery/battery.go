// Package battery reads the pack voltage through an ADC behind a
// resistor divider.
package battery

// DefaultLowVoltage is the threshold below which the battery is
// considered low.
const DefaultLowVoltage = 3.5

// Gauge is the battery sensing collaborator.
type Gauge interface {
	// Voltage returns the pack voltage in volts.
	Voltage() (float64, error)
}

// DividerConfig describes the resistor divider and ADC in front of the
// battery pin.
type DividerConfig struct {
	R1   float64
	R2   float64
	VRef float64
	// Range is the full-scale ADC count (1024 for a 10-bit converter).
	Range float64
}

// DefaultDivider matches the logger board: a 1:1 divider on a 10-bit
// 3.3V ADC.
func DefaultDivider() DividerConfig {
	return DividerConfig{R1: 20000, R2: 20000, VRef: 3.3, Range: 1024}
}

// ADCToVoltage converts a raw ADC count to the voltage at the pin.
func ADCToVoltage(adc float64, cfg DividerConfig) float64 {
	if cfg.Range == 0 {
		return 0
	}
	return (adc / cfg.Range) * cfg.VRef
}

// DividerInput recovers the divider input voltage from the measured
// output: V_in = V_out * (R1 + R2) / R2.
func DividerInput(vout float64, cfg DividerConfig) float64 {
	if cfg.R2 == 0 {
		return 0
	}
	return vout * ((cfg.R1 + cfg.R2) / cfg.R2)
}

// ADC is the raw converter collaborator behind a divider gauge.
type ADC interface {
	Read() (float64, error)
}

// DividerGauge is a Gauge over a raw ADC and a divider description.
type DividerGauge struct {
	adc ADC
	cfg DividerConfig
}

var _ Gauge = (*DividerGauge)(nil)

// NewDividerGauge creates a gauge over adc described by cfg.
func NewDividerGauge(adc ADC, cfg DividerConfig) *DividerGauge {
	return &DividerGauge{adc: adc, cfg: cfg}
}

func (g *DividerGauge) Voltage() (float64, error) {
	raw, err := g.adc.Read()
	if err != nil {
		return 0, err
	}
	return DividerInput(ADCToVoltage(raw, g.cfg), g.cfg), nil
}

// Fixed is a Gauge that always reads the same voltage, for tests and
// simulated runs.
type Fixed struct {
	V   float64
	Err error
}

var _ Gauge = (*Fixed)(nil)

func (f *Fixed) Voltage() (float64, error) { return f.V, f.Err }
