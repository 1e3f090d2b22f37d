package cell

import "fmt"

// RawUnavailable is the sentinel recorded when the sensor has no reading
// ready at sample time.
const RawUnavailable int64 = 99999

// gainTable maps a gain setting index to the amplifier gain it selects.
var gainTable = []int{1, 2, 4, 8, 16, 32, 64, 128}

// GainValue resolves a gain setting index into the amplifier gain, for
// operator display.
func GainValue(index int) (int, error) {
	if index < 0 || index >= len(gainTable) {
		return 0, fmt.Errorf("gain index %d out of range 0..%d", index, len(gainTable)-1)
	}
	return gainTable[index], nil
}

// GainCount returns the number of gain settings.
func GainCount() int { return len(gainTable) }

// Sensor is the load cell collaborator. Readings are raw amplifier
// counts; conversion to force is the calibration model's job.
type Sensor interface {
	// Begin initializes the sensor hardware.
	Begin() error
	// SetGain selects an entry of the gain table by index.
	SetGain(index int) error
	// SetSampleRate selects the sensor's internal sample rate code.
	SetSampleRate(code int) error
	// Available reports whether a reading is ready without blocking.
	Available() bool
	// Reading returns the next raw count.
	Reading() (int64, error)
}
