package cell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate for the cell amplifier link.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

// Serial is a Sensor connected over a serial line. The amplifier streams
// one signed decimal raw count per line; gain and sample rate changes are
// sent as short text commands.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn     serial.Port
	readings chan int64
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
}

var _ Sensor = (*Serial)(nil)

// NewSerial creates a serial sensor on the named port. Zero baudRate and
// bufSize select the defaults.
func NewSerial(port string, baudRate, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		readings: make(chan int64, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Begin opens the serial port and starts reading raw counts.
func (s *Serial) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("sensor already started")
	}

	mode := &serial.Mode{BaudRate: s.baudRate}
	port, err := serial.Open(s.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open sensor port %s: %w", s.port, err)
	}

	s.conn = port
	s.started = true

	go s.readCounts()

	return nil
}

// Close stops reading and closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.cancel()
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing sensor port: %v", err)
		}
		s.conn = nil
	}
	s.started = false

	return nil
}

// SetGain sends a gain select command to the amplifier.
func (s *Serial) SetGain(index int) error {
	if _, err := GainValue(index); err != nil {
		return err
	}
	return s.send(fmt.Sprintf("G%d\n", index))
}

// SetSampleRate sends a sample rate select command to the amplifier.
func (s *Serial) SetSampleRate(code int) error {
	if code < 0 {
		return fmt.Errorf("sample rate code %d out of range", code)
	}
	return s.send(fmt.Sprintf("R%d\n", code))
}

func (s *Serial) send(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("sensor not started")
	}
	if _, err := s.conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("failed to send %q: %w", strings.TrimSpace(cmd), err)
	}
	return nil
}

// Available reports whether a raw count is waiting.
func (s *Serial) Available() bool {
	return len(s.readings) > 0
}

// Reading returns the next raw count from the amplifier stream.
func (s *Serial) Reading() (int64, error) {
	select {
	case raw, ok := <-s.readings:
		if !ok {
			return 0, fmt.Errorf("sensor stream closed")
		}
		return raw, nil
	case <-s.ctx.Done():
		return 0, fmt.Errorf("sensor stopped")
	}
}

// readCounts reads lines from the serial port and parses them into raw
// counts.
func (s *Serial) readCounts() {
	scanner := bufio.NewScanner(s.conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from sensor port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			raw, err := strconv.ParseInt(line, 10, 64)
			if err != nil {
				log.Printf("Failed to parse sensor line %q: %v", line, err)
				continue
			}

			select {
			case s.readings <- raw:
			case <-s.ctx.Done():
				return
			default:
				// Channel full, drop the oldest style: skip this one.
				log.Printf("Sensor readings channel full, dropping count")
			}
		}
	}
}
