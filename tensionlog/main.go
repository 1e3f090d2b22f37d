package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.bug.st/serial"

	"github.com/oceanops/tensionlog/pkg/battery"
	"github.com/oceanops/tensionlog/pkg/card"
	"github.com/oceanops/tensionlog/pkg/cell"
	"github.com/oceanops/tensionlog/pkg/clock"
	"github.com/oceanops/tensionlog/pkg/config"
	"github.com/oceanops/tensionlog/pkg/console"
	"github.com/oceanops/tensionlog/pkg/indicator"
	"github.com/oceanops/tensionlog/pkg/logbook"
	"github.com/oceanops/tensionlog/pkg/session"
	"github.com/oceanops/tensionlog/pkg/settings"
)

const (
	versionMajor = 1
	versionMinor = 0
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		portFlag   = flag.String("p", "", "Console serial port override (empty = stdio)")
		cardFlag   = flag.String("card", "", "Card directory override")
		mockFlag   = flag.Bool("mock", false, "Use the simulated load cell")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Console.Port = *portFlag
	}
	if *cardFlag != "" {
		cfg.Card.Dir = *cardFlag
	}

	term, termIn := openConsole(cfg)

	sess := &session.Session{Term: term}
	sess.Lamp = indicator.NewLamp(&indicator.Recorder{}, term)

	splash(term)

	// Boot order mirrors the device: card, clock, cell, settings, file.
	fmt.Fprintln(term, "Init card")
	cd, err := card.NewDir(cfg.Card.Dir)
	if err != nil {
		sess.Halt(fmt.Errorf("card: %w", err))
	}
	sess.Card = cd
	fmt.Fprintln(term, "Card OK")

	sess.Clock = clock.NewSystem()

	sensor := openSensor(cfg, *mockFlag)
	if err := sensor.Begin(); err != nil {
		sess.Halt(fmt.Errorf("load cell: %w", err))
	}
	if err := sensor.SetSampleRate(cfg.Sensor.SampleRate); err != nil {
		sess.Halt(fmt.Errorf("load cell: %w", err))
	}
	if err := sensor.SetGain(cfg.Sensor.Gain); err != nil {
		sess.Halt(fmt.Errorf("load cell: %w", err))
	}
	sess.Sensor = sensor
	fmt.Fprintln(term, "Load cell OK")

	store := settings.NewStore(cd, cfg.Card.SettingsFile)
	sess.Store = store
	sets, cal, defaultCal, err := store.Load()
	if err != nil {
		sess.Halt(fmt.Errorf("settings: %w", err))
	}
	sets.Gain = cfg.Sensor.Gain
	sess.Settings = sets
	sess.Cal = cal
	if defaultCal {
		fmt.Fprintln(term, "Load cell not calibrated")
	}

	book, err := logbook.Open(cd, sess.Clock.Now())
	if err != nil {
		sess.Halt(fmt.Errorf("log file: %w", err))
	}
	sess.Book = book
	fmt.Fprintf(term, "Logging to: %s at %dms interval.\n",
		book.Name(), sess.Settings.LogInterval.Milliseconds())

	interp := console.New(sess, termIn, term)
	interp.Menu()

	if sess.Settings.Echo {
		fmt.Fprintln(term, logbook.Header)
	}

	// Setup complete.
	sess.Lamp.Set(indicator.Green)

	loop := &logbook.Loop{
		Sensor:     sess.Sensor,
		Clock:      sess.Clock,
		Cal:        &sess.Cal,
		Settings:   &sess.Settings,
		Book:       book,
		Lamp:       sess.Lamp,
		Gauge:      &battery.Fixed{V: cfg.Battery.SimVoltage},
		LowBattery: cfg.Battery.LowVoltage,
		Term:       term,
	}
	loop.Start(time.Now())

	// Single thread of control: poll the console, then run one sampling
	// iteration. A command conversation blocks sampling for its duration.
	for {
		if b, ok := termIn.Poll(); ok {
			if err := interp.Dispatch(b); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				sess.Halt(err)
			}
			termIn.Drain()
		}
		if err := loop.Tick(time.Now()); err != nil {
			sess.Halt(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := book.Sync(); err != nil {
		log.Printf("Final sync failed: %v", err)
	}
	book.Close()
}

func splash(w io.Writer) {
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, "      Endline Tension Logger")
	fmt.Fprintf(w, "      Version %d.%d\n", versionMajor, versionMinor)
	fmt.Fprintln(w, "----------------------------------------")
}

// openConsole returns the interactive channel: a serial port when one is
// configured, stdio otherwise.
func openConsole(cfg *config.Config) (io.Writer, *console.Input) {
	if cfg.Console.Port == "" {
		return os.Stdout, console.NewInput(os.Stdin)
	}
	port, err := serial.Open(cfg.Console.Port, &serial.Mode{BaudRate: cfg.Console.Baud})
	if err != nil {
		log.Fatalf("Failed to open console port %s: %v", cfg.Console.Port, err)
	}
	return port, console.NewInput(port)
}

// openSensor returns the configured load cell: serial when a port is
// set, simulated otherwise.
func openSensor(cfg *config.Config, forceMock bool) cell.Sensor {
	if forceMock || cfg.Sensor.Port == "" {
		sim := cfg.Sensor.Sim
		return cell.NewSim(cell.SimConfig{
			ZeroOffset: sim.ZeroOffset,
			Amplitude:  float32(sim.Amplitude),
			Period:     sim.Period,
			NoiseLevel: float32(sim.NoiseLevel),
			Seed:       sim.Seed,
		})
	}
	return cell.NewSerial(cfg.Sensor.Port, cfg.Sensor.Baud, 0)
}
