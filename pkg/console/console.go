// Package console implements the serial-terminal menu: single-character
// command dispatch over the interactive channel, with a file-manager
// sub-mode. Commands block the sampling loop for their duration; an
// operator conversation may delay logging, which is accepted behavior
// while a human is at the terminal.
package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/oceanops/tensionlog/pkg/calib"
	"github.com/oceanops/tensionlog/pkg/card"
	"github.com/oceanops/tensionlog/pkg/cell"
	"github.com/oceanops/tensionlog/pkg/clock"
	"github.com/oceanops/tensionlog/pkg/session"
	"github.com/oceanops/tensionlog/pkg/settings"
)

// Interpreter dispatches menu commands against the shared session.
type Interpreter struct {
	S   *session.Session
	In  *Input
	Out io.Writer
}

// New creates an interpreter over the session, reading from in and
// writing to out.
func New(s *session.Session, in *Input, out io.Writer) *Interpreter {
	return &Interpreter{S: s, In: in, Out: out}
}

// Menu prints the command menu.
func (t *Interpreter) Menu() {
	fmt.Fprintln(t.Out, "Menu commands (any time):")
	fmt.Fprintln(t.Out, " l - Change logging interval")
	fmt.Fprintln(t.Out, " s - Change card sync interval")
	fmt.Fprintln(t.Out, " e - Toggle echo to terminal")
	fmt.Fprintln(t.Out, " z - Get current clock time")
	fmt.Fprintln(t.Out, " d - Set clock time")
	fmt.Fprintln(t.Out, " c - Calibrate load cell with known weight")
	fmt.Fprintln(t.Out, " m - Manually calibrate load cell")
	fmt.Fprintln(t.Out, " v - Show load cell calibration values")
	fmt.Fprintln(t.Out, " t - Tare the load cell")
	fmt.Fprintln(t.Out, " f - Enter the file manager")
}

// Dispatch handles one top-level command byte. Unrecognized characters
// report an error and are otherwise ignored.
func (t *Interpreter) Dispatch(cmd byte) error {
	switch lower(cmd) {
	case 'e':
		return t.toggleEcho()
	case 'l':
		return t.setLogInterval()
	case 's':
		return t.setSyncInterval()
	case 'z':
		fmt.Fprintln(t.Out, clock.ISO8601Z(t.S.Clock.Now()))
		return nil
	case 'd':
		return t.setClock()
	case 't':
		return t.tare()
	case 'c':
		return t.calibrate()
	case 'v':
		t.printCalibration()
		return nil
	case 'm':
		return t.manualCalibration()
	case 'f':
		return t.fileManager()
	case 'h', '?':
		t.Menu()
		return nil
	case '\n', '\r', ' ', '\t':
		return nil
	default:
		fmt.Fprintf(t.Out, "Invalid command %c\n", cmd)
		return nil
	}
}

func (t *Interpreter) toggleEcho() error {
	if err := t.S.SetEcho(!t.S.Settings.Echo); err != nil {
		return err
	}
	if t.S.Settings.Echo {
		fmt.Fprintln(t.Out, "Echo ON")
	} else {
		fmt.Fprintln(t.Out, "Echo OFF")
	}
	return nil
}

func (t *Interpreter) setLogInterval() error {
	for {
		n, err := t.promptInt("Enter the log interval in ms: ")
		if err != nil {
			return err
		}
		err = t.S.SetLogInterval(time.Duration(n) * time.Millisecond)
		if errors.Is(err, settings.ErrIntervalOrder) {
			// Re-prompt, no partial commit.
			fmt.Fprintln(t.Out, "Value is greater than the sync interval!")
			continue
		}
		if err != nil {
			fmt.Fprintf(t.Out, "%v\n", err)
			continue
		}
		fmt.Fprintf(t.Out, "Log interval set at: %d ms.\n", n)
		return nil
	}
}

func (t *Interpreter) setSyncInterval() error {
	for {
		n, err := t.promptInt("Enter the sync interval in ms: ")
		if err != nil {
			return err
		}
		err = t.S.SetSyncInterval(time.Duration(n) * time.Millisecond)
		if errors.Is(err, settings.ErrIntervalOrder) {
			fmt.Fprintln(t.Out, "Value is less than the log interval!")
			continue
		}
		if err != nil {
			fmt.Fprintf(t.Out, "%v\n", err)
			continue
		}
		fmt.Fprintf(t.Out, "Sync interval set at: %d ms.\n", n)
		return nil
	}
}

func (t *Interpreter) setClock() error {
	fmt.Fprintln(t.Out, "--- Set clock ---")
	fmt.Fprintln(t.Out, "Provide a UTC datetime.")
	year, err := t.promptInt("Enter year: ")
	if err != nil {
		return err
	}
	month, err := t.promptInt("Enter month: ")
	if err != nil {
		return err
	}
	day, err := t.promptInt("Enter day: ")
	if err != nil {
		return err
	}
	hour, err := t.promptInt("Enter hour (24 format): ")
	if err != nil {
		return err
	}
	min, err := t.promptInt("Enter minute: ")
	if err != nil {
		return err
	}
	sec, err := t.promptInt("Enter second: ")
	if err != nil {
		return err
	}
	when := time.Date(int(year), time.Month(month), int(day), int(hour), int(min), int(sec), 0, time.UTC)
	fmt.Fprintln(t.Out, "Press enter when ready to set time.")
	if err := t.In.WaitKey(); err != nil {
		return err
	}
	t.S.Clock.Adjust(when)
	fmt.Fprintf(t.Out, "Clock set to %s\n", clock.ISO8601Z(when))
	return nil
}

func (t *Interpreter) tare() error {
	if err := t.S.Tare(); err != nil {
		return err
	}
	fmt.Fprintln(t.Out, "Load cell zeroed.")
	fmt.Fprintf(t.Out, "New zero offset: %d\n", t.S.Cal.ZeroOffset)
	return nil
}

func (t *Interpreter) calibrate() error {
	fmt.Fprintln(t.Out, "Load cell calibration")
	ok, err := t.confirm("Are you sure you want to calibrate? Enter y to continue, any other key to abort: ")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(t.Out, "Calibration aborted")
		t.printCalibration()
		return nil
	}

	fmt.Fprintln(t.Out, "Set up the load cell with no weight on it. Press enter when ready.")
	if err := t.In.WaitKey(); err != nil {
		return err
	}
	if err := t.S.CalibrateZero(calib.CalSamples); err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "New zero offset: %d\n", t.S.Cal.ZeroOffset)

	fmt.Fprintln(t.Out, "Place the known weight on the cell. Press enter when ready.")
	if err := t.In.WaitKey(); err != nil {
		return err
	}
	weight, err := t.promptFloat("Enter the weight on the cell: ")
	if err != nil {
		return err
	}
	// Echo the weight back; some terminals mangle the entry.
	fmt.Fprintf(t.Out, "Calibration weight entered: %g\n", weight)
	if err := t.S.CalibrateScale(weight, calib.CalSamples); err != nil {
		fmt.Fprintf(t.Out, "Calibration failed: %v\n", err)
		return nil
	}
	fmt.Fprintf(t.Out, "New cal factor: %.2f\n", t.S.Cal.ScaleFactor)
	t.printCalibration()
	return nil
}

func (t *Interpreter) manualCalibration() error {
	ok, err := t.confirm("Are you sure you want to change the calibration? Enter y to continue, any other key to abort: ")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(t.Out, "Manual calibration update aborted")
		t.printCalibration()
		return nil
	}
	zero, err := t.promptInt("Enter the zero offset: ")
	if err != nil {
		return err
	}
	factor, err := t.promptFloat("Enter the cal factor: ")
	if err != nil {
		return err
	}
	if err := t.S.SetManualCalibration(zero, factor); err != nil {
		return err
	}
	fmt.Fprintln(t.Out, "Load cell calibrated")
	t.printCalibration()
	return nil
}

func (t *Interpreter) printCalibration() {
	fmt.Fprintf(t.Out, "Zero offset: %d\n", t.S.Cal.ZeroOffset)
	fmt.Fprintf(t.Out, "Cal factor: %.2f\n", t.S.Cal.ScaleFactor)
	if g, err := cell.GainValue(t.S.Settings.Gain); err == nil {
		fmt.Fprintf(t.Out, "Gain: %d\n", g)
	}
	fmt.Fprintf(t.Out, "Trip value: %g\n", t.S.Settings.TripValue)
}

// fileManager is the l/t/d/c/x sub-mode.
func (t *Interpreter) fileManager() error {
	fmt.Fprintln(t.Out, "--- FILE MANAGER ---")
	for {
		fmt.Fprintln(t.Out, "Choose: l - list files; t - transfer a file; d - delete a file; c - clear the card; x - exit.")
		fmt.Fprint(t.Out, "Enter file option: ")
		line, err := t.In.ReadLine()
		if err != nil {
			return err
		}
		switch lower(line[0]) {
		case 'l':
			if err := t.listFiles(); err != nil {
				return err
			}
		case 't':
			if err := t.transferFile(); err != nil {
				return err
			}
		case 'd':
			if err := t.deleteFile(); err != nil {
				return err
			}
		case 'c':
			if err := t.clearCard(); err != nil {
				return err
			}
		case 'x':
			return nil
		default:
			fmt.Fprintln(t.Out, "Invalid option entered!")
		}
	}
}

func (t *Interpreter) listFiles() error {
	infos, err := t.S.Card.List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Fprintf(t.Out, "%s\t\t%d\n", info.Name, info.Size)
	}
	fmt.Fprintln(t.Out, "**no more files**")
	return nil
}

func (t *Interpreter) transferFile() error {
	name, err := t.promptLine("Enter file name: ")
	if err != nil {
		return err
	}
	f, err := t.S.Card.Open(name)
	if errors.Is(err, card.ErrNotFound) {
		fmt.Fprintln(t.Out, "File does not exist.")
		return nil
	}
	if err != nil {
		fmt.Fprintf(t.Out, "Error opening file: %v\n", err)
		return nil
	}
	defer f.Close()
	fmt.Fprintf(t.Out, "File dump from %s\n", name)
	fmt.Fprintln(t.Out, "--------------------------")
	if _, err := io.Copy(t.Out, f); err != nil {
		fmt.Fprintf(t.Out, "Error reading file: %v\n", err)
		return nil
	}
	fmt.Fprintln(t.Out, "--------------------------")
	fmt.Fprintln(t.Out, "Done!")
	return nil
}

func (t *Interpreter) deleteFile() error {
	name, err := t.promptLine("Enter file name: ")
	if err != nil {
		return err
	}
	if name == t.S.Book.Name() {
		fmt.Fprintln(t.Out, "Cannot delete the active session file.")
		return nil
	}
	switch err := t.S.Card.Remove(name); {
	case errors.Is(err, card.ErrNotFound):
		fmt.Fprintln(t.Out, "File entered does not exist.")
	case err != nil:
		fmt.Fprintln(t.Out, "File could not be removed.")
	default:
		fmt.Fprintln(t.Out, "File removed.")
	}
	return nil
}

// clearCard wipes every file except the active session file and the
// settings record.
func (t *Interpreter) clearCard() error {
	ok, err := t.confirm("WARNING: All data on card will be cleared - type Y to continue, or any other key to abort: ")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	infos, err := t.S.Card.List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Name == t.S.Book.Name() || info.Name == t.S.Store.RecordName() {
			continue
		}
		if err := t.S.Card.Remove(info.Name); err != nil {
			fmt.Fprintf(t.Out, "%s could not be removed.\n", info.Name)
			continue
		}
		fmt.Fprintf(t.Out, "%s removed.\n", info.Name)
	}
	return nil
}

// confirm prompts and accepts only y/Y; anything else, including a bare
// enter, aborts.
func (t *Interpreter) confirm(prompt string) (bool, error) {
	fmt.Fprint(t.Out, prompt)
	line, err := t.In.ReadLineRaw()
	if err != nil {
		return false, err
	}
	return line != "" && lower(line[0]) == 'y', nil
}

func (t *Interpreter) promptLine(prompt string) (string, error) {
	fmt.Fprint(t.Out, prompt)
	return t.In.ReadLine()
}

func (t *Interpreter) promptInt(prompt string) (int64, error) {
	for {
		line, err := t.promptLine(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			fmt.Fprintln(t.Out, "Not a number.")
			continue
		}
		return n, nil
	}
}

func (t *Interpreter) promptFloat(prompt string) (float64, error) {
	for {
		line, err := t.promptLine(prompt)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Fprintln(t.Out, "Not a number.")
			continue
		}
		return f, nil
	}
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
