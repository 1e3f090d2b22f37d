package console

import (
	"io"
	"strings"
)

// Input pumps bytes from the interactive channel into a buffered channel
// so the main loop can poll without blocking, while command handlers do
// genuine blocking reads. While a handler waits, nothing else in the
// system proceeds; the device is expected to be attended during
// calibration.
type Input struct {
	bytes chan byte
}

// NewInput starts reading from r. The pump goroutine exits when r hits
// EOF or errors, after which blocking reads return io.EOF.
func NewInput(r io.Reader) *Input {
	in := &Input{bytes: make(chan byte, 64)}
	go func() {
		defer close(in.bytes)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				in.bytes <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
	return in
}

// Poll returns a pending byte without blocking.
func (in *Input) Poll() (byte, bool) {
	select {
	case b, ok := <-in.bytes:
		if !ok {
			return 0, false
		}
		return b, true
	default:
		return 0, false
	}
}

// ReadByte blocks until a byte arrives.
func (in *Input) ReadByte() (byte, error) {
	b, ok := <-in.bytes
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

// ReadLine blocks until a non-empty line arrives, returning it with
// surrounding whitespace trimmed. Empty lines are skipped so a stray
// terminator from the previous prompt does not consume this one. It
// never returns an empty line: input ending in only whitespace is
// io.EOF.
func (in *Input) ReadLine() (string, error) {
	for {
		line, err := in.readLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// ReadLineRaw reads one line without skipping empties; a bare
// terminator yields "". Used where an empty response carries meaning,
// such as declining a confirmation.
func (in *Input) ReadLineRaw() (string, error) {
	return in.readLine()
}

// readLine collects bytes until a terminator or end of input, returning
// the trimmed line. End of input with nothing buffered surfaces as the
// error.
func (in *Input) readLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := in.ReadByte()
		if err != nil {
			if sb.Len() > 0 {
				return strings.TrimSpace(sb.String()), nil
			}
			return "", err
		}
		if b == '\n' || b == '\r' {
			return strings.TrimSpace(sb.String()), nil
		}
		sb.WriteByte(b)
	}
}

// WaitKey blocks until any input line arrives, discarding it. Used for
// "press enter when ready" pauses.
func (in *Input) WaitKey() error {
	for {
		b, err := in.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' || b == '\r' {
			return nil
		}
	}
}

// Drain discards anything pending in the buffer.
func (in *Input) Drain() {
	for {
		if _, ok := in.Poll(); !ok {
			return
		}
	}
}
