package card

import (
	"errors"
	"io"
)

// ErrNotFound is returned when a named file does not exist on the card.
var ErrNotFound = errors.New("file not found on card")

// Info describes a single file on the card.
type Info struct {
	Name string
	Size int64
}

// File is an open file on the storage card.
type File interface {
	io.Reader
	io.Writer
	// Sync forces buffered data onto the medium.
	Sync() error
	Close() error
	Name() string
}

// Card is the storage medium collaborator: a flat, byte-oriented file
// store in the style of a FAT card. Names are case-sensitive as given and
// contain no path separators.
type Card interface {
	// Create opens name for writing, truncating any existing content.
	Create(name string) (File, error)
	// Append opens name for writing at the end, creating it if absent.
	Append(name string) (File, error)
	// Open opens name for reading.
	Open(name string) (File, error)
	Exists(name string) bool
	Remove(name string) error
	List() ([]Info, error)
}
