package card

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir is a Card backed by a directory on the host filesystem. This is the
// production implementation when the removable card is mounted as a
// directory.
type Dir struct {
	root string
}

var _ Card = (*Dir)(nil)

// NewDir creates a directory-backed card rooted at root, creating the
// directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to open card directory %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid card file name %q", name)
	}
	return filepath.Join(d.root, name), nil
}

// Create opens name for writing, truncating any existing content.
func (d *Dir) Create(name string) (File, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}
	return &dirFile{f: f, name: name}, nil
}

// Append opens name for appending, creating it if absent.
func (d *Dir) Append(name string) (File, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to append %s: %w", name, err)
	}
	return &dirFile{f: f, name: name}, nil
}

// Open opens name for reading.
func (d *Dir) Open(name string) (File, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return &dirFile{f: f, name: name}, nil
}

func (d *Dir) Exists(name string) bool {
	p, err := d.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (d *Dir) Remove(name string) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// List returns the files on the card sorted by name. Subdirectories are
// skipped; the card namespace is flat.
func (d *Dir) List() ([]Info, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list card: %w", err)
	}
	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: e.Name(), Size: fi.Size()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

type dirFile struct {
	f    *os.File
	name string
}

func (df *dirFile) Read(p []byte) (int, error)  { return df.f.Read(p) }
func (df *dirFile) Write(p []byte) (int, error) { return df.f.Write(p) }
func (df *dirFile) Sync() error                 { return df.f.Sync() }
func (df *dirFile) Close() error                { return df.f.Close() }
func (df *dirFile) Name() string                { return df.name }
