package card

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// Mem is an in-memory Card for tests and the simulated device. It keeps a
// per-file sync counter so a test can assert flush cadence.
type Mem struct {
	mu    sync.Mutex
	files map[string]*memData
	// FailAll makes every operation fail, simulating a dead card.
	FailAll bool
}

type memData struct {
	buf   bytes.Buffer
	syncs int
}

var _ Card = (*Mem)(nil)

// NewMem creates an empty in-memory card.
func NewMem() *Mem {
	return &Mem{files: make(map[string]*memData)}
}

// Syncs reports how many times name has been synced.
func (m *Mem) Syncs(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.files[name]; ok {
		return d.syncs
	}
	return 0
}

// Contents returns the current bytes of name.
func (m *Mem) Contents(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[name]
	if !ok {
		return nil, false
	}
	out := make([]byte, d.buf.Len())
	copy(out, d.buf.Bytes())
	return out, true
}

func (m *Mem) Create(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, fmt.Errorf("card failure creating %s", name)
	}
	d := &memData{}
	m.files[name] = d
	return &memFile{card: m, data: d, name: name}, nil
}

func (m *Mem) Append(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, fmt.Errorf("card failure appending %s", name)
	}
	d, ok := m.files[name]
	if !ok {
		d = &memData{}
		m.files[name] = d
	}
	return &memFile{card: m, data: d, name: name}, nil
}

func (m *Mem) Open(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, fmt.Errorf("card failure opening %s", name)
	}
	d, ok := m.files[name]
	if !ok {
		return nil, ErrNotFound
	}
	rd := bytes.NewReader(d.buf.Bytes())
	return &memFile{card: m, data: d, name: name, reader: rd}, nil
}

func (m *Mem) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *Mem) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return fmt.Errorf("card failure removing %s", name)
	}
	if _, ok := m.files[name]; !ok {
		return ErrNotFound
	}
	delete(m.files, name)
	return nil
}

func (m *Mem) List() ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, fmt.Errorf("card failure listing")
	}
	infos := make([]Info, 0, len(m.files))
	for name, d := range m.files {
		infos = append(infos, Info{Name: name, Size: int64(d.buf.Len())})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

type memFile struct {
	card   *Mem
	data   *memData
	name   string
	reader *bytes.Reader
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.reader == nil {
		return 0, fmt.Errorf("%s not open for reading", f.name)
	}
	return f.reader.Read(p)
}

func (f *memFile) Write(p []byte) (int, error) {
	f.card.mu.Lock()
	defer f.card.mu.Unlock()
	if f.card.FailAll {
		return 0, fmt.Errorf("card failure writing %s", f.name)
	}
	return f.data.buf.Write(p)
}

func (f *memFile) Sync() error {
	f.card.mu.Lock()
	defer f.card.mu.Unlock()
	if f.card.FailAll {
		return fmt.Errorf("card failure syncing %s", f.name)
	}
	f.data.syncs++
	return nil
}

func (f *memFile) Close() error { return nil }

func (f *memFile) Name() string { return f.name }
