package viewstate

import "sync"

// Location holds the shareable query representation, e.g. a browser URL's
// query string or a bookmark.
type Location interface {
	Query() string
	Replace(raw string)
}

// MemoryLocation is an in-process Location that counts writes.
type MemoryLocation struct {
	mu     sync.Mutex
	raw    string
	writes int
}

func NewMemoryLocation(raw string) *MemoryLocation {
	return &MemoryLocation{raw: raw}
}

func (l *MemoryLocation) Query() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.raw
}

func (l *MemoryLocation) Replace(raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.raw = raw
	l.writes++
}

// Writes reports how many times Replace was called.
func (l *MemoryLocation) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}
