package linkstore

import "sync"

// MemoryBackend keeps the document in memory. SaveErr, when set, is returned
// from every Save so callers can exercise rollback.
type MemoryBackend struct {
	mu      sync.Mutex
	doc     *Document
	saves   int
	SaveErr error
}

// Load returns a copy of the last saved document.
func (m *MemoryBackend) Load() (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return &Document{Version: CurrentVersion}, nil
	}
	return m.doc.clone(), nil
}

// Save stores a copy of doc.
func (m *MemoryBackend) Save(doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.doc = doc.clone()
	m.saves++
	return nil
}

// Saves returns how many saves succeeded.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
