// Package cache holds the derived artifacts both operating modes share:
// rendered pages, compressed buffers and dynamic documents. It owns nothing
// of the entry set; keys flow in from callers, content never flows back.
package cache

import (
	"sync"
)

// Manager is the single mutation surface over the three caches. Callers
// needing only a full clear (the current reload contract) use ClearAll;
// there is deliberately no partial eviction policy.
type Manager struct {
	mu         sync.RWMutex
	rendered   map[string][]byte // page id -> rendered HTML
	compressed map[string][]byte // codec+etag -> compressed buffer
	dynamic    map[string][]byte // document name -> serialized document
}

func NewManager() *Manager {
	return &Manager{
		rendered:   map[string][]byte{},
		compressed: map[string][]byte{},
		dynamic:    map[string][]byte{},
	}
}

// CompressedKey builds the compressed-buffer cache key.
func CompressedKey(codec, etag string) string { return codec + ":" + etag }

func (m *Manager) GetRendered(pageID string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.rendered[pageID]
	return b, ok
}

func (m *Manager) SetRendered(pageID string, html []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered[pageID] = html
}

func (m *Manager) GetCompressed(codec, etag string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.compressed[CompressedKey(codec, etag)]
	return b, ok
}

func (m *Manager) SetCompressed(codec, etag string, buf []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compressed[CompressedKey(codec, etag)] = buf
}

func (m *Manager) GetDynamic(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.dynamic[name]
	return b, ok
}

func (m *Manager) SetDynamic(name string, doc []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dynamic[name] = doc
}

// Len reports the entry counts of the three caches.
func (m *Manager) Len() (rendered, compressed, dynamic int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rendered), len(m.compressed), len(m.dynamic)
}

// ClearAll empties all three caches and returns the number of freed entries.
func (m *Manager) ClearAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	freed := len(m.rendered) + len(m.compressed) + len(m.dynamic)
	m.rendered = map[string][]byte{}
	m.compressed = map[string][]byte{}
	m.dynamic = map[string][]byte{}
	return freed
}
