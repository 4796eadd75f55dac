// Package selector holds interactive widget state for charts that expose
// user-switchable encodings (selectable color, selectable x-axis).
//
// State is keyed by chart archetype, table fingerprint and slot, so a
// selection survives re-running the same query but never leaks across
// different result shapes. Hosts inject a Store; nothing here is global.
package selector

import "sync"

// Key identifies one selector widget instance.
type Key struct {
	Chart       string // archetype tag, e.g. "chart4"
	Fingerprint string // table fingerprint
	Slot        string // widget slot within the chart, e.g. "color", "x"
}

// Store persists selector choices across renders.
type Store interface {
	// GetOrInit returns the stored choice for k when it is still a member of
	// valid. Unseen keys and stale choices initialize to valid[0] and that
	// default is persisted. An empty valid list returns "".
	GetOrInit(k Key, valid []string) string

	// Set records an explicit user choice.
	Set(k Key, choice string)
}

// MemStore is an in-memory Store. Safe for concurrent use; the zero value
// is ready to use.
type MemStore struct {
	mu sync.Mutex
	m  map[Key]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[Key]string)}
}

func (s *MemStore) GetOrInit(k Key, valid []string) string {
	if len(valid) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[Key]string)
	}
	if cur, ok := s.m[k]; ok {
		for _, v := range valid {
			if v == cur {
				return cur
			}
		}
	}
	s.m[k] = valid[0]
	return valid[0]
}

func (s *MemStore) Set(k Key, choice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[Key]string)
	}
	s.m[k] = choice
}
