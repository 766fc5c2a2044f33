package storage

import (
	"encoding/json"
	"sync"
)

// MemStore is an in-memory Store used in tests. It round-trips values
// through JSON so serialization behavior matches the real backends.
type MemStore struct {
	mu    sync.Mutex
	slots map[Domain][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{slots: make(map[Domain][]byte)}
}

func (s *MemStore) Save(domain Domain, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[domain] = data
}

func (s *MemStore) Load(domain Domain, out any) bool {
	s.mu.Lock()
	data, ok := s.slots[domain]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *MemStore) Clear(domain Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, domain)
}

// Corrupt writes raw non-JSON bytes into a slot, simulating external
// tampering for resilience tests.
func (s *MemStore) Corrupt(domain Domain, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[domain] = raw
}
