package storage

import (
	"sync"
)

// MemorySlot keeps blobs in memory. ReadErr and WriteErr, when set, are
// returned from every Get or Set so callers can exercise failure paths.
type MemorySlot struct {
	mu       sync.Mutex
	data     map[string][]byte
	writes   int
	ReadErr  error
	WriteErr error
}

var _ Slot = (*MemorySlot)(nil)

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

// Get returns a copy of the blob for key.
func (s *MemorySlot) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, false, s.ReadErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data under key.
func (s *MemorySlot) Set(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = append([]byte(nil), data...)
	s.writes++
	return nil
}

// Writes returns the number of successful Set calls.
func (s *MemorySlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
