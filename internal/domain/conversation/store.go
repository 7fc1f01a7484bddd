// Package conversation holds the bounded in-memory turn logs shared by every
// chat surface. One Key maps to one FIFO log; when a log reaches capacity the
// oldest turns are evicted first.
package conversation

import "sync"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Key identifies one conversation scope (a chat, a channel, a thread).
type Key string

// Turn is a single utterance. Assistant turns carry the final answer only;
// reasoning text never enters a log.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const defaultCapacity = 10

// Store is a goroutine-safe registry of bounded turn logs.
type Store struct {
	mu       sync.RWMutex
	capacity int
	logs     map[Key][]Turn
}

// NewStore creates a Store whose logs hold at most capacity turns each.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{
		capacity: capacity,
		logs:     make(map[Key][]Turn),
	}
}

// GetOrCreate returns a copy of the log for key, registering an empty log
// when the key is new. A key counts as existing from its first read on.
func (s *Store) GetOrCreate(key Key) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[key]
	if !ok {
		s.logs[key] = make([]Turn, 0, s.capacity)
		return nil
	}
	out := make([]Turn, len(log))
	copy(out, log)
	return out
}

// History returns a copy of the log for key without registering anything.
func (s *Store) History(key Key) ([]Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.logs[key]
	if !ok {
		return nil, false
	}
	out := make([]Turn, len(log))
	copy(out, log)
	return out, true
}

// Append adds turns in argument order, evicting from the head so the log
// never exceeds capacity.
func (s *Store) Append(key Key, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.logs[key], turns...)
	if len(log) > s.capacity {
		log = log[len(log)-s.capacity:]
	}
	s.logs[key] = log
}

// Clear empties the log for key in place, reporting whether a log existed.
// The key stays registered.
func (s *Store) Clear(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logs[key]; !ok {
		return false
	}
	s.logs[key] = nil
	return true
}

// Remove deletes the log for key entirely. No-op for unknown keys.
func (s *Store) Remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, key)
}

// Size reports the number of turns currently held for key.
func (s *Store) Size(key Key) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[key])
}
