package counters

// Store keeps the previous tick's cumulative counters keyed by identity.
// It has a single writer (the sampling goroutine) and does no locking.
type Store[K comparable, V any] struct {
	entries map[K]V
}

// NewStore returns an empty store.
func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{entries: make(map[K]V)}
}

// Get returns the stored value for key and whether one exists.
func (s *Store[K, V]) Get(key K) (V, bool) {
	v, ok := s.entries[key]
	return v, ok
}

// Put records the latest reading for key.
func (s *Store[K, V]) Put(key K, value V) {
	s.entries[key] = value
}

// Prune evicts every entry whose key is not in live and returns how many were dropped.
// Callers pass the full set of identities observed this tick, once per tick.
func (s *Store[K, V]) Prune(live map[K]struct{}) int {
	evicted := 0
	for key := range s.entries {
		if _, ok := live[key]; ok {
			continue
		}
		delete(s.entries, key)
		evicted++
	}
	return evicted
}

// Len reports how many identities are tracked.
func (s *Store[K, V]) Len() int {
	return len(s.entries)
}

// Keys returns the tracked identities in no particular order.
func (s *Store[K, V]) Keys() []K {
	keys := make([]K, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}
