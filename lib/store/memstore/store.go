package memstore

// Store holds the complete rendezvous state of the coordination daemon:
// the key-value map, the wait registry and the per-slot pending counts.
//
// Thread-safety: none. The state is exclusively owned and mutated by the
// daemon's single processing goroutine, so no locking is needed and none
// is used.
type Store struct {
	worldSize int

	// kv maps a key to its value. Keys never disappear once set; a later
	// Set overwrites the value (last write wins).
	kv map[string][]byte

	// waiting maps a not-yet-present key to the ordered list of slots
	// currently blocked on it. A slot may appear more than once if the
	// same key was passed to RegisterWait multiple times.
	waiting map[string][]int

	// pending counts per slot how many keys that slot is still waiting
	// for. A slot is eligible for release exactly when its count reaches
	// zero.
	pending []int
}

// New creates the empty rendezvous state for a group of worldSize slots.
// The state lives for the daemon's entire lifetime; there is no reset.
func New(worldSize int) *Store {
	return &Store{
		worldSize: worldSize,
		kv:        make(map[string][]byte),
		waiting:   make(map[string][]int),
		pending:   make([]int, worldSize),
	}
}

// --------------------------------------------------------------------------
// Key/Value Operations
// --------------------------------------------------------------------------

// Set inserts or overwrites the value for a key and resolves the wait
// registry for it: every slot waiting on the key has its pending count
// decremented, and every slot whose count reaches exactly zero is returned
// as released. The registry entry for the key is removed once processed.
//
// The returned slots are in registration order. The caller (the daemon)
// must send each of them a stop-waiting notification.
func (s *Store) Set(key string, value []byte) (released []int) {
	s.kv[key] = value

	slots, ok := s.waiting[key]
	if !ok {
		return nil
	}

	for _, slot := range slots {
		s.pending[slot]--
		if s.pending[slot] == 0 {
			released = append(released, slot)
		}
	}
	delete(s.waiting, key)

	return released
}

// Get returns the value for a key. The boolean return value indicates
// whether the key is present. Get never mutates any state, absent keys
// included.
func (s *Store) Get(key string) (value []byte, loaded bool) {
	value, loaded = s.kv[key]
	return value, loaded
}

// Has returns whether a key is present in the store.
func (s *Store) Has(key string) bool {
	_, ok := s.kv[key]
	return ok
}

// Len returns the number of distinct keys in the store.
func (s *Store) Len() int {
	return len(s.kv)
}

// --------------------------------------------------------------------------
// Wait Registry Operations
// --------------------------------------------------------------------------

// RegisterWait partitions keys into present and missing against the current
// store snapshot. If no key is missing (an empty key set included) it
// returns zero and the caller must release the slot immediately. Otherwise
// the slot is appended to the registry entry of every missing key, its
// pending count is set to the number of missing keys, and that number is
// returned; the slot stays blocked until enough Set calls drive the count
// to zero.
func (s *Store) RegisterWait(slot int, keys []string) (missing int) {
	for _, key := range keys {
		if _, ok := s.kv[key]; !ok {
			s.waiting[key] = append(s.waiting[key], slot)
			missing++
		}
	}
	s.pending[slot] = missing
	return missing
}

// Pending returns how many keys the slot is still waiting for.
func (s *Store) Pending(slot int) int {
	return s.pending[slot]
}

// WaitingKeys returns the number of keys with at least one blocked slot.
func (s *Store) WaitingKeys() int {
	return len(s.waiting)
}

// WorldSize returns the fixed number of slots the state was created for.
func (s *Store) WorldSize() int {
	return s.worldSize
}
