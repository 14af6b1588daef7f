// Package persist tracks server-side state that must survive the session
// that created it: spawned processes marked persist. It generalizes
// common/persistance.Persister (SaveMe/LoadMe/DeleteMe round-tripping a
// single workstation profile to disk) into an in-memory, bounded,
// id-keyed table holding many concurrently live handles of any type,
// since distant's analogous unit of persisted state is a running process
// rather than a single on-disk profile.
package persist

import (
	lru "github.com/hashicorp/golang-lru"
)

// Store is a bounded, id-keyed table of live handles. It is safe for
// concurrent use; golang-lru.Cache does its own internal locking, the same
// guarantee Agent.hostAuthCallbacksBySessionID relied on.
type Store struct {
	cache *lru.Cache
}

// New returns a Store holding at most maxEntries handles at once, evicting
// the least recently used entry once full so an unbounded number of
// persisted spawns from a misbehaving client cannot exhaust memory.
func New(maxEntries int) (*Store, error) {
	c, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	return &Store{cache: c}, nil
}

// Save registers handle under id, matching Persister.SaveMe's
// save-or-overwrite semantics.
func (s *Store) Save(id uint32, handle interface{}) {
	s.cache.Add(id, handle)
}

// Load returns the handle registered under id, matching Persister.LoadMe.
func (s *Store) Load(id uint32) (interface{}, bool) {
	return s.cache.Get(id)
}

// Delete removes and returns the handle registered under id, matching
// Persister.DeleteMe's remove-and-return shape.
func (s *Store) Delete(id uint32) (interface{}, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.Remove(id)
	return v, true
}

// Len reports how many handles are currently tracked.
func (s *Store) Len() int {
	return s.cache.Len()
}
