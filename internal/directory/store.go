package directory

import "sync/atomic"

// Store holds the current directory. A rebuild replaces the whole directory
// in one swap; readers see either the old or the new one, never a mix.
type Store struct {
	current atomic.Pointer[Directory]
}

// NewStore returns a store holding an empty directory.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Directory{byKey: map[string]*Identity{}})
	return s
}

// Load returns the current directory.
func (s *Store) Load() *Directory {
	return s.current.Load()
}

// Replace swaps in a freshly built directory and returns the previous one.
func (s *Store) Replace(d *Directory) *Directory {
	return s.current.Swap(d)
}
