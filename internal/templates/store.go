package templates

import "sort"

// Store is a two level ordered map: group name to key to value. Groups and
// keys keep the order in which they were first registered. A Store is not
// safe for concurrent mutation.
type Store struct {
	order  []string
	groups map[string]*group
}

type group struct {
	keys   []string
	values map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{groups: map[string]*group{}}
}

// Register merges values into the named group, creating it when needed.
// Existing keys are overwritten, new keys are appended in sorted order so
// registration from a map stays deterministic.
func (s *Store) Register(name string, values map[string]string) {
	g := s.ensure(name)
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		g.set(key, values[key])
	}
}

// Set stores a single value.
func (s *Store) Set(name, key, value string) {
	s.ensure(name).set(key, value)
}

// Lookup returns the value stored under group and key.
func (s *Store) Lookup(name, key string) (string, bool) {
	g, ok := s.groups[name]
	if !ok {
		return "", false
	}
	value, ok := g.values[key]
	return value, ok
}

// HasGroup reports whether the group was registered.
func (s *Store) HasGroup(name string) bool {
	_, ok := s.groups[name]
	return ok
}

// Groups lists group names in registration order.
func (s *Store) Groups() []string {
	return append([]string(nil), s.order...)
}

// Keys lists the keys of a group in registration order.
func (s *Store) Keys(name string) []string {
	g, ok := s.groups[name]
	if !ok {
		return nil
	}
	return append([]string(nil), g.keys...)
}

// Values returns a copy of a group's values.
func (s *Store) Values(name string) map[string]string {
	g, ok := s.groups[name]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(g.values))
	for key, value := range g.values {
		out[key] = value
	}
	return out
}

// Merge registers every group of other into s, preserving other's order.
func (s *Store) Merge(other *Store) {
	if other == nil {
		return
	}
	for _, name := range other.order {
		src := other.groups[name]
		dst := s.ensure(name)
		for _, key := range src.keys {
			dst.set(key, src.values[key])
		}
	}
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	clone := NewStore()
	clone.Merge(s)
	return clone
}

// Reset removes every group.
func (s *Store) Reset() {
	s.order = nil
	s.groups = map[string]*group{}
}

// Len reports the number of groups.
func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) ensure(name string) *group {
	if g, ok := s.groups[name]; ok {
		return g
	}
	g := &group{values: map[string]string{}}
	s.groups[name] = g
	s.order = append(s.order, name)
	return g
}

func (g *group) set(key, value string) {
	if _, ok := g.values[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.values[key] = value
}
