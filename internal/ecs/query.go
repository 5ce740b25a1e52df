package ecs

// Query is an immutable predicate over archetypes: every component in
// Requires must be present, every component in Excludes must be absent.
// Optional components do not affect matching but are listed so systems can
// self-document which columns they read defensively with Get's
// none-equivalent return.
type Query struct {
	Requires []ComponentType
	Excludes []ComponentType
	Optional []ComponentType
}

// NewQuery builds a Query requiring the given component types.
func NewQuery(requires ...ComponentType) Query {
	return Query{Requires: append([]ComponentType(nil), requires...)}
}

// Exclude returns a copy of q with additional excluded component types.
func (q Query) Exclude(types ...ComponentType) Query {
	q.Excludes = append(append([]ComponentType(nil), q.Excludes...), types...)
	return q
}

// WithOptional returns a copy of q with additional optional component types.
func (q Query) WithOptional(types ...ComponentType) Query {
	q.Optional = append(append([]ComponentType(nil), q.Optional...), types...)
	return q
}

// Chunks evaluates the query against the Store's current archetype
// registry and returns every matching chunk. Query evaluation is a
// one-shot scan per spec.md §4.1; callers (the scheduler) are expected to
// call this once per system per group, not per-entity.
func (q Query) Chunks(s *Store) []*Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Chunk
	for _, a := range s.archetypes {
		if !a.matches(q) {
			continue
		}
		for _, c := range a.chunks {
			if c.count > 0 {
				out = append(out, c)
			}
		}
	}
	return out
}

// ForEach runs fn once per live entity matched by the query, with a
// ComponentAccessor positioned at that entity's slot. It is a convenience
// for tests and bootstrap code; production systems iterate chunk columns
// directly for cache-friendly access.
func (q Query) ForEach(s *Store, fn func(ComponentAccessor)) {
	for _, c := range q.Chunks(s) {
		for slot := 0; slot < c.Count(); slot++ {
			fn(NewComponentAccessor(c, slot))
		}
	}
}
