package query

import (
	"cmp"
	"encoding/json"
	"maps"
	"slices"
)

// Set is an unordered collection of distinct values.
type Set[T cmp.Ordered] map[T]struct{}

// NewSet returns a set holding the given values.
func NewSet[T cmp.Ordered](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v.
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

// Has reports whether v is a member.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s Set[T]) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order. An empty set yields an empty, non-nil slice.
func (s Set[T]) Sorted() []T {
	out := slices.AppendSeq(make([]T, 0, len(s)), maps.Keys(s))
	slices.Sort(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s Set[T]) Equal(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the set as a sorted array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
