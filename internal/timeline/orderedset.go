package timeline

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/feedline/internal/ir"
)

// OrderedSet is an insertion-ordered set of status ids.
//
// Values are immutable: every operation returns a new set and leaves the
// receiver untouched, so states can share sets freely. The zero value is an
// empty set.
type OrderedSet struct {
	ids   []ir.StatusID
	index map[ir.StatusID]int
}

// NewOrderedSet builds a set from ids, keeping the first occurrence of each.
func NewOrderedSet(ids ...ir.StatusID) OrderedSet {
	if len(ids) == 0 {
		return OrderedSet{}
	}
	out := make([]ir.StatusID, 0, len(ids))
	index := make(map[ir.StatusID]int, len(ids))
	for _, id := range ids {
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(out)
		out = append(out, id)
	}
	return OrderedSet{ids: out, index: index}
}

// Len returns the number of ids in the set.
func (s OrderedSet) Len() int {
	return len(s.ids)
}

// Has reports whether id is a member.
func (s OrderedSet) Has(id ir.StatusID) bool {
	_, ok := s.index[id]
	return ok
}

// IndexOf returns the position of id, or -1.
func (s OrderedSet) IndexOf(id ir.StatusID) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// First returns the first id, or "" for an empty set.
func (s OrderedSet) First() ir.StatusID {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[0]
}

// Slice returns a copy of the ids in order. Never nil.
func (s OrderedSet) Slice() []ir.StatusID {
	out := make([]ir.StatusID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Union returns the receiver's ids followed by the ids of other that are not
// already members.
func (s OrderedSet) Union(other OrderedSet) OrderedSet {
	if other.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return other
	}
	ids := make([]ir.StatusID, 0, len(s.ids)+len(other.ids))
	ids = append(ids, s.ids...)
	ids = append(ids, other.ids...)
	return NewOrderedSet(ids...)
}

// Prepend returns a set with id first. A member id is returned unchanged.
func (s OrderedSet) Prepend(id ir.StatusID) OrderedSet {
	if s.Has(id) {
		return s
	}
	return NewOrderedSet(id).Union(s)
}

// Take returns the first n ids.
func (s OrderedSet) Take(n int) OrderedSet {
	if n >= len(s.ids) {
		return s
	}
	if n <= 0 {
		return OrderedSet{}
	}
	return NewOrderedSet(s.ids[:n]...)
}

// Delete returns the set without id. Removing a non-member is a no-op.
func (s OrderedSet) Delete(id ir.StatusID) OrderedSet {
	i := s.IndexOf(id)
	if i < 0 {
		return s
	}
	ids := make([]ir.StatusID, 0, len(s.ids)-1)
	ids = append(ids, s.ids[:i]...)
	ids = append(ids, s.ids[i+1:]...)
	return NewOrderedSet(ids...)
}

// Filter returns the ids for which keep returns true, in order.
func (s OrderedSet) Filter(keep func(ir.StatusID) bool) OrderedSet {
	ids := make([]ir.StatusID, 0, len(s.ids))
	for _, id := range s.ids {
		if keep(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == len(s.ids) {
		return s
	}
	return NewOrderedSet(ids...)
}

// Replace swaps old for replacement at old's position.
// If replacement is already a member elsewhere, the earlier occurrence wins
// and the later one is dropped. A set without old is returned unchanged.
func (s OrderedSet) Replace(old, replacement ir.StatusID) OrderedSet {
	i := s.IndexOf(old)
	if i < 0 {
		return s
	}
	ids := s.Slice()
	ids[i] = replacement
	return NewOrderedSet(ids...)
}

// MarshalJSON encodes the set as a JSON array.
func (s OrderedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes a JSON array of ids. Duplicates are rejected.
func (s *OrderedSet) UnmarshalJSON(data []byte) error {
	var ids []ir.StatusID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	set := NewOrderedSet(ids...)
	if set.Len() != len(ids) {
		return fmt.Errorf("ordered set: duplicate ids in %d-element array", len(ids))
	}
	*s = set
	return nil
}
