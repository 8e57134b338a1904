package timeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/feedline/internal/ir"
)

func ids(s ...string) []ir.StatusID {
	out := make([]ir.StatusID, len(s))
	for i, v := range s {
		out[i] = ir.StatusID(v)
	}
	return out
}

func set(s ...string) OrderedSet {
	return NewOrderedSet(ids(s...)...)
}

func TestOrderedSetDeduplicates(t *testing.T) {
	s := set("a", "b", "a", "c", "b")
	assert.Equal(t, ids("a", "b", "c"), s.Slice())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.IndexOf("b"))
	assert.Equal(t, -1, s.IndexOf("z"))
	assert.True(t, s.Has("c"))
	assert.Equal(t, ir.StatusID("a"), s.First())
}

func TestOrderedSetZeroValue(t *testing.T) {
	var s OrderedSet
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("a"))
	assert.Equal(t, ir.StatusID(""), s.First())
	assert.NotNil(t, s.Slice())
	assert.Equal(t, ids("a"), s.Prepend("a").Slice())
}

func TestOrderedSetUnionKeepsReceiverFirst(t *testing.T) {
	a := set("A", "B")
	b := set("B", "C")

	assert.Equal(t, ids("A", "B", "C"), a.Union(b).Slice())
	assert.Equal(t, ids("B", "C", "A"), b.Union(a).Slice())
}

func TestOrderedSetIsImmutable(t *testing.T) {
	s := set("a", "b", "c")
	_ = s.Delete("b")
	_ = s.Prepend("z")
	_ = s.Take(1)
	_ = s.Replace("a", "x")
	assert.Equal(t, ids("a", "b", "c"), s.Slice())
}

func TestOrderedSetTake(t *testing.T) {
	s := set("a", "b", "c")
	assert.Equal(t, ids("a", "b"), s.Take(2).Slice())
	assert.Equal(t, ids("a", "b", "c"), s.Take(10).Slice())
	assert.Equal(t, 0, s.Take(0).Len())
}

func TestOrderedSetDelete(t *testing.T) {
	s := set("a", "b", "c")
	assert.Equal(t, ids("a", "c"), s.Delete("b").Slice())
	assert.Equal(t, ids("a", "b", "c"), s.Delete("missing").Slice())
	assert.Equal(t, 1, s.Delete("a").IndexOf("c"))
}

func TestOrderedSetReplace(t *testing.T) {
	s := set("x", "p", "y")
	assert.Equal(t, ids("x", "z", "y"), s.Replace("p", "z").Slice())
	assert.Equal(t, ids("x", "y"), s.Replace("p", "y").Slice(), "earlier occurrence wins")
	assert.Equal(t, ids("x", "y"), set("x", "y", "p").Replace("p", "x").Slice())
	assert.Equal(t, ids("x", "p", "y"), s.Replace("missing", "z").Slice())
}

func TestOrderedSetFilter(t *testing.T) {
	s := set("1", "22", "3")
	short := s.Filter(func(id ir.StatusID) bool { return len(id) == 1 })
	assert.Equal(t, ids("1", "3"), short.Slice())
}

func TestOrderedSetJSON(t *testing.T) {
	data, err := json.Marshal(set("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, `["b","a"]`, string(data))

	data, err = json.Marshal(OrderedSet{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	var decoded OrderedSet
	require.NoError(t, json.Unmarshal([]byte(`["c","d"]`), &decoded))
	assert.Equal(t, ids("c", "d"), decoded.Slice())

	err = json.Unmarshal([]byte(`["c","c"]`), &decoded)
	require.Error(t, err)
}
