package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	rq := require.New(t)

	var o Optional[int]
	rq.False(o.Present())
	rq.Equal(7, o.GetOr(7))
	rq.Panics(func() { o.MustGet() })

	o.Set(42)
	rq.True(o.Present())
	rq.Equal(42, o.MustGet())
	rq.Equal(42, o.GetOr(7))

	p := NewOptional("x")
	rq.True(p.Present())
	rq.Equal("x", p.MustGet())
}

func TestAssert(t *testing.T) {
	rq := require.New(t)

	rq.NotPanics(func() { Assert(true, "fine") })
	rq.PanicsWithValue("boom", func() { Assert(false, "boom") })
	rq.Panics(func() { Assertf(false, "bad value %d", 3) })
}

func TestSet(t *testing.T) {
	rq := require.New(t)

	s := NewSet[string]()
	rq.Equal(0, s.Len())
	rq.False(s.Has("a"))
	s.Add("a")
	s.Add("a")
	rq.True(s.Has("a"))
	rq.Equal(1, s.Len())
}

func TestTern(t *testing.T) {
	rq := require.New(t)

	rq.Equal("yes", Tern(true, "yes", "no"))
	rq.Equal("no", Tern(false, "yes", "no"))
}
