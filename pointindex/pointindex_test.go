package pointindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucid/planar/geom"
)

func testBox() geom.Box {
	return geom.Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
}

func TestFindOrAddPointIdempotent(t *testing.T) {
	idx := New(testBox(), 1e-6, false)
	v1 := idx.FindOrAddPoint(1, 2, nil)
	v2 := idx.FindOrAddPoint(1, 2, nil)
	assert.Same(t, v1, v2)
	assert.Equal(t, 1, idx.Count())
}

func TestFindOrAddPointSnapsWithinTolerance(t *testing.T) {
	idx := New(testBox(), 0.01, false)
	v1 := idx.FindOrAddPoint(1, 1, NewIDSet(7))
	v2 := idx.FindOrAddPoint(1.004, 1, NewIDSet(9))
	assert.Same(t, v1, v2)

	// The original coordinates win; ids from both callers are merged.
	assert.Equal(t, 1.0, v1.X)
	assert.Contains(t, v1.IDs, 7)
	assert.Contains(t, v1.IDs, 9)

	v3 := idx.FindOrAddPoint(1.02, 1, nil)
	assert.NotSame(t, v1, v3)
	assert.Equal(t, 2, idx.Count())
}

func TestFindPointPicksNearest(t *testing.T) {
	idx := New(testBox(), 0.1, false)
	idx.FindOrAddPoint(1, 1, nil)
	near := idx.FindOrAddPoint(1.15, 1, nil)

	// Both existing vertices are within tolerance of the query; the closer one
	// must win even though it lives in a neighboring grid cell.
	found := idx.FindPoint(1.09, 1)
	assert.Same(t, near, found)

	assert.Nil(t, idx.FindPoint(5, 5))
}

func TestVertexLookup(t *testing.T) {
	idx := New(testBox(), 1e-6, false)
	v := idx.FindOrAddPoint(3, 4, nil)
	assert.Same(t, v, idx.Vertex(v.ID))
	assert.Nil(t, idx.Vertex(-1))
	assert.Nil(t, idx.Vertex(99))
}

func TestRemoveAndCompact(t *testing.T) {
	idx := New(testBox(), 1e-6, false)
	a := idx.FindOrAddPoint(1, 1, nil)
	b := idx.FindOrAddPoint(2, 2, nil)
	c := idx.FindOrAddPoint(3, 3, nil)

	idx.Remove(b)
	assert.Nil(t, idx.Vertex(b.ID))
	assert.Nil(t, idx.FindPoint(2, 2))

	// A new point at the removed location must not resurrect the tombstone.
	b2 := idx.FindOrAddPoint(2, 2, nil)
	assert.NotSame(t, b, b2)

	oldA, oldC, oldB2 := a.ID, c.ID, b2.ID
	prev := idx.Compact()
	require.Equal(t, []int{oldA, oldC, oldB2}, prev)
	assert.Equal(t, 0, a.ID)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, 2, b2.ID)
	assert.Equal(t, 3, idx.Count())

	// Surviving vertices are findable under their new ids.
	for i := 0; i < idx.Count(); i++ {
		assert.NotNil(t, idx.Vertex(i))
	}
}

func TestEnumVertices(t *testing.T) {
	idx := New(testBox(), 1e-6, false)
	idx.FindOrAddPoint(1, 1, nil)
	v := idx.FindOrAddPoint(2, 2, nil)
	idx.FindOrAddPoint(3, 3, nil)
	idx.Remove(v)

	var ids []int
	idx.EnumVertices(func(v *Vertex) bool {
		ids = append(ids, v.ID)
		return true
	})
	assert.Equal(t, []int{0, 2}, ids)
}

func TestFindNearestRequiresTree(t *testing.T) {
	idx := New(testBox(), 1e-6, false)
	assert.Panics(t, func() { idx.FindNearest(1, 1, 1) })
}

func TestFindNearest(t *testing.T) {
	idx := New(testBox(), 1e-6, true)
	idx.FindOrAddPoint(1, 1, nil)
	near := idx.FindOrAddPoint(2, 2, nil)

	found := idx.FindNearest(2.2, 2.2, 1)
	assert.Same(t, near, found)
	assert.Nil(t, idx.FindNearest(8, 8, 1))
}

func TestEnumInBox(t *testing.T) {
	idx := New(testBox(), 1e-6, true)
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			idx.FindOrAddPoint(float64(x), float64(y), nil)
		}
	}
	count := 0
	idx.EnumInBox(geom.Box{MinX: 2, MinY: 2, MaxX: 4, MaxY: 4}, func(v *Vertex) bool {
		count++
		return true
	})
	assert.Equal(t, 9, count)
}

func TestIDSet(t *testing.T) {
	t.Run("Merge", func(t *testing.T) {
		var s IDSet
		s = s.Merge(NewIDSet(1, 2))
		s = s.Merge(NewIDSet(2, 3))
		assert.Equal(t, NewIDSet(1, 2, 3), s)
		assert.Equal(t, s, s.Merge(nil))
	})

	t.Run("Intersect", func(t *testing.T) {
		assert.Equal(t, NewIDSet(2), NewIDSet(1, 2).Intersect(NewIDSet(2, 3)))
		assert.Nil(t, NewIDSet(1).Intersect(NewIDSet(2)))
		assert.Nil(t, NewIDSet(1).Intersect(nil))
		assert.Nil(t, IDSet(nil).Intersect(NewIDSet(1)))
	})
}
