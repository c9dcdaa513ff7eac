package graph

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/pointindex"
)

func testGraph() *Graph {
	return New(geom.Box{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}, 1e-6)
}

// addRing inserts the closed outline of the polygon.
func addRing(g *Graph, points []geom.Point) {
	for i, p := range points {
		q := points[(i+1)%len(points)]
		g.AddEdge(p.X, p.Y, q.X, q.Y, false, nil)
	}
}

func square(x, y, size float64) []geom.Point {
	return []geom.Point{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func TestAddEdgeBasics(t *testing.T) {
	g := testGraph()
	e := g.AddEdge(0, 0, 1, 0, false, nil)
	require.NotNil(t, e)
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 2, g.Points().Count())

	t.Run("duplicate returns the existing edge", func(t *testing.T) {
		assert.Same(t, e, g.AddEdge(0, 0, 1, 0, false, nil))
		assert.Same(t, e, g.AddEdge(1, 0, 0, 0, false, nil))
		assert.Equal(t, 1, g.EdgeCount())
	})

	t.Run("endpoints snap within tolerance", func(t *testing.T) {
		e2 := g.AddEdge(1e-8, -1e-8, 1, 2, false, nil)
		require.NotNil(t, e2)
		// The near-origin endpoint snapped onto the existing vertex.
		assert.Equal(t, 3, g.Points().Count())
	})

	t.Run("zero length is dropped", func(t *testing.T) {
		assert.Nil(t, g.AddEdge(5, 5, 5, 5, false, nil))
		assert.Equal(t, 2, g.EdgeCount())
	})
}

func TestAddEdgeCanonicalOrientation(t *testing.T) {
	g := testGraph()
	e1 := g.AddEdge(0, 0, 1, 1, false, nil)
	g2 := testGraph()
	e2 := g2.AddEdge(1, 1, 0, 0, false, nil)

	// V1 is the lexicographically lower endpoint either way.
	assert.Equal(t, e1.A, e2.A)
	assert.Equal(t, e1.B, e2.B)
	assert.Equal(t, geom.Point{X: 0, Y: 0}, e1.A)
}

func TestAddEdgeSplitsCrossings(t *testing.T) {
	g := testGraph()
	g.AddEdge(0, 0, 1, 1, false, nil)
	g.AddEdge(0, 1, 1, 0, false, nil)

	// Both diagonals split at the shared crossing.
	assert.Equal(t, 5, g.Points().Count())
	assert.Equal(t, 4, g.EdgeCount())

	center := g.FindNearestVertex(0.5, 0.5, 1e-3)
	require.NotNil(t, center)
	assert.InDelta(t, 0.5, center.X, 1e-9)
	assert.InDelta(t, 0.5, center.Y, 1e-9)
	assert.Len(t, center.Edges, 4)
}

func TestAddEdgeTJunction(t *testing.T) {
	g := testGraph()
	g.AddEdge(0, 0, 2, 0, false, nil)
	g.AddEdge(1, 0, 1, 1, false, nil)

	// The new edge's endpoint lands mid-span on the old edge, cutting it.
	assert.Equal(t, 4, g.Points().Count())
	assert.Equal(t, 3, g.EdgeCount())

	mid := g.FindNearestVertex(1, 0, 1e-3)
	require.NotNil(t, mid)
	assert.Len(t, mid.Edges, 3)
}

func TestAddEdgeOverlap(t *testing.T) {
	g := testGraph()
	g.AddEdge(0, 0, 2, 0, false, nil)
	g.AddEdge(1, 0, 3, 0, false, nil)

	// The overlapping run (1,0)-(2,0) must exist exactly once.
	assert.Equal(t, 4, g.Points().Count())
	assert.Equal(t, 3, g.EdgeCount())

	edgeLengths := 0.0
	g.EnumEdges(func(e *Edge) bool {
		edgeLengths += e.Length
		return true
	})
	assert.InDelta(t, 3.0, edgeLengths, 1e-9)
}

func TestAddEdgeIDPropagation(t *testing.T) {
	g := testGraph()
	g.AddEdge(0, 0, 1, 1, false, pointindex.NewIDSet(1))
	g.AddEdge(0, 1, 1, 0, false, pointindex.NewIDSet(2))

	// The crossing vertex lies on both source segments, so it carries the ids
	// of both: each contributes the intersection of its endpoint sets.
	center := g.FindNearestVertex(0.5, 0.5, 1e-3)
	require.NotNil(t, center)
	assert.Contains(t, center.IDs, 1)
	assert.Contains(t, center.IDs, 2)

	corner := g.FindNearestVertex(0, 0, 1e-3)
	require.NotNil(t, corner)
	assert.Contains(t, corner.IDs, 1)
}

func TestSkipSplitting(t *testing.T) {
	g := testGraph()
	g.AddEdge(0, 0, 1, 1, false, nil)
	g.AddEdge(0, 1, 1, 0, true, nil)

	// The caller asserted no crossing, so the diagonals cross uncut.
	assert.Equal(t, 4, g.Points().Count())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestRemoveEdge(t *testing.T) {
	g := testGraph()
	e := g.AddEdge(0, 0, 1, 0, false, nil)
	g.AddEdge(1, 0, 2, 1, false, nil)

	g.RemoveEdge(e)
	assert.Equal(t, 1, g.EdgeCount())
	v := g.FindNearestVertex(1, 0, 1e-3)
	require.NotNil(t, v)
	assert.Len(t, v.Edges, 1)

	// Removing twice is harmless.
	g.RemoveEdge(e)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestRemoveDanglingPolyline(t *testing.T) {
	g := testGraph()
	addRing(g, square(0, 0, 1))
	g.AddEdge(1, 1, 2, 2, false, nil)
	g.AddEdge(2, 2, 3, 2, false, nil)

	tip := g.FindNearestVertex(3, 2, 1e-3)
	require.NotNil(t, tip)
	g.RemoveDanglingPolyline(tip)

	// The whisker is gone down to the ring junction; the ring is intact.
	assert.Equal(t, 4, g.EdgeCount())
	assert.Nil(t, g.FindNearestVertex(2, 2, 1e-3))
	assert.NotNil(t, g.FindNearestVertex(1, 1, 1e-3))
}

func TestDeleteEdgesOnLine(t *testing.T) {
	g := testGraph()
	addRing(g, square(0, 0, 2))
	g.DeleteEdgesOnLine(0, 0, 2, 0)
	assert.Equal(t, 3, g.EdgeCount())

	// Partial coverage deletes nothing: both endpoints must lie on the line.
	g.DeleteEdgesOnLine(0, 0, 2, 2)
	assert.Equal(t, 3, g.EdgeCount())
}

func TestDeleteEdgesInRectangle(t *testing.T) {
	g := testGraph()
	addRing(g, square(0, 0, 1))
	addRing(g, square(5, 5, 1))

	g.DeleteEdgesInRectangle(geom.Box{MinX: 4, MinY: 4, MaxX: 7, MaxY: 7})
	assert.Equal(t, 4, g.EdgeCount())
	assert.NotNil(t, g.FindNearestVertex(0, 0, 1e-3))
}

func TestFindNearestPointOnEdge(t *testing.T) {
	g := testGraph()
	g.AddEdge(0, 0, 2, 0, false, nil)

	pt, e, ok := g.FindNearestPointOnEdge(1, 0.5, 1)
	require.True(t, ok)
	require.NotNil(t, e)
	assert.InDelta(t, 1.0, pt.X, 1e-9)
	assert.InDelta(t, 0.0, pt.Y, 1e-9)

	t.Run("projection clamps to the segment", func(t *testing.T) {
		pt, _, ok := g.FindNearestPointOnEdge(2.5, 0.1, 1)
		require.True(t, ok)
		assert.InDelta(t, 2.0, pt.X, 1e-9)
	})

	t.Run("nothing within radius", func(t *testing.T) {
		_, _, ok := g.FindNearestPointOnEdge(8, 8, 0.5)
		assert.False(t, ok)
	})
}

func TestNoRetainedEdgesCross(t *testing.T) {
	// The arrangement invariant: after arbitrary insertions, surviving edges
	// touch only at shared endpoints. Checked pairwise against the raw
	// intersection predicate.
	rng := rand.New(rand.NewSource(7))
	g := testGraph()
	for i := 0; i < 25; i++ {
		g.AddEdge(
			rng.Float64()*8-4, rng.Float64()*8-4,
			rng.Float64()*8-4, rng.Float64()*8-4,
			false, nil,
		)
	}

	var edges []*Edge
	g.EnumEdges(func(e *Edge) bool {
		edges = append(edges, e)
		return true
	})
	require.NotEmpty(t, edges)

	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			a, b := edges[i], edges[j]
			inter := geom.SegmentsIntersect(a.A, a.B, b.A, b.B, g.Tolerance())
			if inter.Kind == geom.NoIntersection {
				continue
			}
			require.Equal(t, geom.PointIntersection, inter.Kind,
				"edges %v and %v overlap", a, b)
			slackA := 2 * g.Tolerance() / a.Length
			slackB := 2 * g.Tolerance() / b.Length
			for k := range inter.Points {
				ta, tb := inter.ParamsA[k], inter.ParamsB[k]
				assert.True(t, ta <= slackA || ta >= 1-slackA,
					"interior contact on %v at t=%v", a, ta)
				assert.True(t, tb <= slackB || tb >= 1-slackB,
					"interior contact on %v at t=%v", b, tb)
			}
		}
	}
}

func TestPointInPolygon(t *testing.T) {
	g := testGraph()
	addRing(g, square(0, 0, 2))
	assert.True(t, g.PointInPolygon(1, 1))
	assert.False(t, g.PointInPolygon(3, 1))
	assert.False(t, g.PointInPolygon(-1, 1))
}

func TestCleanupFlatEdges(t *testing.T) {
	g := testGraph()
	// A straight run of three micro-segments between junction squares would be
	// overkill; a bare chain is enough to watch it collapse.
	g.AddEdge(0, 0, 1, 0, false, nil)
	g.AddEdge(1, 0, 2, 0, false, nil)
	g.AddEdge(2, 0, 3, 0.0000001, false, nil)

	g.CleanupFlatEdges()
	assert.Equal(t, 1, g.EdgeCount())

	// A genuine corner survives.
	g2 := testGraph()
	g2.AddEdge(0, 0, 1, 0, false, nil)
	g2.AddEdge(1, 0, 1, 1, false, nil)
	g2.CleanupFlatEdges()
	assert.Equal(t, 2, g2.EdgeCount())
}
