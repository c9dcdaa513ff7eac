package interval

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pellucid/planar/geom"
)

func ringEdges(n int) [][2]int {
	edges := make([][2]int, n)
	for i := range edges {
		edges[i] = [2]int{i, (i + 1) % n}
	}
	return edges
}

func bruteForce(points []geom.Point, edges [][2]int, p geom.Point) bool {
	segs := make([][2]geom.Point, len(edges))
	for i, e := range edges {
		segs[i] = [2]geom.Point{points[e[0]], points[e[1]]}
	}
	return geom.RayCrossings(p, segs)%2 == 1
}

func boxOf(points []geom.Point) geom.Box {
	box := geom.EmptyBox()
	for _, p := range points {
		box.Extend(p)
	}
	return box
}

func TestSquare(t *testing.T) {
	points := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	tree := New(points, ringEdges(4), boxOf(points))
	tree.Build()

	assert.True(t, tree.PointInPolygon(0.5, 0.5))
	assert.False(t, tree.PointInPolygon(1.5, 0.5))
	assert.False(t, tree.PointInPolygon(0.5, -0.5))
	assert.False(t, tree.PointInPolygon(0.5, 1.5))
}

func TestAgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// A spiky star polygon: lots of edges, lots of y bands, and queries that
	// land both between spikes and inside the core.
	n := 64
	points := make([]geom.Point, n)
	for i := range points {
		angle := 2 * math.Pi * float64(i) / float64(n)
		radius := 1.0
		if i%2 == 1 {
			radius = 0.4
		}
		points[i] = geom.Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
	}
	edges := ringEdges(n)

	tree := New(points, edges, boxOf(points))
	tree.Build()

	for trial := 0; trial < 500; trial++ {
		p := geom.Point{X: rng.Float64()*2.4 - 1.2, Y: rng.Float64()*2.4 - 1.2}
		assert.Equal(t, bruteForce(points, edges, p), tree.PointInPolygon(p.X, p.Y),
			"query %v", p)
	}
}

func TestHoleParity(t *testing.T) {
	// Outer square with an inner square; all eight edges in one tree. Points
	// inside the hole must come out even.
	points := []geom.Point{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
		{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3},
	}
	edges := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
	}
	tree := New(points, edges, boxOf(points))
	tree.Build()

	cases := []struct {
		x, y   float64
		inside bool
	}{
		{0.5, 0.5, true},
		{2, 2, false},
		{3.5, 2, true},
		{5, 2, false},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("(%v,%v)", c.x, c.y), func(t *testing.T) {
			assert.Equal(t, c.inside, tree.PointInPolygon(c.x, c.y))
		})
	}
}

func TestDegenerateYBand(t *testing.T) {
	// Every edge shares the same y span, so no split makes progress. The
	// build must stop instead of recursing and still answer correctly.
	var points []geom.Point
	var edges [][2]int
	for i := 0; i < 20; i++ {
		x := float64(i)
		points = append(points, geom.Point{X: x, Y: 0}, geom.Point{X: x, Y: 1})
		edges = append(edges, [2]int{2 * i, 2*i + 1})
	}
	tree := New(points, edges, boxOf(points))
	tree.Build()

	// Between vertical rails i and i+1 the parity alternates with i.
	assert.True(t, tree.PointInPolygon(0.5, 0.5))
	assert.False(t, tree.PointInPolygon(1.5, 0.5))
	assert.True(t, tree.PointInPolygon(2.5, 0.5))
}

func TestEmptyTree(t *testing.T) {
	tree := New(nil, nil, geom.EmptyBox())
	tree.Build()
	assert.False(t, tree.PointInPolygon(0, 0))
}
