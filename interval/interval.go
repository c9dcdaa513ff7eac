// Package interval implements a y-banded acceleration structure for
// point-in-polygon tests. Cut-plane polygons can carry tens of thousands of
// boundary edges, and classifying every candidate triangle centroid against
// all of them turns triangulation quadratic; the tree prunes each ray cast to
// the edges whose y-span can actually cross it.
package interval

import (
	"github.com/pellucid/planar/geom"
)

const (
	// minEdges is the node size below which further splitting isn't worth it.
	minEdges = 3
	// maxDepth is a hard recursion cap. Degenerate inputs (many edges sharing
	// one y band) stop on the zero-height check, but the cap makes the bound
	// explicit.
	maxDepth = 32
)

// Tree is built once per finalized region from its point array and edge list.
// Edges are index pairs into points.
type Tree struct {
	points []geom.Point
	edges  [][2]int
	box    geom.Box
	root   *node
}

type node struct {
	yMin, yMax float64
	// edges whose y-span straddles the node's split line. Children hold the
	// edges falling fully below and above it.
	edges       []int
	left, right *node
}

func New(points []geom.Point, edges [][2]int, box geom.Box) *Tree {
	return &Tree{points: points, edges: edges, box: box}
}

// Build constructs the tree. Splits are at the midpoint of the node's y range;
// a node keeps only the edges that straddle its split.
func (t *Tree) Build() {
	all := make([]int, len(t.edges))
	for i := range t.edges {
		all[i] = i
	}
	t.root = t.build(all, t.box.MinY, t.box.MaxY, 0)
}

func (t *Tree) build(edgeIdxs []int, yMin, yMax float64, depth int) *node {
	if len(edgeIdxs) == 0 {
		return nil
	}
	n := &node{yMin: yMin, yMax: yMax}
	if len(edgeIdxs) < minEdges || yMax-yMin <= 0 || depth >= maxDepth {
		n.edges = edgeIdxs
		return n
	}

	mid := (yMin + yMax) / 2
	var below, above []int
	for _, ei := range edgeIdxs {
		lo, hi := t.edgeYSpan(ei)
		switch {
		case hi <= mid:
			below = append(below, ei)
		case lo >= mid:
			above = append(above, ei)
		default:
			n.edges = append(n.edges, ei)
		}
	}

	// A split that separates nothing would recurse forever; keep everything
	// here instead.
	if len(below) == len(edgeIdxs) || len(above) == len(edgeIdxs) {
		n.edges = edgeIdxs
		return n
	}

	n.left = t.build(below, yMin, mid, depth+1)
	n.right = t.build(above, mid, yMax, depth+1)
	return n
}

func (t *Tree) edgeYSpan(ei int) (lo, hi float64) {
	a := t.points[t.edges[ei][0]]
	b := t.points[t.edges[ei][1]]
	if a.Y < b.Y {
		return a.Y, b.Y
	}
	return b.Y, a.Y
}

// PointInPolygon ray-casts from (x, y) toward +x, visiting only nodes whose y
// range contains the query. Inside-ness follows the even-odd rule over all
// edges in the tree.
func (t *Tree) PointInPolygon(x, y float64) bool {
	if t.root == nil {
		return false
	}
	p := geom.Point{X: x, Y: y}
	return t.root.crossings(t, p)%2 == 1
}

func (n *node) crossings(t *Tree, p geom.Point) int {
	count := 0
	for _, ei := range n.edges {
		a := t.points[t.edges[ei][0]]
		b := t.points[t.edges[ei][1]]
		if geom.RayCrossings(p, [][2]geom.Point{{a, b}}) == 1 {
			count++
		}
	}
	if n.left != nil && p.Y <= n.left.yMax {
		count += n.left.crossings(t, p)
	}
	if n.right != nil && p.Y >= n.right.yMin {
		count += n.right.crossings(t, p)
	}
	return count
}
