// Package graph implements the planar arrangement at the heart of polygon
// filling: a vertex/edge adjacency graph that keeps itself free of
// uncontrolled edge crossings as segments are inserted, then traces its faces
// into closed regions with correctly nested holes and hands each region to
// the triangulation façade.
package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/logrusorgru/aurora"

	"github.com/pellucid/planar/dbg"
	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/pointindex"
	"github.com/pellucid/planar/quadtree"
)

// flatSinTol is the sine of the angle under which two edges at a degree-2
// vertex count as collinear for CleanupFlatEdges.
const flatSinTol = 1e-3

// Edge is an oriented segment between two snapped vertices. Endpoints are
// canonicalized so V1 is the lexicographically lower one (increasing y, then
// x) regardless of caller insertion order. The two consumption bits are used
// only during contour tracing: each directed pass over an edge happens at
// most once.
type Edge struct {
	ID     int
	V1, V2 int
	// A and B cache the endpoint coordinates. Vertices never move once
	// snapped, so the cache cannot go stale.
	A, B geom.Point

	DX, DY   float64
	Length   float64
	LengthSq float64
	// Angle is the undirected polar angle in [0, π).
	Angle float64

	usedFwd, usedRev bool
	dead             bool
}

// Other returns the vertex id at the far end from v.
func (e *Edge) Other(v int) int {
	if e.V1 == v {
		return e.V2
	}
	return e.V1
}

func (e *Edge) String() string {
	name := dbg.Name(e)
	switch {
	case e.dead:
		name = aurora.Red(name).String()
	case e.usedFwd && e.usedRev:
		name = aurora.Green(name).String()
	case e.usedFwd || e.usedRev:
		name = aurora.Yellow(name).String()
	}
	return fmt.Sprintf("Edge %s %d->%d (%v %v)", name, e.V1, e.V2, e.A, e.B)
}

// Graph is the planar arrangement. Every index it owns is an explicit
// instance; nothing is shared between graphs, so independent graphs are safe
// to run on separate goroutines.
type Graph struct {
	box       geom.Box
	tol       float64
	points    *pointindex.Index
	edges     []*Edge
	tree      *quadtree.QuadTree[*Edge]
	finalized bool

	// incidence caches the angular departure ordering per vertex id, keyed off
	// the vertex Changed flag. Compaction marks every vertex changed, so stale
	// pre-compaction entries are never reused.
	incidence map[int][]departure
}

// edgeHandler adapts Edge to the quadtree's item interface.
type edgeHandler struct{}

func (edgeHandler) Bounds(e *Edge) geom.Box {
	return geom.SegmentBox(e.A, e.B)
}

func (edgeHandler) RepresentativePoint(e *Edge) geom.Point {
	return geom.Point{X: (e.A.X + e.B.X) / 2, Y: (e.A.Y + e.B.Y) / 2}
}

func (edgeHandler) IntersectsBox(e *Edge, box geom.Box) bool {
	return box.Intersects(geom.SegmentBox(e.A, e.B), 0)
}

func (edgeHandler) Endpoints(e *Edge) (geom.Point, geom.Point) {
	return e.A, e.B
}

// New creates an empty graph over the given bounds. tolerance is the snapping
// distance; it should scale with the coordinate magnitude of the input.
func New(box geom.Box, tolerance float64) *Graph {
	return &Graph{
		box:    box,
		tol:    tolerance,
		points: pointindex.New(box, tolerance, true),
		tree:   quadtree.New[*Edge](box, tolerance, edgeHandler{}),
	}
}

func (g *Graph) Tolerance() float64          { return g.tol }
func (g *Graph) Points() *pointindex.Index   { return g.points }
func (g *Graph) Vertex(id int) *pointindex.Vertex {
	return g.points.Vertex(id)
}

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, e := range g.edges {
		if e != nil && !e.dead {
			n++
		}
	}
	return n
}

// EnumEdges visits live edges in id order.
func (g *Graph) EnumEdges(visit func(e *Edge) bool) {
	for _, e := range g.edges {
		if e == nil || e.dead {
			continue
		}
		if !visit(e) {
			return
		}
	}
}

// AddEdge snaps both endpoints and inserts the segment, splitting it and any
// crossed edges so that no two retained edges properly cross. Zero-length and
// duplicate segments are silently dropped; numerically-derived segment
// streams are full of them and they carry no information. ids are attached to
// both endpoint vertices. With skipSplitting the caller asserts the segment
// crosses nothing (for example, it was itself produced by a split).
func (g *Graph) AddEdge(x1, y1, x2, y2 float64, skipSplitting bool, ids pointindex.IDSet) *Edge {
	if g.finalized {
		fatalf("AddEdge on finalized graph")
	}
	v1 := g.points.FindOrAddPoint(x1, y1, ids)
	v2 := g.points.FindOrAddPoint(x2, y2, ids)
	if v1 == v2 {
		return nil
	}
	if e := g.findEdgeBetween(v1.ID, v2.ID); e != nil {
		return e
	}
	if skipSplitting {
		return g.insertEdge(v1, v2)
	}

	a, b := v1.Point(), v2.Point()

	// Collect every crossing against nearby edges before mutating anything:
	// cuts on the new segment, and cuts per existing edge. Discovery order is
	// the tree's enumeration order, which is deterministic for a given
	// insertion sequence.
	type crossed struct {
		edge *Edge
		pts  []geom.Point
	}
	var newCuts []geom.Point
	var hits []crossed
	g.tree.EnumInBox(geom.SegmentBox(a, b), func(o *Edge) bool {
		inter := geom.SegmentsIntersect(a, b, o.A, o.B, g.tol)
		if inter.Kind == geom.NoIntersection {
			return true
		}
		var oCuts []geom.Point
		for i, p := range inter.Points {
			if interiorParam(inter.ParamsA[i], a.Dist(b), g.tol) {
				newCuts = append(newCuts, p)
			}
			if interiorParam(inter.ParamsB[i], o.Length, g.tol) {
				oCuts = append(oCuts, p)
			}
		}
		if len(oCuts) > 0 {
			hits = append(hits, crossed{o, oCuts})
		}
		return true
	})

	for _, h := range hits {
		g.splitEdgeAt(h.edge, h.pts)
	}

	if len(newCuts) == 0 {
		return g.insertEdge(v1, v2)
	}

	// Insert the new segment as a chain through its ordered cut points. The
	// sub-segments cannot cross anything: they are subsets of the original
	// segment, and every crossing on it now ends at a shared vertex.
	cutVerts := g.cutVertices(v1, v2, newCuts, v1.IDs.Intersect(v2.IDs))
	var first *Edge
	prev := v1
	for _, cv := range append(cutVerts, v2) {
		if e := g.insertEdge(prev, cv); e != nil && first == nil {
			first = e
		}
		prev = cv
	}
	return first
}

// interiorParam reports whether the parameter lies strictly inside the
// segment, more than one tolerance away from either end. Endpoint touches
// need no split: the shared vertex already exists.
func interiorParam(t, length, tol float64) bool {
	if length <= 0 {
		return false
	}
	slack := tol / length
	return t > slack && t < 1-slack
}

// cutVertices snaps the cut points and returns their vertices ordered along
// the segment from v1 to v2, with duplicates (cuts that snapped together)
// removed. ids propagate to newly created vertices.
func (g *Graph) cutVertices(v1, v2 *pointindex.Vertex, cuts []geom.Point, ids pointindex.IDSet) []*pointindex.Vertex {
	a, b := v1.Point(), v2.Point()
	type cut struct {
		t float64
		p geom.Point
	}
	ordered := make([]cut, 0, len(cuts))
	for _, p := range cuts {
		t, _, _ := geom.PointOnLine(p, a, b, false, g.tol)
		ordered = append(ordered, cut{t, p})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].t < ordered[j].t })

	var verts []*pointindex.Vertex
	for _, c := range ordered {
		v := g.points.FindOrAddPoint(c.p.X, c.p.Y, ids)
		if v == v1 || v == v2 {
			continue
		}
		if len(verts) > 0 && verts[len(verts)-1] == v {
			continue
		}
		verts = append(verts, v)
	}
	return verts
}

// splitEdgeAt replaces the edge with a chain of sub-segments cut at the given
// points. Vertices created at the cuts inherit the intersection of the edge's
// endpoint id sets: the cut belongs only to sources that own the whole edge.
func (g *Graph) splitEdgeAt(e *Edge, cuts []geom.Point) {
	va := g.points.Vertex(e.V1)
	vb := g.points.Vertex(e.V2)
	if va == nil || vb == nil {
		fatalf("splitEdgeAt: edge %v references removed vertex", e)
	}
	ids := va.IDs.Intersect(vb.IDs)
	verts := g.cutVertices(va, vb, cuts, ids)
	if len(verts) == 0 {
		return
	}
	g.RemoveEdge(e)
	prev := va
	for _, cv := range append(verts, vb) {
		g.insertEdge(prev, cv)
		prev = cv
	}
}

// insertEdge creates the canonical edge between two distinct vertices,
// registering it on both vertices and in the edge tree. Duplicates return the
// existing edge.
func (g *Graph) insertEdge(v1, v2 *pointindex.Vertex) *Edge {
	if v1 == v2 {
		return nil
	}
	if e := g.findEdgeBetween(v1.ID, v2.ID); e != nil {
		return e
	}
	if v2.Point().Below(v1.Point()) {
		v1, v2 = v2, v1
	}
	a, b := v1.Point(), v2.Point()
	e := &Edge{
		ID: len(g.edges),
		V1: v1.ID,
		V2: v2.ID,
		A:  a,
		B:  b,
		DX: b.X - a.X,
		DY: b.Y - a.Y,
	}
	e.LengthSq = e.DX*e.DX + e.DY*e.DY
	e.Length = math.Sqrt(e.LengthSq)
	e.Angle = geom.PolarAngle(e.DX, e.DY)
	g.edges = append(g.edges, e)
	v1.Edges = append(v1.Edges, e.ID)
	v1.Changed = true
	v2.Edges = append(v2.Edges, e.ID)
	v2.Changed = true
	g.tree.Add(e)
	return e
}

func (g *Graph) findEdgeBetween(v1, v2 int) *Edge {
	v := g.points.Vertex(v1)
	if v == nil {
		return nil
	}
	for _, eid := range v.Edges {
		e := g.edges[eid]
		if e == nil || e.dead {
			continue
		}
		if e.Other(v1) == v2 {
			return e
		}
	}
	return nil
}

// RemoveEdge detaches the edge from both endpoints and the spatial index.
// The arena slot survives until compaction.
func (g *Graph) RemoveEdge(e *Edge) {
	if e.dead {
		return
	}
	e.dead = true
	for _, vid := range []int{e.V1, e.V2} {
		v := g.points.Vertex(vid)
		if v == nil {
			continue
		}
		for i, eid := range v.Edges {
			if eid == e.ID {
				v.Edges = append(v.Edges[:i], v.Edges[i+1:]...)
				break
			}
		}
		v.Changed = true
	}
	g.tree.Delete(e)
}

// RemoveDanglingPolyline removes the chain of edges hanging off the vertex
// for as long as the current vertex has degree 1, dropping vertices that end
// up isolated. Used after local edits that orphan part of a polyline.
func (g *Graph) RemoveDanglingPolyline(v *pointindex.Vertex) {
	for v != nil && len(v.Edges) == 1 {
		e := g.edges[v.Edges[0]]
		next := g.points.Vertex(e.Other(v.ID))
		g.RemoveEdge(e)
		g.points.Remove(v)
		v = next
	}
	if v != nil && len(v.Edges) == 0 {
		g.points.Remove(v)
	}
}

// DeleteEdgesOnLine removes every edge lying along the segment (x1,y1)-(x2,y2)
// within the snapping tolerance.
func (g *Graph) DeleteEdgesOnLine(x1, y1, x2, y2 float64) {
	a := geom.Point{X: x1, Y: y1}
	b := geom.Point{X: x2, Y: y2}
	var doomed []*Edge
	g.tree.EnumInBox(geom.SegmentBox(a, b), func(e *Edge) bool {
		_, _, on1 := geom.PointOnLine(e.A, a, b, true, g.tol)
		_, _, on2 := geom.PointOnLine(e.B, a, b, true, g.tol)
		if on1 && on2 {
			doomed = append(doomed, e)
		}
		return true
	})
	for _, e := range doomed {
		g.RemoveEdge(e)
	}
}

// DeleteEdgesInRectangle removes every edge whose both endpoints lie inside
// the box (padded by the snapping tolerance).
func (g *Graph) DeleteEdgesInRectangle(box geom.Box) {
	var doomed []*Edge
	g.tree.EnumInBox(box, func(e *Edge) bool {
		if box.Contains(e.A, g.tol) && box.Contains(e.B, g.tol) {
			doomed = append(doomed, e)
		}
		return true
	})
	for _, e := range doomed {
		g.RemoveEdge(e)
	}
}

// FindNearestVertex returns the closest vertex within radius, or nil.
func (g *Graph) FindNearestVertex(x, y, radius float64) *pointindex.Vertex {
	return g.points.FindNearest(x, y, radius)
}

// FindNearestPointOnEdge projects (x, y) onto nearby edges and returns the
// closest projected point and its edge. ok is false when no edge lies within
// radius.
func (g *Graph) FindNearestPointOnEdge(x, y, radius float64) (pt geom.Point, edge *Edge, ok bool) {
	box := geom.Box{MinX: x - radius, MinY: y - radius, MaxX: x + radius, MaxY: y + radius}
	p := geom.Point{X: x, Y: y}
	bestDistSq := radius * radius
	g.tree.EnumInBox(box, func(e *Edge) bool {
		t, _, _ := geom.PointOnLine(p, e.A, e.B, false, g.tol)
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		proj := geom.Point{X: e.A.X + t*e.DX, Y: e.A.Y + t*e.DY}
		if d := proj.DistSq(p); d <= bestDistSq {
			bestDistSq = d
			pt = proj
			edge = e
			ok = true
		}
		return true
	})
	return pt, edge, ok
}

// PointInPolygon ray-casts against all live edges via the edge tree. Only
// meaningful when the inserted edges form closed boundaries.
func (g *Graph) PointInPolygon(x, y float64) bool {
	return g.tree.PointInPolygon(x, y)
}

// CleanupFlatEdges iteratively merges away degree-2 vertices whose two
// incident edges are nearly collinear, or whose neighbors form a near-zero
// height triangle. Upstream curve flattening produces long runs of
// micro-segments; collapsing them keeps the trace and the triangulator input
// small. Repeats to a fixed point.
func (g *Graph) CleanupFlatEdges() {
	for changed := true; changed; {
		changed = false
		g.points.EnumVertices(func(v *pointindex.Vertex) bool {
			if len(v.Edges) != 2 {
				return true
			}
			e1 := g.edges[v.Edges[0]]
			e2 := g.edges[v.Edges[1]]
			va := g.points.Vertex(e1.Other(v.ID))
			vb := g.points.Vertex(e2.Other(v.ID))
			if va == nil || vb == nil || va == vb {
				return true
			}
			if !g.flatAt(v, va, vb) {
				return true
			}
			g.RemoveEdge(e1)
			g.RemoveEdge(e2)
			g.points.Remove(v)
			g.insertEdge(va, vb)
			changed = true
			return true
		})
	}
}

// flatAt reports whether the path a-v-b is straight enough to merge: the two
// edges point in nearly opposite directions from v, or the triangle avb has
// height below the snapping tolerance.
func (g *Graph) flatAt(v, va, vb *pointindex.Vertex) bool {
	ax := va.X - v.X
	ay := va.Y - v.Y
	bx := vb.X - v.X
	by := vb.Y - v.Y
	lenA := math.Hypot(ax, ay)
	lenB := math.Hypot(bx, by)
	if lenA == 0 || lenB == 0 {
		return true
	}
	cross := ax*by - ay*bx
	dot := ax*bx + ay*by
	if dot < 0 && math.Abs(cross) <= flatSinTol*lenA*lenB {
		return true
	}
	base := va.Point().Dist(vb.Point())
	if base > 0 && math.Abs(cross)/base <= g.tol {
		return true
	}
	return false
}
