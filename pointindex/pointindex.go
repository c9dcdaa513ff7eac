// Package pointindex provides tolerance-based point snapping. Floating-point
// intersection points coming from upstream producers rarely coincide exactly;
// the index merges near-duplicates into a single Vertex so the planar graph
// never cracks along almost-shared endpoints.
package pointindex

import (
	"math"

	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/quadtree"
)

// IDSet carries opaque source identifiers attached to a vertex, typically the
// database ids of the model objects a point came from.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Merge adds every id from other into the set, allocating if needed.
func (s IDSet) Merge(other IDSet) IDSet {
	if other == nil {
		return s
	}
	if s == nil {
		s = make(IDSet, len(other))
	}
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}

// Intersect returns the ids present in both sets. Used when a crossing vertex
// is created on an existing edge: the new vertex belongs only to the sources
// shared by both of the edge's endpoints.
func (s IDSet) Intersect(other IDSet) IDSet {
	if s == nil || other == nil {
		return nil
	}
	var out IDSet
	for id := range s {
		if _, ok := other[id]; ok {
			if out == nil {
				out = make(IDSet)
			}
			out[id] = struct{}{}
		}
	}
	return out
}

// Vertex is a snapped 2D point. Vertices are owned by the Index; edges and
// spatial-index nodes refer to them by their stable id. Ids stay valid until
// Compact is called, after which callers must remap through the returned
// table.
type Vertex struct {
	ID   int
	X, Y float64
	// Edges lists incident edge ids. It is managed by the planar graph, not by
	// the index.
	Edges []int
	IDs   IDSet
	// Changed is set whenever the incident edge list mutates, invalidating any
	// derived data cached off it (such as the angular ordering used during
	// contour tracing).
	Changed bool

	dead bool
}

func (v *Vertex) Point() geom.Point {
	return geom.Point{X: v.X, Y: v.Y}
}

type cellKey struct {
	cx, cy int32
}

// Index is the snapping index. Vertices are bucketed by grid cell with cell
// size equal to the tolerance, so a 3x3 neighborhood search is guaranteed to
// see every vertex within tolerance of a query point.
type Index struct {
	box       geom.Box
	tolerance float64
	scale     float64

	verts []*Vertex
	cells map[cellKey][]*Vertex
	tree  *quadtree.QuadTree[*Vertex]
}

type vertexHandler struct{}

func (vertexHandler) Bounds(v *Vertex) geom.Box {
	return geom.Box{MinX: v.X, MinY: v.Y, MaxX: v.X, MaxY: v.Y}
}

func (vertexHandler) RepresentativePoint(v *Vertex) geom.Point {
	return v.Point()
}

func (vertexHandler) IntersectsBox(v *Vertex, box geom.Box) bool {
	return box.Contains(v.Point(), 0)
}

// New creates an index over the given bounds. When withTree is set, vertices
// are mirrored into a quadtree, enabling EnumInBox and nearest-vertex queries.
func New(box geom.Box, tolerance float64, withTree bool) *Index {
	idx := &Index{
		box:       box,
		tolerance: tolerance,
		scale:     1 / tolerance,
		cells:     make(map[cellKey][]*Vertex),
	}
	if withTree {
		idx.tree = quadtree.New[*Vertex](box, tolerance, vertexHandler{})
	}
	return idx
}

func (idx *Index) Tolerance() float64 { return idx.tolerance }

func (idx *Index) cellOf(x, y float64) cellKey {
	return cellKey{
		cx: int32(math.Floor((x - idx.box.MinX) * idx.scale)),
		cy: int32(math.Floor((y - idx.box.MinY) * idx.scale)),
	}
}

// FindOrAddPoint returns the existing vertex nearest to (x, y) within the
// snapping tolerance, merging ids into it, or creates a new vertex if none is
// close enough.
func (idx *Index) FindOrAddPoint(x, y float64, ids IDSet) *Vertex {
	if v := idx.FindPoint(x, y); v != nil {
		v.IDs = v.IDs.Merge(ids)
		return v
	}

	v := &Vertex{
		ID: len(idx.verts),
		X:  x,
		Y:  y,
	}
	v.IDs = v.IDs.Merge(ids)
	idx.verts = append(idx.verts, v)
	key := idx.cellOf(x, y)
	idx.cells[key] = append(idx.cells[key], v)
	if idx.tree != nil {
		idx.tree.Add(v)
	}
	return v
}

// FindPoint returns the nearest live vertex within tolerance of (x, y), or
// nil. Only the 3x3 cell neighborhood needs searching because cells are
// tolerance sized.
func (idx *Index) FindPoint(x, y float64) *Vertex {
	center := idx.cellOf(x, y)
	tolSq := idx.tolerance * idx.tolerance
	var best *Vertex
	bestDistSq := tolSq
	p := geom.Point{X: x, Y: y}
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for _, v := range idx.cells[cellKey{center.cx + dx, center.cy + dy}] {
				if v.dead {
					continue
				}
				if d := v.Point().DistSq(p); d < bestDistSq {
					best = v
					bestDistSq = d
				}
			}
		}
	}
	return best
}

// Vertex returns the vertex with the given id, or nil if it has been removed.
func (idx *Index) Vertex(id int) *Vertex {
	if id < 0 || id >= len(idx.verts) {
		return nil
	}
	v := idx.verts[id]
	if v == nil || v.dead {
		return nil
	}
	return v
}

// Count returns the number of vertex slots including tombstones.
func (idx *Index) Count() int { return len(idx.verts) }

// Remove tombstones the vertex. The slot survives until Compact so that ids
// held by callers stay valid in the interim.
func (idx *Index) Remove(v *Vertex) {
	if v.dead {
		return
	}
	v.dead = true
	key := idx.cellOf(v.X, v.Y)
	bucket := idx.cells[key]
	for i, bv := range bucket {
		if bv == v {
			idx.cells[key] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if idx.tree != nil {
		idx.tree.Delete(v)
	}
}

// Compact drops tombstoned vertices and reassigns contiguous ids. It returns
// the previous id of each surviving vertex, indexed by new id, so callers can
// remap any references they hold. All old ids are invalid afterward.
func (idx *Index) Compact() []int {
	prev := make([]int, 0, len(idx.verts))
	live := idx.verts[:0]
	for _, v := range idx.verts {
		if v == nil || v.dead {
			continue
		}
		prev = append(prev, v.ID)
		v.ID = len(live)
		live = append(live, v)
	}
	idx.verts = live
	return prev
}

// EnumVertices visits every live vertex in id order.
func (idx *Index) EnumVertices(visit func(v *Vertex) bool) {
	for _, v := range idx.verts {
		if v == nil || v.dead {
			continue
		}
		if !visit(v) {
			return
		}
	}
}

// EnumInBox visits live vertices inside the box. Requires the index to have
// been created withTree.
func (idx *Index) EnumInBox(box geom.Box, visit func(v *Vertex) bool) {
	if idx.tree == nil {
		panic("pointindex: EnumInBox requires withTree")
	}
	idx.tree.EnumInBox(box, func(v *Vertex) bool {
		if v.dead {
			return true
		}
		return visit(v)
	})
}

// FindNearest returns the nearest live vertex within radius of (x, y), or
// nil. Requires the index to have been created withTree.
func (idx *Index) FindNearest(x, y, radius float64) *Vertex {
	if idx.tree == nil {
		panic("pointindex: FindNearest requires withTree")
	}
	box := geom.Box{MinX: x - radius, MinY: y - radius, MaxX: x + radius, MaxY: y + radius}
	p := geom.Point{X: x, Y: y}
	var best *Vertex
	bestDistSq := radius * radius
	idx.tree.EnumInBox(box, func(v *Vertex) bool {
		if v.dead {
			return true
		}
		if d := v.Point().DistSq(p); d <= bestDistSq {
			best = v
			bestDistSq = d
		}
		return true
	})
	return best
}
