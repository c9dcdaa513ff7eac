// Package quadtree implements a generic spatial index. The tree knows nothing
// about its items beyond what the Handler tells it, so the same structure
// indexes snapped vertices, graph edges, or anything else with a bounding box.
package quadtree

import (
	"sort"

	"github.com/pellucid/planar/geom"
)

// Handler supplies the geometry of the items stored in a tree.
type Handler[T comparable] interface {
	// Bounds returns the item's axis-aligned bounding box.
	Bounds(item T) geom.Box
	// RepresentativePoint returns the point used when choosing subdivision
	// medians. For a point item it's the point itself; for an edge, typically
	// its midpoint.
	RepresentativePoint(item T) geom.Point
	// IntersectsBox reports whether the item's actual shape overlaps the box.
	// This is allowed to be conservative (bounding-box based), at the cost of
	// some false positives during enumeration.
	IntersectsBox(item T, box geom.Box) bool
}

// EdgeHandler is implemented by handlers whose items are line segments. It is
// required for PointInPolygon, which must ray-cast against the actual
// segments.
type EdgeHandler[T comparable] interface {
	Handler[T]
	Endpoints(item T) (geom.Point, geom.Point)
}

const (
	// nodeCapacity is how many items a node buckets before subdividing.
	nodeCapacity = 16
	// maxDepth caps the recursion. The degenerate-split abort already prevents
	// infinite recursion, but a hard cap keeps pathological inputs from
	// building absurdly deep trees.
	maxDepth = 32
)

type QuadTree[T comparable] struct {
	handler Handler[T]
	padding float64
	root    *node[T]
}

type node[T comparable] struct {
	box      geom.Box
	items    []T
	children *[4]*node[T]
	depth    int
}

// New creates a tree over the given bounds. padding is applied to every
// containment test; it should be at least the snapping tolerance so that items
// sitting exactly on a node boundary are never missed.
func New[T comparable](box geom.Box, padding float64, handler Handler[T]) *QuadTree[T] {
	return &QuadTree[T]{
		handler: handler,
		padding: padding,
		root:    &node[T]{box: box},
	}
}

func (t *QuadTree[T]) Add(item T) {
	t.root.add(t, item)
}

// Delete removes the item if present. Removal is lazy: nodes are never merged
// back together.
func (t *QuadTree[T]) Delete(item T) bool {
	return t.root.delete(t, item)
}

// EnumInBox visits every item whose shape intersects the padded box. Return
// false from visit to stop early; EnumInBox reports whether the enumeration
// ran to completion.
func (t *QuadTree[T]) EnumInBox(box geom.Box, visit func(item T) bool) bool {
	return t.root.enumInBox(t, box, visit)
}

// EnumNearItems visits items near the given item, using its bounding box
// grown by dist on every side.
func (t *QuadTree[T]) EnumNearItems(item T, dist float64, visit func(item T) bool) bool {
	box := t.handler.Bounds(item)
	box.MinX -= dist
	box.MinY -= dist
	box.MaxX += dist
	box.MaxY += dist
	return t.EnumInBox(box, visit)
}

// PointInPolygon treats the stored items as the boundary edges of a polygon
// and ray-casts from (x, y) toward +x, enumerating only the horizontal band
// containing the query point. The handler must implement EdgeHandler.
func (t *QuadTree[T]) PointInPolygon(x, y float64) bool {
	eh, ok := t.handler.(EdgeHandler[T])
	if !ok {
		panic("quadtree: PointInPolygon requires an EdgeHandler")
	}
	band := geom.Box{
		MinX: x, MinY: y,
		MaxX: t.root.box.MaxX + t.padding, MaxY: y,
	}
	crossings := 0
	p := geom.Point{X: x, Y: y}
	t.EnumInBox(band, func(item T) bool {
		a, b := eh.Endpoints(item)
		if geom.RayCrossings(p, [][2]geom.Point{{a, b}}) == 1 {
			crossings++
		}
		return true
	})
	return crossings%2 == 1
}

func (n *node[T]) add(t *QuadTree[T], item T) {
	if n.children != nil {
		if child := n.childFor(t, item); child != nil {
			child.add(t, item)
			return
		}
		// The item straddles more than one child, so it stays here.
		n.items = append(n.items, item)
		return
	}

	n.items = append(n.items, item)
	if len(n.items) > nodeCapacity && n.depth < maxDepth {
		n.subdivide(t)
	}
}

// childFor returns the single child wholly containing the item, or nil if the
// item overlaps several children.
func (n *node[T]) childFor(t *QuadTree[T], item T) *node[T] {
	var found *node[T]
	for _, child := range n.children {
		if t.handler.IntersectsBox(item, padBox(child.box, t.padding)) {
			if found != nil {
				return nil
			}
			found = child
		}
	}
	return found
}

// subdivide splits the node at the median of its items' representative
// points. A median split adapts to clustered data where a midpoint split
// would push everything into one quadrant. If the computed split lands on or
// outside the node bounds the subdivision is abandoned and the node is left
// over-full, which costs performance but never correctness.
func (n *node[T]) subdivide(t *QuadTree[T]) {
	xs := make([]float64, len(n.items))
	ys := make([]float64, len(n.items))
	for i, item := range n.items {
		p := t.handler.RepresentativePoint(item)
		xs[i] = p.X
		ys[i] = p.Y
	}
	sort.Float64s(xs)
	sort.Float64s(ys)
	sx := xs[len(xs)/2]
	sy := ys[len(ys)/2]

	if sx <= n.box.MinX || sx >= n.box.MaxX || sy <= n.box.MinY || sy >= n.box.MaxY {
		return
	}

	n.children = &[4]*node[T]{
		{box: geom.Box{MinX: n.box.MinX, MinY: n.box.MinY, MaxX: sx, MaxY: sy}, depth: n.depth + 1},
		{box: geom.Box{MinX: sx, MinY: n.box.MinY, MaxX: n.box.MaxX, MaxY: sy}, depth: n.depth + 1},
		{box: geom.Box{MinX: n.box.MinX, MinY: sy, MaxX: sx, MaxY: n.box.MaxY}, depth: n.depth + 1},
		{box: geom.Box{MinX: sx, MinY: sy, MaxX: n.box.MaxX, MaxY: n.box.MaxY}, depth: n.depth + 1},
	}

	// Reclassify the bucket. Items overlapping several children stay here.
	items := n.items
	n.items = nil
	for _, item := range items {
		n.add(t, item)
	}
}

func (n *node[T]) delete(t *QuadTree[T], item T) bool {
	for i, it := range n.items {
		if it == item {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	if n.children == nil {
		return false
	}
	for _, child := range n.children {
		if t.handler.IntersectsBox(item, padBox(child.box, t.padding)) {
			if child.delete(t, item) {
				return true
			}
		}
	}
	return false
}

func (n *node[T]) enumInBox(t *QuadTree[T], box geom.Box, visit func(item T) bool) bool {
	if !n.box.Intersects(box, t.padding) {
		return true
	}
	for _, item := range n.items {
		if t.handler.IntersectsBox(item, padBox(box, t.padding)) {
			if !visit(item) {
				return false
			}
		}
	}
	if n.children != nil {
		for _, child := range n.children {
			if !child.enumInBox(t, box, visit) {
				return false
			}
		}
	}
	return true
}

func padBox(b geom.Box, pad float64) geom.Box {
	return geom.Box{MinX: b.MinX - pad, MinY: b.MinY - pad, MaxX: b.MaxX + pad, MaxY: b.MaxY + pad}
}
