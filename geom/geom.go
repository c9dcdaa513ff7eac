// Package geom provides the 2D primitives and tolerance-based predicates that
// the arrangement and triangulation layers are built on. Every predicate takes
// an explicit precision argument rather than relying on a hardcoded epsilon,
// because the correct tolerance depends on the coordinate magnitude of the
// caller's unit system.
package geom

import "math"

// Tolerance is the package default snapping distance. It is only a convenience
// for constructors and tests; the predicates themselves always take precision
// explicitly.
const Tolerance = 1e-6

// To compensate for imprecision in floats, equality is tolerance based. If we
// don't account for this, near-duplicate intersection points produced by
// upstream curve flattening crack the graph apart.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}

type Point struct {
	X, Y float64
}

// Below orders points by increasing y, with x as the tiebreak. This is the
// lexicographic convention used to canonicalize edges, so that an edge's
// orientation never depends on caller insertion order.
func (p Point) Below(o Point) bool {
	if p.Y == o.Y {
		return p.X < o.X
	}
	return p.Y < o.Y
}

func (p Point) DistSq(o Point) float64 {
	dx := o.X - p.X
	dy := o.Y - p.Y
	return dx*dx + dy*dy
}

func (p Point) Dist(o Point) float64 {
	return math.Sqrt(p.DistSq(o))
}

// Box is an axis-aligned rectangle.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBox is ready to be grown with Extend.
func EmptyBox() Box {
	return Box{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

func (b *Box) Extend(p Point) {
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
}

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

func (b Box) Center() Point {
	return Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Contains reports whether the point lies inside the box grown by pad on every
// side. The padding absorbs the snapping tolerance, so that a point sitting
// exactly on a node boundary is found from either side.
func (b Box) Contains(p Point, pad float64) bool {
	return p.X >= b.MinX-pad && p.X <= b.MaxX+pad &&
		p.Y >= b.MinY-pad && p.Y <= b.MaxY+pad
}

// Intersects reports whether the two boxes overlap, with the receiver grown by
// pad on every side.
func (b Box) Intersects(o Box, pad float64) bool {
	return o.MinX <= b.MaxX+pad && o.MaxX >= b.MinX-pad &&
		o.MinY <= b.MaxY+pad && o.MaxY >= b.MinY-pad
}

// SegmentBox is the bounding box of the segment from a to b.
func SegmentBox(a, b Point) Box {
	box := EmptyBox()
	box.Extend(a)
	box.Extend(b)
	return box
}

// Cross is the z component of (b-a) x (c-a). Positive when the points turn
// counterclockwise.
func Cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// TriangleArea is the signed area of the triangle abc, positive for
// counterclockwise winding.
func TriangleArea(a, b, c Point) float64 {
	return Cross(a, b, c) / 2
}

// ShoelaceArea is the signed area of the polygon described by points, positive
// for counterclockwise winding. The point list must not repeat the first point
// at the end.
func ShoelaceArea(points []Point) float64 {
	var sum float64
	for i, p := range points {
		q := points[(i+1)%len(points)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

func Perimeter(points []Point, closed bool) float64 {
	var sum float64
	for i := 0; i+1 < len(points); i++ {
		sum += points[i].Dist(points[i+1])
	}
	if closed && len(points) > 2 {
		sum += points[len(points)-1].Dist(points[0])
	}
	return sum
}

func Centroid(a, b, c Point) Point {
	return Point{(a.X + b.X + c.X) / 3, (a.Y + b.Y + c.Y) / 3}
}

// PolarAngle folds the direction (dx, dy) into [0, π). Opposite directions map
// to the same angle, which is exactly what an undirected edge wants.
func PolarAngle(dx, dy float64) float64 {
	a := math.Atan2(dy, dx)
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a -= math.Pi
	}
	return a
}
