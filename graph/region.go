package graph

import (
	"github.com/pellucid/planar/geom"
)

// Contour is one boundary loop (or open chain) of a region, indexing into the
// region's point array. Closed contours do not repeat the first point at the
// end.
type Contour struct {
	Indices []int
	// Area is the absolute enclosed area; zero for open chains.
	Area float64
	// Hole marks odd nesting depth.
	Hole   bool
	Depth  int
	Closed bool
}

// Region is a traced, possibly-holed contour set ready for triangulation. Its
// point array is deduplicated; VertexIDs maps each point back to the graph
// vertex it came from, for callers that need to correlate output triangles
// with source geometry.
type Region struct {
	Points    []geom.Point
	VertexIDs []int
	Contours  []Contour

	// Indices is the triangle index buffer filled in by Triangulate, three
	// region-local point indices per triangle, wound counter-clockwise.
	Indices []int
	// TriangulationFailed is set when triangulation could not produce output
	// for this region, including after the jitter retry. Callers must render
	// nothing for a failed region; Indices is empty, never partial.
	TriangulationFailed bool

	tol float64
}

// newRegion assembles a region from traced contours, deduplicating points in
// first-use order.
func (g *Graph) newRegion(contours []tracedContour, idx []int, depth []int, closed bool) *Region {
	r := &Region{tol: g.tol}
	local := make(map[int]int)
	indexOf := func(vid int) int {
		if li, ok := local[vid]; ok {
			return li
		}
		li := len(r.Points)
		local[vid] = li
		r.Points = append(r.Points, g.points.Vertex(vid).Point())
		r.VertexIDs = append(r.VertexIDs, vid)
		return li
	}
	for _, ci := range idx {
		tc := contours[ci]
		c := Contour{
			Area:   tc.area,
			Depth:  depth[ci],
			Hole:   depth[ci]%2 == 1,
			Closed: closed,
		}
		for _, vid := range tc.verts {
			c.Indices = append(c.Indices, indexOf(vid))
		}
		r.Contours = append(r.Contours, c)
	}
	return r
}

func (g *Graph) buildOpenRegions(chains [][]int) []*Region {
	var out []*Region
	for _, chain := range chains {
		r := &Region{tol: g.tol}
		c := Contour{Closed: false}
		local := make(map[int]int)
		for _, vid := range chain {
			li, ok := local[vid]
			if !ok {
				li = len(r.Points)
				local[vid] = li
				r.Points = append(r.Points, g.points.Vertex(vid).Point())
				r.VertexIDs = append(r.VertexIDs, vid)
			}
			c.Indices = append(c.Indices, li)
		}
		r.Contours = append(r.Contours, c)
		out = append(out, r)
	}
	return out
}

// Area returns the absolute area of the region's outer contour.
func (r *Region) Area() float64 {
	var max float64
	for _, c := range r.Contours {
		if c.Depth == 0 && c.Area > max {
			max = c.Area
		}
	}
	return max
}

// AreaNet returns the net filled area: outer contours minus holes plus
// islands, i.e. every even depth adds and every odd depth subtracts.
func (r *Region) AreaNet() float64 {
	var sum float64
	for _, c := range r.Contours {
		if !c.Closed {
			continue
		}
		if c.Depth%2 == 0 {
			sum += c.Area
		} else {
			sum -= c.Area
		}
	}
	return sum
}

// Perimeter returns the total boundary length over all contours.
func (r *Region) Perimeter() float64 {
	var sum float64
	for _, c := range r.Contours {
		pts := make([]geom.Point, len(c.Indices))
		for i, pi := range c.Indices {
			pts[i] = r.Points[pi]
		}
		sum += geom.Perimeter(pts, c.Closed)
	}
	return sum
}

// Box returns the bounding box of the region's points.
func (r *Region) Box() geom.Box {
	box := geom.EmptyBox()
	for _, p := range r.Points {
		box.Extend(p)
	}
	return box
}

// TriangleCount returns the number of triangles produced by Triangulate.
func (r *Region) TriangleCount() int {
	return len(r.Indices) / 3
}
