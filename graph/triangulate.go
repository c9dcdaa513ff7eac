package graph

import (
	"math"
	"math/rand"

	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/interval"
	"github.com/pellucid/planar/tess"
)

// TriangulateOptions tunes the triangulation façade. The zero value is a
// usable default.
type TriangulateOptions struct {
	// BruteForceThreshold is the point count below which triangle filtering
	// ray-casts over all boundary edges directly instead of building an
	// interval tree. Zero means DefaultBruteForceThreshold.
	BruteForceThreshold int
}

const DefaultBruteForceThreshold = 32

// jitterScale relates the retry perturbation to the snapping tolerance. The
// jitter must be far smaller than the tolerance so it can never merge or
// separate snapped points; it only has to break exact collinearity.
const jitterScale = 1e-3

// Triangulate fills the region, storing the triangle index buffer on it and
// returning it. Coordinates are re-centered and rescaled to a roughly unit
// range first, which measurably improves the triangulator's numerical
// success on large-magnitude inputs. A collinearity failure is retried once
// with jittered points; any other failure, or a failed retry, marks the
// region failed with empty output. Triangulation never returns partial
// results and never propagates an error: a failed region renders as nothing.
//
// Every triangle the triangulator emits is filtered by testing its centroid
// against the region's boundary, because the triangulator covers the full
// hull bounded by the contours and can produce slivers outside the intended
// area. Accepted triangles are rewound counter-clockwise.
func (r *Region) Triangulate(opts *TriangulateOptions) []int {
	r.Indices = nil
	r.TriangulationFailed = false

	if opts == nil {
		opts = &TriangulateOptions{}
	}
	threshold := opts.BruteForceThreshold
	if threshold == 0 {
		threshold = DefaultBruteForceThreshold
	}

	contours := r.fillContours()
	if len(contours) == 0 || len(r.Points) < 3 {
		return nil
	}

	work, scale := normalizePoints(r.Points)
	indices, err := r.runTriangulator(work, contours)
	if tess.FailureKindOf(err) == tess.FailureCollinear {
		work = jitterPoints(work, r.tol*scale*jitterScale)
		indices, err = r.runTriangulator(work, contours)
	}
	if err != nil {
		r.TriangulationFailed = true
		return nil
	}

	r.Indices = r.filterTriangles(indices, work, contours, threshold)
	return r.Indices
}

// fillContours returns the contours participating in the fill as tess
// contours. Open chains with at least three points are closed implicitly,
// the same way a canvas fill closes an open subpath.
func (r *Region) fillContours() []tess.Contour {
	var out []tess.Contour
	for _, c := range r.Contours {
		if len(c.Indices) < 3 {
			continue
		}
		out = append(out, tess.Contour{Indices: c.Indices, Closed: true})
	}
	return out
}

// contourDepth looks up the nesting depth for the i-th fill contour.
func (r *Region) contourDepths() []int {
	var out []int
	for _, c := range r.Contours {
		if len(c.Indices) < 3 {
			continue
		}
		out = append(out, c.Depth)
	}
	return out
}

// runTriangulator invokes the external triangulator once per even-depth
// contour, passing that contour as the outer boundary and its direct
// children as holes. Islands at depth two and deeper get their own calls, so
// the whole region fills without the triangulator ever needing to know about
// multi-level nesting.
func (r *Region) runTriangulator(points []geom.Point, contours []tess.Contour) ([]int, error) {
	depths := r.contourDepths()
	var indices []int
	for i, c := range contours {
		if depths[i]%2 != 0 {
			continue
		}
		group := []tess.Contour{c}
		for j, h := range contours {
			if depths[j] == depths[i]+1 && containsContour(points, c, h) {
				group = append(group, h)
			}
		}
		out, err := tess.Triangulate(points, group)
		if err != nil {
			return nil, err
		}
		indices = append(indices, out...)
	}
	return indices, nil
}

// containsContour tests whether hole's first point lies inside outer. Direct
// parenthood was already established during nesting; this only has to pick
// the right parent among same-depth candidates.
func containsContour(points []geom.Point, outer, hole tess.Contour) bool {
	segs := make([][2]geom.Point, len(outer.Indices))
	for i, pi := range outer.Indices {
		next := outer.Indices[(i+1)%len(outer.Indices)]
		segs[i] = [2]geom.Point{points[pi], points[next]}
	}
	return geom.RayCrossings(points[hole.Indices[0]], segs)%2 == 1
}

// filterTriangles keeps the triangles whose centroid lies inside the region
// under the even-odd rule over all fill contours, rewound counter-clockwise.
// The test runs in the same (normalized, possibly jittered) space the
// triangulator saw.
func (r *Region) filterTriangles(indices []int, points []geom.Point, contours []tess.Contour, threshold int) []int {
	inside := r.insideFunc(points, contours, threshold)
	out := make([]int, 0, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa, pb, pc := points[a], points[b], points[c]
		centroid := geom.Centroid(pa, pb, pc)
		if !inside(centroid) {
			continue
		}
		if geom.TriangleArea(pa, pb, pc) < 0 {
			b, c = c, b
		}
		out = append(out, a, b, c)
	}
	return out
}

func (r *Region) insideFunc(points []geom.Point, contours []tess.Contour, threshold int) func(geom.Point) bool {
	var edges [][2]int
	for _, c := range contours {
		for i, pi := range c.Indices {
			edges = append(edges, [2]int{pi, c.Indices[(i+1)%len(c.Indices)]})
		}
	}

	if len(points) < threshold {
		segs := make([][2]geom.Point, len(edges))
		for i, e := range edges {
			segs[i] = [2]geom.Point{points[e[0]], points[e[1]]}
		}
		return func(p geom.Point) bool {
			return geom.RayCrossings(p, segs)%2 == 1
		}
	}

	box := geom.EmptyBox()
	for _, p := range points {
		box.Extend(p)
	}
	tree := interval.New(points, edges, box)
	tree.Build()
	return func(p geom.Point) bool {
		return tree.PointInPolygon(p.X, p.Y)
	}
}

// normalizePoints re-centers the points on the origin and scales them to a
// roughly unit range, returning the transformed copy and the applied scale.
func normalizePoints(points []geom.Point) ([]geom.Point, float64) {
	box := geom.EmptyBox()
	for _, p := range points {
		box.Extend(p)
	}
	center := box.Center()
	extent := math.Max(box.Width(), box.Height())
	scale := 1.0
	if extent > 0 {
		scale = 1 / extent
	}
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[i] = geom.Point{
			X: (p.X - center.X) * scale,
			Y: (p.Y - center.Y) * scale,
		}
	}
	return out, scale
}

// jitterPoints perturbs every coordinate by up to ±magnitude. The source is
// seeded, so a given region always jitters the same way; reproducible output
// is easier to debug than an occasionally-different mesh.
func jitterPoints(points []geom.Point, magnitude float64) []geom.Point {
	rng := rand.New(rand.NewSource(int64(len(points))))
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[i] = geom.Point{
			X: p.X + (rng.Float64()-0.5)*2*magnitude,
			Y: p.Y + (rng.Float64()-0.5)*2*magnitude,
		}
	}
	return out
}
