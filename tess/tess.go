// Package tess is the boundary to the constrained triangulator. Callers hand
// it a deduplicated point array and one or more contour index arrays, each
// tagged open or closed, and get back a flat triangle index list.
//
// The original consumer of this code recognized the triangulator's one known
// degenerate failure by matching the literal message "Collinear not
// supported!". Here the boundary classifies failures into typed kinds instead,
// so the retry policy upstream never depends on message text. The full space
// of triangulator failure modes beyond collinearity is not characterized;
// everything unrecognized is FailureOther.
package tess

import (
	"github.com/pkg/errors"
	"github.com/rclancey/earcut"

	"github.com/pellucid/planar/geom"
)

// Contour indexes into the caller's point array. Open contours (polylines)
// cannot bound a filled area and contribute no triangles.
type Contour struct {
	Indices []int
	Closed  bool
}

type FailureKind int

const (
	// FailureNone means no failure.
	FailureNone FailureKind = iota
	// FailureCollinear means the input was rejected because every point lies
	// on a single line. This is the one failure callers may retry with
	// jittered input.
	FailureCollinear
	// FailureOther covers every other triangulation failure. Not retryable.
	FailureOther
)

// ErrCollinear is returned when all submitted points are exactly collinear.
var ErrCollinear = errors.New("tess: collinear input not supported")

// FailureKindOf classifies an error returned by Triangulate.
func FailureKindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrCollinear):
		return FailureCollinear
	default:
		return FailureOther
	}
}

// Triangulate converts the closed contours into triangles over the caller's
// point array. contours[0] must be the outer boundary; the remaining closed
// contours are treated as holes. The result is a flat list of point indices,
// three per triangle. Triangle winding is whatever the triangulator produced;
// callers needing consistent orientation must rewind.
func Triangulate(points []geom.Point, contours []Contour) ([]int, error) {
	closed := make([]Contour, 0, len(contours))
	for _, c := range contours {
		if c.Closed && len(c.Indices) >= 3 {
			closed = append(closed, c)
		}
	}
	if len(closed) == 0 {
		return nil, nil
	}

	// The triangulator cannot express a degenerate hull. Detect exact
	// collinearity up front so the caller gets the retryable failure kind.
	if allCollinear(points, closed) {
		return nil, ErrCollinear
	}

	// Flatten to the triangulator's wire format: [x0 y0 x1 y1 ...], with each
	// hole marked by the index of its first vertex.
	var coords []float64
	var holeStarts []int
	// local maps flat-vertex order back to caller point indices.
	var local []int
	for ci, c := range closed {
		if ci > 0 {
			holeStarts = append(holeStarts, len(local))
		}
		for _, pi := range c.Indices {
			p := points[pi]
			coords = append(coords, p.X, p.Y)
			local = append(local, pi)
		}
	}

	raw, err := earcut.Earcut(coords, holeStarts, 2)
	if err != nil {
		return nil, errors.Wrap(err, "tess: triangulation failed")
	}
	if len(raw)%3 != 0 {
		return nil, errors.Errorf("tess: triangulator returned %d indices, not divisible by 3", len(raw))
	}
	if len(raw) == 0 {
		return nil, errors.New("tess: triangulator returned no triangles")
	}

	out := make([]int, len(raw))
	for i, ri := range raw {
		if ri < 0 || ri >= len(local) {
			return nil, errors.Errorf("tess: triangulator returned out-of-range index %d", ri)
		}
		out[i] = local[ri]
	}
	return out, nil
}

// allCollinear reports whether every point referenced by the contours lies
// exactly on one line. The test is exact, not tolerance based: it mirrors the
// only degenerate case the triangulator is known to reject, and the caller's
// jitter retry clears it.
func allCollinear(points []geom.Point, contours []Contour) bool {
	var refs []int
	for _, c := range contours {
		refs = append(refs, c.Indices...)
	}
	if len(refs) < 3 {
		return true
	}
	a := points[refs[0]]
	// Find a second point distinct from the first to define the line.
	var b geom.Point
	found := false
	for _, pi := range refs[1:] {
		if points[pi] != a {
			b = points[pi]
			found = true
			break
		}
	}
	if !found {
		return true
	}
	for _, pi := range refs {
		if geom.Cross(a, b, points[pi]) != 0 {
			return false
		}
	}
	return true
}
