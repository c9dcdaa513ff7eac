package geom

import "math"

type IntersectionKind int

const (
	// NoIntersection means the segments neither cross nor touch within the
	// given precision.
	NoIntersection IntersectionKind = iota
	// PointIntersection means the segments meet at a single point.
	PointIntersection
	// Overlap means the segments are nearly collinear and share a sub-range of
	// more than one point.
	Overlap
)

// Intersection describes how two segments meet. For PointIntersection, Points
// holds the single crossing point. For Overlap, it holds the two endpoints of
// the shared sub-range. ParamsA and ParamsB hold the matching parameters of
// each point along segment A and segment B respectively, in [0, 1].
type Intersection struct {
	Kind    IntersectionKind
	Points  []Point
	ParamsA []float64
	ParamsB []float64
}

// SegmentsIntersect classifies the intersection of segments a1-a2 and b1-b2.
// precision is a distance: endpoints closer than precision to the other
// segment's line count as touching. Nearly-parallel segments whose lines lie
// within precision of each other are classified as overlapping, with the
// shared sub-range reported on both inputs.
func SegmentsIntersect(a1, a2, b1, b2 Point, precision float64) Intersection {
	dax := a2.X - a1.X
	day := a2.Y - a1.Y
	dbx := b2.X - b1.X
	dby := b2.Y - b1.Y

	denom := dax*dby - day*dbx
	lenA := math.Hypot(dax, day)
	lenB := math.Hypot(dbx, dby)
	if lenA == 0 || lenB == 0 {
		return Intersection{Kind: NoIntersection}
	}

	// The denominator is |a| * |b| * sin(angle). Comparing it against the
	// precision scaled by the segment lengths asks "would the crossing point
	// move by more than precision if either endpoint moved by precision",
	// which is the right near-parallel test at any coordinate scale.
	if math.Abs(denom) <= precision*(lenA+lenB) {
		return collinearOverlap(a1, a2, b1, b2, precision)
	}

	ta := ((b1.X-a1.X)*dby - (b1.Y-a1.Y)*dbx) / denom
	tb := ((b1.X-a1.X)*day - (b1.Y-a1.Y)*dax) / denom

	// Allow the parameters to run past the segment ends by precision, so that
	// endpoint touches within tolerance are still reported.
	slackA := precision / lenA
	slackB := precision / lenB
	if ta < -slackA || ta > 1+slackA || tb < -slackB || tb > 1+slackB {
		return Intersection{Kind: NoIntersection}
	}

	p := Point{a1.X + ta*dax, a1.Y + ta*day}
	return Intersection{
		Kind:    PointIntersection,
		Points:  []Point{p},
		ParamsA: []float64{clamp01(ta)},
		ParamsB: []float64{clamp01(tb)},
	}
}

// collinearOverlap handles the nearly-parallel case. If the lines are farther
// apart than precision there is no intersection; otherwise the overlap range
// is projected onto both segments.
func collinearOverlap(a1, a2, b1, b2 Point, precision float64) Intersection {
	// Both of b's endpoints must sit on a's infinite line.
	t1, d1, _ := PointOnLine(b1, a1, a2, false, precision)
	t2, d2, _ := PointOnLine(b2, a1, a2, false, precision)
	if d1 > precision || d2 > precision {
		return Intersection{Kind: NoIntersection}
	}
	lo, hi := math.Min(t1, t2), math.Max(t1, t2)
	slack := precision / a1.Dist(a2)
	lo = math.Max(lo, 0)
	hi = math.Min(hi, 1)
	if hi <= lo+slack {
		if hi < lo-slack {
			return Intersection{Kind: NoIntersection}
		}
		// Overlap degenerates to an endpoint touch.
		t := (lo + hi) / 2
		p := lerp(a1, a2, t)
		tb, _, _ := PointOnLine(p, b1, b2, false, precision)
		return Intersection{
			Kind:    PointIntersection,
			Points:  []Point{p},
			ParamsA: []float64{clamp01(t)},
			ParamsB: []float64{clamp01(tb)},
		}
	}

	pLo := lerp(a1, a2, lo)
	pHi := lerp(a1, a2, hi)
	bLo, _, _ := PointOnLine(pLo, b1, b2, false, precision)
	bHi, _, _ := PointOnLine(pHi, b1, b2, false, precision)
	return Intersection{
		Kind:    Overlap,
		Points:  []Point{pLo, pHi},
		ParamsA: []float64{lo, hi},
		ParamsB: []float64{clamp01(bLo), clamp01(bHi)},
	}
}

// PointOnLine projects p onto the infinite line through a and b, returning the
// line parameter t (0 at a, 1 at b) and the perpendicular distance. When
// insideSegment is set, on additionally requires t to lie in [0, 1] with a
// slack of precision at either end.
func PointOnLine(p, a, b Point, insideSegment bool, precision float64) (t, dist float64, on bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return 0, p.Dist(a), p.Dist(a) <= precision
	}
	t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	proj := Point{a.X + t*dx, a.Y + t*dy}
	dist = p.Dist(proj)
	on = dist <= precision
	if on && insideSegment {
		slack := precision / math.Sqrt(lenSq)
		on = t >= -slack && t <= 1+slack
	}
	return t, dist, on
}

// RayCrossings counts how many of the given segments a ray from p toward +x
// crosses. Used as the brute-force point-in-polygon reference; the spatial
// structures must agree with it.
func RayCrossings(p Point, segs [][2]Point) int {
	count := 0
	for _, s := range segs {
		if segmentCrossesRay(p, s[0], s[1]) {
			count++
		}
	}
	return count
}

// segmentCrossesRay uses the half-open rule: an endpoint exactly at the query
// y counts only when it is the lower endpoint. This makes shared contour
// vertices count once instead of twice.
func segmentCrossesRay(p, a, b Point) bool {
	if (a.Y > p.Y) == (b.Y > p.Y) {
		return false
	}
	x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
	return x > p.X
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func lerp(a, b Point, t float64) Point {
	return Point{a.X + t*(b.X-a.X), a.Y + t*(b.Y-a.Y)}
}
