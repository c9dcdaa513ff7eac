package graph

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/pointindex"
)

// ErrFinalized is returned by Finalize when the graph has already been
// consumed. Finalize mutates and compacts internal state, so a repeat call
// cannot produce meaningful output.
var ErrFinalized = errors.New("graph: already finalized")

// Result is the output of Finalize: filled regions ready for triangulation,
// and leftover open polylines stitched into maximal chains.
type Result struct {
	Closed []*Region
	Open   []*Region
}

// departure is one directed pass over an edge, leaving from a vertex.
type departure struct {
	edge *Edge
	// fwd is true when the pass runs V1 -> V2.
	fwd bool
}

func (g *Graph) head(d departure) int {
	if d.fwd {
		return d.edge.V2
	}
	return d.edge.V1
}

func (g *Graph) tail(d departure) int {
	if d.fwd {
		return d.edge.V1
	}
	return d.edge.V2
}

func (d departure) consumed() bool {
	if d.fwd {
		return d.edge.usedFwd
	}
	return d.edge.usedRev
}

func (d departure) consume() {
	if d.fwd {
		d.edge.usedFwd = true
	} else {
		d.edge.usedRev = true
	}
}

// Finalize is the one-time consuming transformation: cleanup, compaction,
// contour tracing and hole nesting. useEvenOdd selects the fill strategy used
// to assemble regions from the traced contours. The graph must not be used
// for further insertions afterward.
func (g *Graph) Finalize(useEvenOdd bool) (result *Result, err error) {
	if g.finalized {
		return nil, ErrFinalized
	}
	g.finalized = true
	defer func() {
		if rerr := handleGraphPanic(recover()); rerr != nil {
			result = nil
			err = rerr
		}
	}()

	g.CleanupFlatEdges()
	g.compact()

	// Peel off dangling chains first. What remains has minimum degree 2, so
	// face tracing below always closes its walks.
	chains := g.peelOpenChains()

	order := g.sortIncidence()
	contours := g.traceFaces(order)

	contours = dedupContours(contours)
	traced := orientAndSort(contours, g)
	traced = dropOutlineArtifacts(traced, g)

	regions := g.buildRegions(traced, useEvenOdd)
	open := g.buildOpenRegions(stitchChains(chains))

	return &Result{Closed: regions, Open: open}, nil
}

// compact drops tombstoned vertices and dead edge slots, remapping vertex ids
// inside surviving edges and rebuilding incidence lists in edge-id order so
// downstream iteration is deterministic.
func (g *Graph) compact() {
	prev := g.points.Compact()
	remap := make(map[int]int, len(prev))
	for newID, oldID := range prev {
		remap[oldID] = newID
	}

	live := g.edges[:0]
	for _, e := range g.edges {
		if e == nil || e.dead {
			continue
		}
		v1, ok1 := remap[e.V1]
		v2, ok2 := remap[e.V2]
		if !ok1 || !ok2 {
			fatalf("compact: edge %v references removed vertex", e)
		}
		e.V1 = v1
		e.V2 = v2
		e.ID = len(live)
		live = append(live, e)
	}
	g.edges = live

	g.points.EnumVertices(func(v *pointindex.Vertex) bool {
		v.Edges = v.Edges[:0]
		v.Changed = true
		return true
	})
	for _, e := range g.edges {
		for _, vid := range []int{e.V1, e.V2} {
			v := g.points.Vertex(vid)
			v.Edges = append(v.Edges, e.ID)
		}
	}
}

// peelOpenChains removes every dangling polyline, walking inward from each
// degree-1 tip, and returns the chains as vertex-id paths. Junction vertices
// stay in the graph; vertices interior to a chain end up isolated.
func (g *Graph) peelOpenChains() [][]int {
	var chains [][]int
	for {
		var tip *pointindex.Vertex
		g.points.EnumVertices(func(v *pointindex.Vertex) bool {
			if len(v.Edges) == 1 {
				tip = v
				return false
			}
			return true
		})
		if tip == nil {
			return chains
		}
		chain := []int{tip.ID}
		v := tip
		for len(v.Edges) == 1 {
			e := g.edges[v.Edges[0]]
			next := g.points.Vertex(e.Other(v.ID))
			g.RemoveEdge(e)
			chain = append(chain, next.ID)
			v = next
		}
		chains = append(chains, chain)
	}
}

// stitchChains merges chains end-to-end while any two share an endpoint
// vertex, yielding minimal maximal-length chains.
func stitchChains(chains [][]int) [][]int {
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(chains) && !merged; i++ {
			for j := i + 1; j < len(chains) && !merged; j++ {
				joined, ok := joinChains(chains[i], chains[j])
				if ok {
					chains[i] = joined
					chains = append(chains[:j], chains[j+1:]...)
					merged = true
				}
			}
		}
	}
	return chains
}

func joinChains(a, b []int) ([]int, bool) {
	rev := func(s []int) []int {
		out := make([]int, len(s))
		for i, v := range s {
			out[len(s)-1-i] = v
		}
		return out
	}
	switch {
	case a[len(a)-1] == b[0]:
		return append(a, b[1:]...), true
	case a[len(a)-1] == b[len(b)-1]:
		return append(a, rev(b)[1:]...), true
	case a[0] == b[len(b)-1]:
		return append(b, a[1:]...), true
	case a[0] == b[0]:
		return append(rev(a), b[1:]...), true
	}
	return nil, false
}

// sortIncidence returns, per vertex id, the departures sorted by departing
// polar angle in [0, 2π). Ties (overlapping collinear departures) break by
// neighbor vertex id so the trace is reproducible. Orderings are cached on
// the graph and recomputed only for vertices whose incidence list changed
// since the last call.
func (g *Graph) sortIncidence() map[int][]departure {
	if g.incidence == nil {
		g.incidence = make(map[int][]departure)
	}
	order := make(map[int][]departure)
	g.points.EnumVertices(func(v *pointindex.Vertex) bool {
		if !v.Changed {
			if deps, ok := g.incidence[v.ID]; ok {
				order[v.ID] = deps
				return true
			}
		}
		deps := make([]departure, 0, len(v.Edges))
		for _, eid := range v.Edges {
			e := g.edges[eid]
			deps = append(deps, departure{edge: e, fwd: e.V1 == v.ID})
		}
		sort.SliceStable(deps, func(i, j int) bool {
			ai := g.departAngle(v, deps[i])
			aj := g.departAngle(v, deps[j])
			if ai != aj {
				return ai < aj
			}
			return deps[i].edge.Other(v.ID) < deps[j].edge.Other(v.ID)
		})
		g.incidence[v.ID] = deps
		order[v.ID] = deps
		v.Changed = false
		return true
	})
	return order
}

func (g *Graph) departAngle(v *pointindex.Vertex, d departure) float64 {
	w := g.points.Vertex(d.edge.Other(v.ID))
	return fullAngle(w.X-v.X, w.Y-v.Y)
}

// traceFaces walks every unconsumed directed pass with the rotation rule:
// arriving at a vertex, continue along the departure immediately
// counter-clockwise of the one we arrived on. With minimum degree 2 every
// walk returns to its starting pass, yielding the closed boundary of one
// face.
func (g *Graph) traceFaces(order map[int][]departure) [][]int {
	var contours [][]int
	for _, e := range g.edges {
		if e.dead {
			// Peeled off as part of a dangling chain after compaction.
			continue
		}
		for _, fwd := range []bool{true, false} {
			start := departure{edge: e, fwd: fwd}
			if start.consumed() {
				continue
			}
			contours = append(contours, g.walk(start, order))
		}
	}
	return contours
}

func (g *Graph) walk(start departure, order map[int][]departure) []int {
	contour := []int{g.tail(start)}
	d := start
	for steps := 0; ; steps++ {
		if steps > 4*len(g.edges)+4 {
			fatalf("contour trace did not terminate")
		}
		d.consume()
		w := g.head(d)
		contour = append(contour, w)
		next := g.successor(w, d, order)
		if next == start {
			return contour
		}
		if next.consumed() {
			// Unreachable once dangling chains are peeled; close out the walk
			// rather than consuming a pass twice.
			return contour
		}
		d = next
	}
}

// successor finds the departure at w immediately counter-clockwise of the
// arrival edge. The arrival pass of d, seen from w, is the departure back
// along the same edge.
func (g *Graph) successor(w int, d departure, order map[int][]departure) departure {
	deps := order[w]
	back := departure{edge: d.edge, fwd: !d.fwd}
	for i, dep := range deps {
		if dep == back {
			return deps[(i+1)%len(deps)]
		}
	}
	fatalf("arrival edge missing from incidence list of vertex %d", w)
	return departure{}
}

// contour is a traced face boundary; the trailing duplicate of the first
// vertex is kept while tracing and stripped here.
type tracedContour struct {
	verts []int
	area  float64
	// edgeSet holds the unordered vertex pairs of the boundary, used to
	// recognize tiling artifacts during nesting.
	edgeSet map[[2]int]struct{}
}

// dedupContours removes the duplicate of each boundary: the trace visits
// every boundary once per direction, so structurally identical pairs are
// expected, not exceptional. Identity is the sorted vertex-id multiset.
func dedupContours(contours [][]int) [][]int {
	seen := make(map[string]struct{}, len(contours))
	out := contours[:0]
	for _, c := range contours {
		key := contourKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func contourKey(contour []int) string {
	ids := make([]int, len(contour)-1)
	copy(ids, contour[:len(contour)-1])
	sort.Ints(ids)
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(strconv.Itoa(id))
		b.WriteByte(',')
	}
	return b.String()
}

// orientAndSort strips trailing duplicates, discards walks too small to bound
// area, rewinds everything counter-clockwise and sorts by increasing absolute
// area.
func orientAndSort(contours [][]int, g *Graph) []tracedContour {
	out := make([]tracedContour, 0, len(contours))
	for _, c := range contours {
		if len(c) > 1 && c[0] == c[len(c)-1] {
			c = c[:len(c)-1]
		}
		if distinctCount(c) < 3 {
			continue
		}
		pts := make([]geom.Point, len(c))
		for i, vid := range c {
			pts[i] = g.points.Vertex(vid).Point()
		}
		area := geom.ShoelaceArea(pts)
		if area < 0 {
			for i, j := 0, len(c)-1; i < j; i, j = i+1, j-1 {
				c[i], c[j] = c[j], c[i]
			}
			area = -area
		}
		tc := tracedContour{verts: c, area: area, edgeSet: make(map[[2]int]struct{}, len(c))}
		for i, vid := range c {
			next := c[(i+1)%len(c)]
			tc.edgeSet[orderedPair(vid, next)] = struct{}{}
		}
		out = append(out, tc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].area < out[j].area })
	return out
}

func orderedPair(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

func distinctCount(verts []int) int {
	set := make(map[int]struct{}, len(verts))
	for _, v := range verts {
		set[v] = struct{}{}
	}
	return len(set)
}

// dropOutlineArtifacts removes union outlines. When inserted contours cross,
// the faces of the arrangement tile the filled area and the trace also emits
// the outline of the whole union; keeping it would double-cover the cells it
// contains. The outline is recognizable because it shares boundary edges
// with smaller contours lying inside it, which never happens for genuinely
// nested rings.
func dropOutlineArtifacts(contours []tracedContour, g *Graph) []tracedContour {
	drop := make([]bool, len(contours))
	for i := len(contours) - 1; i >= 0; i-- {
		outer := contours[i]
		for j := 0; j < i; j++ {
			if drop[j] || contours[j].area >= outer.area {
				continue
			}
			if !sharesEdge(outer.edgeSet, contours[j].edgeSet) {
				continue
			}
			if contourContains(outer, g.interiorPoint(contours[j]), g) {
				drop[i] = true
				break
			}
		}
	}
	out := contours[:0]
	for i, c := range contours {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

func sharesEdge(a, b map[[2]int]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for pair := range a {
		if _, ok := b[pair]; ok {
			return true
		}
	}
	return false
}

// buildRegions assembles regions from the classified contours. Nesting is a
// containment forest: each contour's parent is the smallest strictly larger
// contour containing its interior point. Odd depth marks a hole; even depth
// at two or more is an island promoted back to filled, which the parity
// filter during triangulation handles without special casing. With even-odd
// fill all surviving contours merge into a single region; with non-zero fill
// each root becomes its own region carrying its descendants.
//
// The forest assumes no overlapping same-depth contours. Malformed input
// that violates this gets a heuristic nesting, not an error.
func (g *Graph) buildRegions(contours []tracedContour, useEvenOdd bool) []*Region {
	n := len(contours)
	parent := make([]int, n)
	depth := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}
	for i := 0; i < n; i++ {
		p := g.interiorPoint(contours[i])
		for j := i + 1; j < n; j++ {
			if contours[j].area <= contours[i].area {
				continue
			}
			if contourContains(contours[j], p, g) {
				parent[i] = j
				break
			}
		}
	}
	var depthOf func(i int) int
	depthOf = func(i int) int {
		if parent[i] < 0 {
			return 0
		}
		return depthOf(parent[i]) + 1
	}
	for i := range depth {
		depth[i] = depthOf(i)
	}

	if useEvenOdd {
		if n == 0 {
			return nil
		}
		// Single aggregate region. Order contours outer-first so the
		// triangulator boundary always sees a bounding contour up front.
		idx := sortByDepthThenArea(contours, depth)
		return []*Region{g.newRegion(contours, idx, depth, true)}
	}

	var regions []*Region
	for i := n - 1; i >= 0; i-- {
		if depth[i] != 0 {
			continue
		}
		group := []int{i}
		for j := 0; j < n; j++ {
			if j != i && rootOf(parent, j) == i {
				group = append(group, j)
			}
		}
		group = sortGroup(contours, group, depth)
		regions = append(regions, g.newRegion(contours, group, depth, true))
	}
	return regions
}

func rootOf(parent []int, i int) int {
	for parent[i] >= 0 {
		i = parent[i]
	}
	return i
}

// sortByDepthThenArea orders all contour indices by depth, then by
// decreasing area, then by index for stability.
func sortByDepthThenArea(contours []tracedContour, depth []int) []int {
	idx := make([]int, len(contours))
	for i := range idx {
		idx[i] = i
	}
	return sortGroup(contours, idx, depth)
}

func sortGroup(contours []tracedContour, group []int, depth []int) []int {
	sort.SliceStable(group, func(a, b int) bool {
		i, j := group[a], group[b]
		if depth[i] != depth[j] {
			return depth[i] < depth[j]
		}
		return contours[i].area > contours[j].area
	})
	return group
}

// interiorPoint returns a point strictly inside the contour: the centroid of
// a triangle cut off at the contour's lexicographically lowest (and therefore
// convex) vertex. If another contour vertex intrudes into that triangle, the
// midpoint toward the deepest intruder is used instead. A vertex of the
// contour itself would risk landing exactly on a shared edge of a neighbor,
// which is why containment never tests contour vertices directly.
func (g *Graph) interiorPoint(c tracedContour) geom.Point {
	verts := c.verts
	n := len(verts)
	low := 0
	for i := 1; i < n; i++ {
		if g.points.Vertex(verts[i]).Point().Below(g.points.Vertex(verts[low]).Point()) {
			low = i
		}
	}
	a := g.points.Vertex(verts[(low-1+n)%n]).Point()
	v := g.points.Vertex(verts[low]).Point()
	b := g.points.Vertex(verts[(low+1)%n]).Point()

	samePoint := func(p, q geom.Point) bool {
		return geom.Equal(p.X, q.X) && geom.Equal(p.Y, q.Y)
	}
	var deepest geom.Point
	found := false
	bestDist := 0.0
	for _, vid := range verts {
		q := g.points.Vertex(vid).Point()
		if samePoint(q, a) || samePoint(q, v) || samePoint(q, b) {
			continue
		}
		if !pointInTriangle(q, a, v, b) {
			continue
		}
		if d := q.Dist(v); !found || d < bestDist {
			deepest = q
			bestDist = d
			found = true
		}
	}
	if found {
		return geom.Point{X: (v.X + deepest.X) / 2, Y: (v.Y + deepest.Y) / 2}
	}
	return geom.Centroid(a, v, b)
}

func pointInTriangle(p, a, b, c geom.Point) bool {
	d1 := geom.Cross(a, b, p)
	d2 := geom.Cross(b, c, p)
	d3 := geom.Cross(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func contourContains(c tracedContour, p geom.Point, g *Graph) bool {
	segs := make([][2]geom.Point, len(c.verts))
	for i, vid := range c.verts {
		next := c.verts[(i+1)%len(c.verts)]
		segs[i] = [2]geom.Point{
			g.points.Vertex(vid).Point(),
			g.points.Vertex(next).Point(),
		}
	}
	return geom.RayCrossings(p, segs)%2 == 1
}

// fullAngle is the direction angle normalized to [0, 2π), unlike Edge.Angle
// which folds opposite directions together.
func fullAngle(dx, dy float64) float64 {
	a := math.Atan2(dy, dx)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
