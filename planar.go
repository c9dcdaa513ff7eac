// Package planar builds crossing-free planar arrangements from arbitrary 2D
// line work and fills them with triangles.
//
// Edges may cross, overlap, repeat, and dangle; insertion splits them at
// every intersection and snaps endpoints within a tolerance, so the finished
// graph is always a valid arrangement. Finalizing traces the filled regions
// (with holes and nested islands under either fill rule) and each region can
// then be triangulated into a counter-clockwise index buffer.
//
// The subpackages expose the individual layers: geom for primitives and
// predicates, pointindex for tolerance snapping, quadtree and interval for
// spatial queries, graph for the arrangement itself.
package planar

import (
	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/graph"
)

type Point = geom.Point
type Box = geom.Box
type Graph = graph.Graph
type Region = graph.Region
type Result = graph.Result

// FillRule selects how nested contours are grouped into regions.
type FillRule int

const (
	// NonZero makes every outermost contour its own region; holes and
	// islands nest inside it.
	NonZero FillRule = iota
	// EvenOdd merges all contours into a single region whose fill
	// alternates with nesting depth.
	EvenOdd
)

// NewGraph returns an empty arrangement covering box, snapping points closer
// than tolerance. Pass geom.Tolerance when in doubt.
func NewGraph(box Box, tolerance float64) *Graph {
	return graph.New(box, tolerance)
}

// Fill is the one-call path: insert each polygon's closed outline into a
// fresh graph, finalize under the given rule, and triangulate every closed
// region. Polygons may self-intersect and overlap each other freely.
func Fill(polygons [][]Point, rule FillRule, tolerance float64) (*Result, error) {
	box := geom.EmptyBox()
	for _, poly := range polygons {
		for _, p := range poly {
			box.Extend(p)
		}
	}
	g := graph.New(box, tolerance)
	for _, poly := range polygons {
		for i, p := range poly {
			q := poly[(i+1)%len(poly)]
			g.AddEdge(p.X, p.Y, q.X, q.Y, false, nil)
		}
	}
	result, err := g.Finalize(rule == EvenOdd)
	if err != nil {
		return nil, err
	}
	for _, r := range result.Closed {
		r.Triangulate(nil)
	}
	return result, nil
}
