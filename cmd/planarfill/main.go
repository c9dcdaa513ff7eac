package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/pellucid/planar"
	"github.com/pellucid/planar/geom"
	"github.com/pellucid/planar/graph"
)

// Fills polygons read from stdin and reports the resulting regions. Input is
// newline separated points in the form "x y", with each polygon separated by
// an extra newline. Polygons may self-intersect, overlap, and wind either way;
// winding carries no meaning, the fill rule decides what is a hole.

var (
	evenOdd   = kingpin.Flag("even-odd", "Fill with the even-odd rule instead of non-zero.").Bool()
	tolerance = kingpin.Flag("tolerance", "Point snapping tolerance.").Default("1e-6").Float64()
	output    = kingpin.Flag("output", "Write a PNG rendering of the fill to this path.").Short('o').String()
	scale     = kingpin.Flag("scale", "Pixels per input unit in the rendering.").Default("100").Float64()
	terminal  = kingpin.Flag("terminal", "Also draw the rendering inline in the terminal.").Short('t').Bool()
)

func main() {
	kingpin.Parse()

	polygons := readPolygons(os.Stdin)
	if len(polygons) == 0 {
		fmt.Fprintln(os.Stderr, "no polygons on stdin")
		os.Exit(1)
	}

	rule := planar.NonZero
	if *evenOdd {
		rule = planar.EvenOdd
	}
	result, err := planar.Fill(polygons, rule, *tolerance)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fill failed:", err)
		os.Exit(1)
	}

	fmt.Printf("Read %d polygons\n", len(polygons))
	for i, r := range result.Closed {
		status := fmt.Sprintf("%d triangles", r.TriangleCount())
		if r.TriangulationFailed {
			status = "triangulation failed"
		}
		fmt.Printf("Region %d: %d contours, net area %.4f, perimeter %.4f, %s\n",
			i, len(r.Contours), r.AreaNet(), r.Perimeter(), status)
	}
	for i, r := range result.Open {
		fmt.Printf("Open polyline %d: %d points, length %.4f\n",
			i, len(r.Points), r.Perimeter())
	}

	if *output != "" {
		if err := graph.DebugDraw(result.Closed, *scale, *output, *terminal); err != nil {
			fmt.Fprintln(os.Stderr, "render failed:", err)
			os.Exit(1)
		}
	}
}

func readPolygons(in *os.File) [][]geom.Point {
	var polygons [][]geom.Point
	var points []geom.Point
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(points) > 0 {
				polygons = append(polygons, points)
				points = nil
			}
			continue
		}
		points = append(points, parsePoint(line))
	}
	if len(points) > 0 {
		polygons = append(polygons, points)
	}
	return polygons
}

func parsePoint(line string) geom.Point {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		fmt.Fprintf(os.Stderr, "bad point line: %q\n", line)
		os.Exit(1)
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		fmt.Fprintf(os.Stderr, "bad point line: %q\n", line)
		os.Exit(1)
	}
	return geom.Point{X: x, Y: y}
}
