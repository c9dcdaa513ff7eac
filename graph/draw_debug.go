package graph

import (
	"os"

	"github.com/fogleman/gg"
	imgcat "github.com/martinlindhe/imgcat/lib"

	"github.com/pellucid/planar/geom"
)

// Debug rendering of regions and their triangulations.

const dbgDrawPadding = 10

// DebugDraw renders the regions' contours and triangle meshes to a PNG at
// path. When toTerminal is set the image is also written to stdout with
// imgcat for terminals that support inline images.
func DebugDraw(regions []*Region, scale float64, path string, toTerminal bool) error {
	box := geom.EmptyBox()
	for _, r := range regions {
		for _, p := range r.Points {
			box.Extend(p)
		}
	}
	if box.Width() <= 0 && box.Height() <= 0 {
		return nil
	}

	width := int(scale*box.Width()) + dbgDrawPadding*2
	height := int(scale*box.Height()) + dbgDrawPadding*2
	c := gg.NewContext(width, height)
	c.SetRGB(0, 0, 0)
	c.DrawRectangle(0, 0, float64(width), float64(height))
	c.Fill()

	// Flip so the origin is at the bottom left.
	c.Translate(0, float64(height))
	c.Scale(1, -1)
	c.Translate(dbgDrawPadding, dbgDrawPadding)
	c.Scale(scale, scale)
	c.Translate(-box.MinX, -box.MinY)

	// Triangles first, then contours on top.
	c.SetLineWidth(1 / scale)
	c.SetRGB(0, 0.5, 0)
	for _, r := range regions {
		for i := 0; i+2 < len(r.Indices); i += 3 {
			a := r.Points[r.Indices[i]]
			b := r.Points[r.Indices[i+1]]
			t := r.Points[r.Indices[i+2]]
			c.MoveTo(a.X, a.Y)
			c.LineTo(b.X, b.Y)
			c.LineTo(t.X, t.Y)
			c.ClosePath()
		}
	}
	c.FillPreserve()
	c.SetRGB(0, 0.8, 0.2)
	c.Stroke()

	c.SetLineWidth(2 / scale)
	c.SetRGB(0, 1, 1)
	for _, r := range regions {
		for _, contour := range r.Contours {
			if len(contour.Indices) == 0 {
				continue
			}
			p0 := r.Points[contour.Indices[0]]
			c.MoveTo(p0.X, p0.Y)
			for _, pi := range contour.Indices[1:] {
				p := r.Points[pi]
				c.LineTo(p.X, p.Y)
			}
			if contour.Closed {
				c.ClosePath()
			}
		}
	}
	c.Stroke()

	if err := c.SavePNG(path); err != nil {
		return err
	}
	if toTerminal {
		imgcat.CatFile(path, os.Stdout)
	}
	return nil
}
