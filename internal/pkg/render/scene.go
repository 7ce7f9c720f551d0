package render

import (
	"fmt"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

const size = float64(canvas.Size)

var backgrounds = map[canvas.Type]string{
	canvas.Embroidery: "#fdfdf5",
	canvas.Mosaic:     "#f0f0f0",
	canvas.Watercolor: "#ffffff",
	canvas.Paint:      "#ffffff",
}

// shape is one drawing primitive, in canvas pixels.
type shape interface {
	isShape()
}

type line struct {
	x1, y1, x2, y2 float64
	width          float64
	color          string
}

type rect struct {
	x, y, w, h float64
	color      string
}

type circle struct {
	cx, cy, r float64
	color     string
}

type path struct {
	points []canvas.Point
	width  float64
	color  string
}

// blob is a radial ink drop fading from 0.6 opacity at the centre to nothing
// at 70% of its radius, softened by blur pixels.
type blob struct {
	cx, cy, r, blur float64
	color           string
}

func (line) isShape()   {}
func (rect) isShape()   {}
func (circle) isShape() {}
func (path) isShape()   {}
func (blob) isShape()   {}

type scene struct {
	background string
	shapes     []shape
}

func buildScene(t canvas.Type, entries []canvas.Entry) (*scene, error) {
	sc := &scene{background: backgrounds[t], shapes: make([]shape, 0, len(entries))}
	for i, e := range entries {
		if e.Payload == nil || e.Payload.CanvasType() != t {
			return nil, fmt.Errorf("entry %d: payload does not belong to a %s canvas", i, t)
		}
		sh, err := primitive(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		sc.shapes = append(sc.shapes, sh)
	}
	return sc, nil
}

func primitive(p canvas.Payload) (shape, error) {
	const tile = size / canvas.MosaicGrid

	switch v := p.(type) {
	case canvas.LineSegment:
		return line{x1: v.Start.X, y1: v.Start.Y, x2: v.End.X, y2: v.End.Y, width: v.Width, color: v.Color}, nil
	case canvas.GridCell:
		x, y := float64(*v.X)*tile, float64(*v.Y)*tile
		if v.Shape == canvas.ShapeCircle {
			return circle{cx: x + tile/2, cy: y + tile/2, r: tile / 2, color: v.Color}, nil
		}
		return rect{x: x, y: y, w: tile, h: tile, color: v.Color}, nil
	case canvas.InkBlob:
		blur := float64(canvas.DefaultInkBlur)
		if v.Blur != nil {
			blur = *v.Blur
		}
		return blob{cx: v.X / 100 * size, cy: v.Y / 100 * size, r: v.Size / 200 * size, blur: blur, color: v.Color}, nil
	case canvas.Stroke:
		return path{points: v.Points, width: v.BrushWidth, color: v.Color}, nil
	case canvas.Rectangle:
		return rect{x: v.X, y: v.Y, w: v.W, h: v.H, color: v.Color}, nil
	case canvas.Ellipse:
		r := v.Diameter / 2
		return circle{cx: v.X + r, cy: v.Y + r, r: r, color: v.Color}, nil
	case canvas.Fill:
		return rect{x: 0, y: 0, w: size, h: size, color: v.Color}, nil
	}
	return nil, fmt.Errorf("no primitive for %T", p)
}
