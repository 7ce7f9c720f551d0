package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

// parseColor accepts #rgb, #rgba, #rrggbb and #rrggbbaa.
func parseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == len(s) {
		return color.NRGBA{}, fmt.Errorf("color %q: missing #", s)
	}
	if len(hex) == 3 || len(hex) == 4 {
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("color %q: bad length", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

type raster struct {
	img *image.RGBA
}

// coverage returns how much of the pixel whose top-left corner is (x, y) the
// shape covers, from 0 to 1.
type coverage func(x, y int) float64

func (r *raster) paint(bounds image.Rectangle, c color.NRGBA, cov coverage) {
	bounds = bounds.Intersect(r.img.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a := cov(x, y); a > 0 {
				r.blend(x, y, c, a)
			}
		}
	}
}

// blend composites c over the pixel with source-over at the given coverage.
func (r *raster) blend(x, y int, c color.NRGBA, a float64) {
	sa := float64(c.A) / 255 * math.Min(a, 1)
	i := r.img.PixOffset(x, y)
	px := r.img.Pix[i : i+4 : i+4]
	mix := func(src uint8, dst uint8) uint8 {
		return uint8(math.Round(float64(src)*sa + float64(dst)*(1-sa)))
	}
	px[0] = mix(c.R, px[0])
	px[1] = mix(c.G, px[1])
	px[2] = mix(c.B, px[2])
	px[3] = mix(255, px[3])
}

func box(minX, minY, maxX, maxY float64) image.Rectangle {
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = clamp01(((px-ax)*dx + (py-ay)*dy) / l2)
	}
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

func (r *raster) draw(s shape) error {
	switch v := s.(type) {
	case line:
		c, err := parseColor(v.color)
		if err != nil {
			return err
		}
		hw := v.width / 2
		r.paint(box(math.Min(v.x1, v.x2)-hw, math.Min(v.y1, v.y2)-hw, math.Max(v.x1, v.x2)+hw, math.Max(v.y1, v.y2)+hw), c,
			func(x, y int) float64 {
				d := segmentDistance(float64(x)+0.5, float64(y)+0.5, v.x1, v.y1, v.x2, v.y2)
				return clamp01(hw - d + 0.5)
			})

	case rect:
		c, err := parseColor(v.color)
		if err != nil {
			return err
		}
		r.paint(box(v.x, v.y, v.x+v.w, v.y+v.h), c, func(x, y int) float64 {
			fx, fy := float64(x), float64(y)
			ox := clamp01(math.Min(fx+1, v.x+v.w) - math.Max(fx, v.x))
			oy := clamp01(math.Min(fy+1, v.y+v.h) - math.Max(fy, v.y))
			return ox * oy
		})

	case circle:
		c, err := parseColor(v.color)
		if err != nil {
			return err
		}
		r.paint(box(v.cx-v.r, v.cy-v.r, v.cx+v.r, v.cy+v.r), c, func(x, y int) float64 {
			d := math.Hypot(float64(x)+0.5-v.cx, float64(y)+0.5-v.cy)
			return clamp01(v.r - d + 0.5)
		})

	case path:
		c, err := parseColor(v.color)
		if err != nil {
			return err
		}
		hw := v.width / 2
		minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
		for _, p := range v.points {
			minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
			maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
		}
		bounds := box(minX-hw, minY-hw, maxX+hw, maxY+hw).Intersect(r.img.Bounds())
		if bounds.Empty() {
			return nil
		}
		cov := strokeCoverage(bounds, v.points, hw)
		r.paint(bounds, c, func(x, y int) float64 {
			return cov[(y-bounds.Min.Y)*bounds.Dx()+x-bounds.Min.X]
		})

	case blob:
		c, err := parseColor(v.color)
		if err != nil {
			return err
		}
		reach := 0.7*v.r + v.blur
		r.paint(box(v.cx-reach, v.cy-reach, v.cx+reach, v.cy+reach), c, func(x, y int) float64 {
			d := math.Hypot(float64(x)+0.5-v.cx, float64(y)+0.5-v.cy)
			return 0.6 * clamp01(1-d/reach)
		})

	default:
		return fmt.Errorf("cannot rasterize %T", s)
	}
	return nil
}

// strokeCoverage rasterizes a polyline of half-width hw into a coverage
// buffer over bounds, row-major. Each segment is visited only within its own
// padded box; a pixel keeps the highest coverage of any segment.
func strokeCoverage(bounds image.Rectangle, points []canvas.Point, hw float64) []float64 {
	cov := make([]float64, bounds.Dx()*bounds.Dy())
	segment := func(a, b canvas.Point) {
		sb := box(math.Min(a.X, b.X)-hw, math.Min(a.Y, b.Y)-hw, math.Max(a.X, b.X)+hw, math.Max(a.Y, b.Y)+hw).Intersect(bounds)
		for y := sb.Min.Y; y < sb.Max.Y; y++ {
			row := (y - bounds.Min.Y) * bounds.Dx()
			for x := sb.Min.X; x < sb.Max.X; x++ {
				d := segmentDistance(float64(x)+0.5, float64(y)+0.5, a.X, a.Y, b.X, b.Y)
				i := row + x - bounds.Min.X
				if c := clamp01(hw - d + 0.5); c > cov[i] {
					cov[i] = c
				}
			}
		}
	}

	if len(points) == 1 {
		segment(points[0], points[0])
	}
	for i := 1; i < len(points); i++ {
		segment(points[i-1], points[i])
	}
	return cov
}

func (sc *scene) png() ([]byte, error) {
	edge := int(size)
	r := &raster{img: image.NewRGBA(image.Rect(0, 0, edge, edge))}

	bg, err := parseColor(sc.background)
	if err != nil {
		return nil, err
	}
	r.paint(r.img.Bounds(), bg, func(int, int) float64 { return 1 })

	for i, s := range sc.shapes {
		if err := r.draw(s); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, r.img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
