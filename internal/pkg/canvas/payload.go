package canvas

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

type Point struct {
	X float64 `json:"x" validate:"min=0,max=800"`
	Y float64 `json:"y" validate:"min=0,max=800"`
}

// LineSegment is an Embroidery stitch.
type LineSegment struct {
	Start Point   `json:"start"`
	End   Point   `json:"end"`
	Color string  `json:"color" validate:"required,hexcolor"`
	Width float64 `json:"width" validate:"gt=0,max=50"`
}

func (LineSegment) CanvasType() Type { return Embroidery }

type Shape string

const (
	ShapeSquare Shape = "Square"
	ShapeCircle Shape = "Circle"
)

// GridCell is a Mosaic tile on the 32x32 grid.
type GridCell struct {
	X     *int   `json:"x" validate:"required,min=0,max=31"`
	Y     *int   `json:"y" validate:"required,min=0,max=31"`
	Color string `json:"color" validate:"required,hexcolor"`
	Shape Shape  `json:"shape" validate:"omitempty,oneof=Square Circle"`
}

func (GridCell) CanvasType() Type { return Mosaic }

func (c *GridCell) normalize() error {
	if c.Shape == "" {
		c.Shape = ShapeSquare
	}
	return nil
}

const DefaultInkBlur = 8

// InkBlob is a Watercolor drop. X, Y and Size (the diameter) are percentages
// of the canvas edge; Blur is in pixels.
type InkBlob struct {
	X     float64  `json:"x" validate:"min=0,max=100"`
	Y     float64  `json:"y" validate:"min=0,max=100"`
	Color string   `json:"color" validate:"required,hexcolor"`
	Size  float64  `json:"size" validate:"gt=0,max=100"`
	Blur  *float64 `json:"blur,omitempty" validate:"omitempty,min=0,max=64"`
}

func (InkBlob) CanvasType() Type { return Watercolor }

func (b *InkBlob) normalize() error {
	if b.Blur == nil {
		blur := float64(DefaultInkBlur)
		b.Blur = &blur
	}
	return nil
}

type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveSawtooth Waveform = "sawtooth"
	WaveTriangle Waveform = "triangle"
)

// GridKey is the natural key of a toggle-capable contribution.
type GridKey struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// GridNote is an AudioVisual step on the 16x8 sequencer grid. A note with
// Remove set, or Active explicitly false, asks to clear the note at its key.
type GridNote struct {
	Col      *int     `json:"col" validate:"required,min=0,max=15"`
	Row      *int     `json:"row" validate:"required,min=0,max=7"`
	Waveform Waveform `json:"waveform,omitempty" validate:"omitempty,oneof=sine square sawtooth triangle"`
	Remove   bool     `json:"remove,omitempty"`
	Active   *bool    `json:"active,omitempty"`
}

func (GridNote) CanvasType() Type { return AudioVisual }

func (n GridNote) IsRemoval() bool {
	return n.Remove || (n.Active != nil && !*n.Active)
}

func (n GridNote) Key() GridKey {
	return GridKey{Col: *n.Col, Row: *n.Row}
}

func (n *GridNote) normalize() error {
	if !n.IsRemoval() && n.Waveform == "" {
		return errors.New("waveform is required for a new note")
	}
	return nil
}

type Tool string

const (
	ToolBrush     Tool = "brush"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolBucket    Tool = "bucket"
)

// EraserColor is what an eraser stroke paints with.
const EraserColor = "#ffffff"

// Stroke is a freehand brush or eraser path.
type Stroke struct {
	Tool       Tool    `json:"tool" validate:"oneof=brush eraser"`
	Points     []Point `json:"points" validate:"min=1,max=4096,dive"`
	Color      string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
	BrushWidth float64 `json:"brush_width" validate:"gt=0,max=200"`
}

func (Stroke) CanvasType() Type { return Paint }

func (s *Stroke) normalize() error {
	if s.Tool == ToolEraser {
		s.Color = EraserColor
	}
	if s.Color == "" {
		return errors.New("color is required for a brush stroke")
	}
	return nil
}

type Rectangle struct {
	Tool  Tool    `json:"tool" validate:"eq=rectangle"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w" validate:"min=0"`
	H     float64 `json:"h" validate:"min=0"`
	Color string  `json:"color" validate:"required,hexcolor"`
}

func (Rectangle) CanvasType() Type { return Paint }

// Ellipse is the circle tool: a circle inscribed in the square at (X,Y) with
// the given Diameter.
type Ellipse struct {
	Tool     Tool    `json:"tool" validate:"eq=circle"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Diameter float64 `json:"diameter" validate:"gt=0"`
	Color    string  `json:"color" validate:"required,hexcolor"`
}

func (Ellipse) CanvasType() Type { return Paint }

// Fill is the bucket tool: it covers the whole canvas.
type Fill struct {
	Tool  Tool   `json:"tool" validate:"eq=bucket"`
	Color string `json:"color" validate:"required,hexcolor"`
}

func (Fill) CanvasType() Type { return Paint }

func decodePaint(raw []byte) (Payload, error) {
	var head struct {
		Tool Tool `json:"tool"`
	}
	if err := sonic.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	switch head.Tool {
	case ToolBrush, ToolEraser:
		return decodeAs[Stroke](raw)
	case ToolRectangle:
		return decodeAs[Rectangle](raw)
	case ToolCircle:
		return decodeAs[Ellipse](raw)
	case ToolBucket:
		return decodeAs[Fill](raw)
	}
	return nil, fmt.Errorf("%w: unknown paint tool %q", ErrInvalidPayload, head.Tool)
}
