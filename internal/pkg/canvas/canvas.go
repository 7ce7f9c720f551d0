// Package canvas defines the closed set of canvas types and the payload each
// contribution carries for them.
package canvas

import (
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

type Type string

const (
	Embroidery  Type = "Embroidery"
	Mosaic      Type = "Mosaic"
	Watercolor  Type = "Watercolor"
	AudioVisual Type = "AudioVisual"
	Paint       Type = "Paint"
)

// Types lists every canvas type in a stable order.
var Types = []Type{Embroidery, Mosaic, Watercolor, AudioVisual, Paint}

func (t Type) Valid() bool {
	switch t {
	case Embroidery, Mosaic, Watercolor, AudioVisual, Paint:
		return true
	}
	return false
}

// Toggleable reports whether contributions of this type carry a natural key
// and may be removed by it.
func (t Type) Toggleable() bool { return t == AudioVisual }

// Audible reports whether the canvas renders to sound rather than an image.
func (t Type) Audible() bool { return t == AudioVisual }

const (
	// Size is the edge length of the square drawing surface in pixels.
	Size = 800

	MosaicGrid = 32

	NoteColumns = 16
	NoteRows    = 8
)

var (
	ErrUnknownType    = errors.New("unknown canvas type")
	ErrInvalidPayload = errors.New("invalid contribution payload")
)

// Payload is one of the per-type variants below.
type Payload interface {
	CanvasType() Type
}

// Entry is a decoded contribution in log order, the input of every renderer.
type Entry struct {
	Payload   Payload
	CreatedAt time.Time
}

var validate = validator.New()

// Decode parses and validates raw as the payload variant of t.
func Decode(t Type, raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	var (
		p   Payload
		err error
	)
	switch t {
	case Embroidery:
		p, err = decodeAs[LineSegment](raw)
	case Mosaic:
		p, err = decodeAs[GridCell](raw)
	case Watercolor:
		p, err = decodeAs[InkBlob](raw)
	case AudioVisual:
		p, err = decodeAs[GridNote](raw)
	case Paint:
		p, err = decodePaint(raw)
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidPayload, ErrUnknownType, t)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type normalizer interface {
	normalize() error
}

func decodeAs[T Payload](raw []byte) (Payload, error) {
	var v T
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if n, ok := any(&v).(normalizer); ok {
		if err := n.normalize(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return v, nil
}

// Encode returns the canonical stored form of p.
func Encode(p Payload) ([]byte, error) {
	if n, ok := p.(GridNote); ok {
		// removal markers never reach the log
		n.Remove = false
		n.Active = nil
		p = n
	}
	return sonic.Marshal(p)
}
