// Package render replays a contribution log into a downloadable artifact.
// Every renderer is a pure function of its input: the same entries always
// produce the same bytes.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatWAV  Format = "wav"
	FormatJSON Format = "json"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG, FormatWAV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) Extension() string { return "." + string(f) }

// Formats lists the formats available for a canvas type, preferred first.
func Formats(t canvas.Type) []Format {
	if t.Audible() {
		return []Format{FormatWAV, FormatJSON}
	}
	return []Format{FormatPNG, FormatSVG}
}

func Supports(t canvas.Type, f Format) bool {
	for _, candidate := range Formats(t) {
		if candidate == f {
			return true
		}
	}
	return false
}

// Render folds entries, in log order, into a single artifact of format f.
func Render(t canvas.Type, entries []canvas.Entry, f Format) ([]byte, error) {
	if !t.Valid() {
		return nil, canvas.ErrUnknownType
	}
	if !Supports(t, f) {
		return nil, fmt.Errorf("%w: %s has no %s export", ErrUnsupportedFormat, t, f)
	}

	switch f {
	case FormatWAV:
		return WAV(entries)
	case FormatJSON:
		return Sequence(entries)
	}

	sc, err := buildScene(t, entries)
	if err != nil {
		return nil, err
	}
	if f == FormatSVG {
		return sc.svg(), nil
	}
	return sc.png()
}
