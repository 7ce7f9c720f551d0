package render

import (
	"strconv"
	"strings"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (sc *scene) svg() []byte {
	var b strings.Builder
	edge := num(size)

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + edge + `" height="` + edge + `" viewBox="0 0 ` + edge + ` ` + edge + `">` + "\n")
	b.WriteString(`<rect x="0" y="0" width="` + edge + `" height="` + edge + `" fill="` + sc.background + `"/>` + "\n")

	for i, s := range sc.shapes {
		switch v := s.(type) {
		case line:
			b.WriteString(`<line x1="` + num(v.x1) + `" y1="` + num(v.y1) + `" x2="` + num(v.x2) + `" y2="` + num(v.y2) +
				`" stroke="` + v.color + `" stroke-width="` + num(v.width) + `" stroke-linecap="round"/>`)
		case rect:
			b.WriteString(`<rect x="` + num(v.x) + `" y="` + num(v.y) + `" width="` + num(v.w) + `" height="` + num(v.h) +
				`" fill="` + v.color + `"/>`)
		case circle:
			b.WriteString(`<circle cx="` + num(v.cx) + `" cy="` + num(v.cy) + `" r="` + num(v.r) + `" fill="` + v.color + `"/>`)
		case path:
			b.WriteString(`<path d="` + pathData(v.points) + `" fill="none" stroke="` + v.color + `" stroke-width="` + num(v.width) +
				`" stroke-linecap="round" stroke-linejoin="round"/>`)
		case blob:
			writeBlob(&b, i, v)
		}
		b.WriteByte('\n')
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func pathData(points []canvas.Point) string {
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(num(p.X) + " " + num(p.Y))
	}
	return b.String()
}

func writeBlob(b *strings.Builder, i int, v blob) {
	id := strconv.Itoa(i)
	b.WriteString(`<defs><radialGradient id="ink` + id + `">` +
		`<stop offset="0%" stop-color="` + v.color + `" stop-opacity="0.6"/>` +
		`<stop offset="70%" stop-color="` + v.color + `" stop-opacity="0"/>` +
		`</radialGradient>`)
	if v.blur > 0 {
		b.WriteString(`<filter id="blur` + id + `" x="-50%" y="-50%" width="200%" height="200%">` +
			`<feGaussianBlur stdDeviation="` + num(v.blur) + `"/></filter>`)
	}
	b.WriteString(`</defs>`)

	b.WriteString(`<circle cx="` + num(v.cx) + `" cy="` + num(v.cy) + `" r="` + num(v.r) + `" fill="url(#ink` + id + `)"`)
	if v.blur > 0 {
		b.WriteString(` filter="url(#blur` + id + `)"`)
	}
	b.WriteString(`/>`)
}
