package render

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func entries(t *testing.T, typ canvas.Type, raws ...string) []canvas.Entry {
	t.Helper()
	out := make([]canvas.Entry, 0, len(raws))
	for i, raw := range raws {
		p, err := canvas.Decode(typ, []byte(raw))
		require.NoError(t, err, raw)
		out = append(out, canvas.Entry{Payload: p, CreatedAt: epoch.Add(time.Duration(i) * 1500 * time.Millisecond)})
	}
	return out
}

func fixtures(t *testing.T) map[canvas.Type][]canvas.Entry {
	return map[canvas.Type][]canvas.Entry{
		canvas.Mosaic: entries(t, canvas.Mosaic,
			`{"x":0,"y":0,"color":"#ff0000","shape":"Square"}`,
			`{"x":1,"y":2,"color":"#00ff00","shape":"Circle"}`,
		),
		canvas.Watercolor: entries(t, canvas.Watercolor,
			`{"x":50,"y":25,"color":"#0000ff","size":25}`,
			`{"x":0,"y":100,"color":"#ff8800","size":100,"blur":0}`,
		),
		canvas.Paint: entries(t, canvas.Paint,
			`{"tool":"bucket","color":"#eeeeee"}`,
			`{"tool":"brush","points":[{"x":10,"y":10},{"x":20,"y":30}],"color":"#123456","brush_width":4}`,
			`{"tool":"eraser","points":[{"x":50,"y":50}],"brush_width":12}`,
			`{"tool":"rectangle","x":5,"y":6,"w":7,"h":8,"color":"#abcdef"}`,
			`{"tool":"circle","x":100,"y":100,"diameter":50,"color":"#000000"}`,
		),
		canvas.Embroidery: entries(t, canvas.Embroidery,
			`{"start":{"x":1,"y":2},"end":{"x":3,"y":4},"color":"#ff00ff","width":2}`,
		),
		canvas.AudioVisual: entries(t, canvas.AudioVisual,
			`{"col":2,"row":3,"waveform":"sine"}`,
			`{"col":0,"row":0,"waveform":"square"}`,
		),
	}
}

func TestRender_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	all := fixtures(t)

	tests := []struct {
		name   string
		typ    canvas.Type
		format Format
	}{
		{name: "mosaic.svg", typ: canvas.Mosaic, format: FormatSVG},
		{name: "watercolor.svg", typ: canvas.Watercolor, format: FormatSVG},
		{name: "paint.svg", typ: canvas.Paint, format: FormatSVG},
		{name: "embroidery.svg", typ: canvas.Embroidery, format: FormatSVG},
		{name: "audiovisual.json", typ: canvas.AudioVisual, format: FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.typ, all[tt.typ], tt.format)
			require.NoError(t, err)
			g.Assert(t, tt.name, got)
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	for typ, list := range fixtures(t) {
		for _, f := range Formats(typ) {
			first, err := Render(typ, list, f)
			require.NoError(t, err)
			second, err := Render(typ, list, f)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(first, second), "%s %s differs between runs", typ, f)
		}
	}
}

func TestRender_PNGPixels(t *testing.T) {
	out, err := Render(canvas.Mosaic, fixtures(t)[canvas.Mosaic], FormatPNG)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 800, img.Bounds().Dy())

	rgba := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, rgba(5, 5))
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, rgba(37, 62))
	assert.Equal(t, color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}, rgba(700, 700))
}

func TestRender_LaterEntriesOcclude(t *testing.T) {
	list := entries(t, canvas.Paint,
		`{"tool":"rectangle","x":0,"y":0,"w":100,"h":100,"color":"#ff0000"}`,
		`{"tool":"bucket","color":"#0000ff"}`,
	)
	out, err := Render(canvas.Paint, list, FormatPNG)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, color.RGBAModel.Convert(img.At(50, 50)))
}

func TestRender_WAV(t *testing.T) {
	out, err := Render(canvas.AudioVisual, fixtures(t)[canvas.AudioVisual], FormatWAV)
	require.NoError(t, err)

	samples := int(float64(canvas.NoteColumns) * StepSeconds * Loops * SampleRate)
	require.Len(t, out, 44+samples*2)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(out[24:28]))
	assert.Equal(t, uint32(samples*2), binary.LittleEndian.Uint32(out[40:44]))

	pcm := out[44:]
	sample := func(i int) int16 { return int16(binary.LittleEndian.Uint16(pcm[i*2:])) }
	// (0,0) is a square wave at t=0
	assert.NotZero(t, sample(1))
	// nothing sounds in column 1
	assert.Zero(t, sample(5788))
}

func TestSchedule(t *testing.T) {
	list := entries(t, canvas.AudioVisual,
		`{"col":1,"row":0,"waveform":"sine"}`,
		`{"col":4,"row":7,"waveform":"triangle"}`,
		`{"col":1,"row":0,"waveform":"sawtooth"}`,
	)
	tones, err := schedule(list)
	require.NoError(t, err)
	require.Len(t, tones, 2*Loops)

	assert.Equal(t, canvas.WaveSawtooth, tones[0].waveform, "last note at a key wins")
	assert.Equal(t, StepSeconds, tones[0].start)
	assert.Equal(t, Pitches[0], tones[0].frequency)
	assert.Equal(t, 4*StepSeconds, tones[1].start)
	assert.Equal(t, Pitches[7], tones[1].frequency)
	assert.Equal(t, 2+StepSeconds, tones[2].start)
}

func TestOscillate(t *testing.T) {
	tests := []struct {
		wf    canvas.Waveform
		phase float64
		want  float64
	}{
		{canvas.WaveSine, 0.25, 1},
		{canvas.WaveSquare, 0.1, 1},
		{canvas.WaveSquare, 0.6, -1},
		{canvas.WaveSawtooth, 0, -1},
		{canvas.WaveSawtooth, 0.75, 0.5},
		{canvas.WaveTriangle, 0, 0},
		{canvas.WaveTriangle, 0.25, 1},
		{canvas.WaveTriangle, 0.75, -1},
		{canvas.WaveTriangle, 1.25, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, oscillate(tt.wf, tt.phase), 1e-9, "%s at %v", tt.wf, tt.phase)
	}
}

func TestRender_Errors(t *testing.T) {
	all := fixtures(t)

	_, err := Render(canvas.Mosaic, all[canvas.Mosaic], FormatWAV)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Render(canvas.AudioVisual, all[canvas.AudioVisual], FormatPNG)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Render(canvas.Type("Sculpture"), nil, FormatSVG)
	assert.ErrorIs(t, err, canvas.ErrUnknownType)

	_, err = Render(canvas.Paint, all[canvas.Mosaic], FormatSVG)
	assert.Error(t, err)

	_, err = Render(canvas.AudioVisual, all[canvas.Mosaic], FormatWAV)
	assert.Error(t, err)
}

func TestRender_Empty(t *testing.T) {
	out, err := Render(canvas.Embroidery, nil, FormatSVG)
	require.NoError(t, err)
	assert.Contains(t, string(out), `fill="#fdfdf5"`)

	out, err = Render(canvas.AudioVisual, nil, FormatJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sequence":[]}`, string(out))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, ".png", f.Extension())

	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#fff", want: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{in: "#0f08", want: color.NRGBA{G: 0xff, A: 0x88}},
		{in: "#123456", want: color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}},
		{in: "#12345680", want: color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0x80}},
		{in: "123456", wantErr: true},
		{in: "#12345", wantErr: true},
		{in: "#zzzzzz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
