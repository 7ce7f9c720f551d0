package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

const (
	SampleRate = 44100

	// StepSeconds is one sequencer column, an eighth note at 120 BPM.
	StepSeconds = 0.125
	// Loops is how many times the 16-step pattern repeats in an export.
	Loops = 4

	noteSeconds = 0.1
	noteGain    = 0.1
	noteFloor   = 0.001
)

// Pitches maps a grid row to a frequency, C major from high to low.
var Pitches = [canvas.NoteRows]float64{523.25, 493.88, 440.00, 392.00, 349.23, 329.63, 293.66, 261.63}

type tone struct {
	start     float64
	frequency float64
	waveform  canvas.Waveform
}

// schedule keeps the last note per grid key, in the order those notes appear
// in the log, and lays them out over Loops repetitions of the pattern.
func schedule(entries []canvas.Entry) ([]tone, error) {
	last := make(map[canvas.GridKey]int, len(entries))
	notes := make([]canvas.GridNote, 0, len(entries))
	for i, e := range entries {
		n, ok := e.Payload.(canvas.GridNote)
		if !ok {
			return nil, fmt.Errorf("entry %d: %T is not a grid note", i, e.Payload)
		}
		if n.IsRemoval() {
			continue
		}
		if j, seen := last[n.Key()]; seen {
			notes[j] = n
			continue
		}
		last[n.Key()] = len(notes)
		notes = append(notes, n)
	}

	pattern := float64(canvas.NoteColumns) * StepSeconds
	tones := make([]tone, 0, len(notes)*Loops)
	for loop := 0; loop < Loops; loop++ {
		for _, n := range notes {
			wf := n.Waveform
			if wf == "" {
				wf = canvas.WaveSine
			}
			tones = append(tones, tone{
				start:     float64(loop)*pattern + float64(*n.Col)*StepSeconds,
				frequency: Pitches[*n.Row],
				waveform:  wf,
			})
		}
	}
	return tones, nil
}

func oscillate(wf canvas.Waveform, phase float64) float64 {
	phase -= math.Floor(phase)
	switch wf {
	case canvas.WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case canvas.WaveSawtooth:
		return 2*phase - 1
	case canvas.WaveTriangle:
		p := phase - 0.25
		return 1 - 4*math.Abs(math.Round(p)-p)
	}
	return math.Sin(2 * math.Pi * phase)
}

// WAV synthesizes the note grid as 16-bit mono PCM. Each tone lasts 100ms
// with a gain that decays exponentially from 0.1 to 0.001.
func WAV(entries []canvas.Entry) ([]byte, error) {
	tones, err := schedule(entries)
	if err != nil {
		return nil, err
	}

	total := int(float64(canvas.NoteColumns) * StepSeconds * Loops * SampleRate)
	mix := make([]float64, total)
	noteSamples := int(noteSeconds * SampleRate)
	for _, t := range tones {
		first := int(math.Round(t.start * SampleRate))
		for i := 0; i < noteSamples && first+i < total; i++ {
			dt := float64(i) / SampleRate
			gain := noteGain * math.Pow(noteFloor/noteGain, dt/noteSeconds)
			mix[first+i] += gain * oscillate(t.waveform, t.frequency*dt)
		}
	}

	pcm := make([]int16, total)
	for i, s := range mix {
		s = math.Max(-1, math.Min(1, s))
		if s < 0 {
			pcm[i] = int16(s * 0x8000)
		} else {
			pcm[i] = int16(s * 0x7fff)
		}
	}
	return encodeWAV(pcm)
}

func encodeWAV(pcm []int16) ([]byte, error) {
	const (
		channels      = 1
		bitsPerSample = 16
		blockAlign    = channels * bitsPerSample / 8
	)
	dataSize := uint32(len(pcm) * blockAlign)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		36 + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1),
		uint16(channels),
		uint32(SampleRate),
		uint32(SampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, field := range header {
		if err := binary.Write(&buf, binary.LittleEndian, field); err != nil {
			return nil, err
		}
	}
	if err := binary.Write(&buf, binary.LittleEndian, pcm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
