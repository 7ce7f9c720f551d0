package render

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

type SequenceStep struct {
	Col       int             `json:"col"`
	Row       int             `json:"row"`
	Waveform  canvas.Waveform `json:"waveform"`
	Frequency float64         `json:"frequency"`
	Time      string          `json:"time"`
}

type SequenceDoc struct {
	Sequence []SequenceStep `json:"sequence"`
}

// Sequence lists the notes of the grid in log order, one step per entry.
func Sequence(entries []canvas.Entry) ([]byte, error) {
	doc := SequenceDoc{Sequence: make([]SequenceStep, 0, len(entries))}
	for i, e := range entries {
		n, ok := e.Payload.(canvas.GridNote)
		if !ok {
			return nil, fmt.Errorf("entry %d: %T is not a grid note", i, e.Payload)
		}
		wf := n.Waveform
		if wf == "" {
			wf = canvas.WaveSine
		}
		doc.Sequence = append(doc.Sequence, SequenceStep{
			Col:       *n.Col,
			Row:       *n.Row,
			Waveform:  wf,
			Frequency: Pitches[*n.Row],
			Time:      e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}
