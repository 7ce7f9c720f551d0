// Package realtime carries committed canvas changes to live sessions over
// websockets and accepts submits on the same channel.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

// Frame types. The first three are sent by clients, the rest by the server.
const (
	FrameJoin   = "join"
	FrameLeave  = "leave"
	FrameSubmit = "submit"

	FrameJoined         = "joined"
	FrameAck            = "ack"
	FrameError          = "error"
	FrameAdded          = "added"
	FrameRemoved        = "removed"
	FrameProjectUpdated = "project-updated"
)

// CodeRateLimited is reported when a session sends frames faster than allowed.
const CodeRateLimited = "RATE_LIMITED"

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	ProjectID uuid.UUID `json:"project_id"`
}

type SubmitPayload struct {
	ProjectID  uuid.UUID       `json:"project_id"`
	AuthorID   uuid.UUID       `json:"author_id,omitempty"`
	CanvasType canvas.Type     `json:"canvas_type"`
	Payload    json.RawMessage `json:"payload"`
	ClientRef  string          `json:"client_ref,omitempty"`
}

type JoinedPayload struct {
	Project *model.Project `json:"project"`
}

type AckPayload struct {
	ClientRef    string              `json:"client_ref,omitempty"`
	Contribution *model.Contribution `json:"contribution,omitempty"`
	Removed      *canvas.GridKey     `json:"removed,omitempty"`
	RemovedID    int64               `json:"removed_id,omitempty"`
	Project      *model.Project      `json:"project,omitempty"`
	Noop         bool                `json:"noop,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	ClientRef string `json:"client_ref,omitempty"`
}

type AddedPayload struct {
	Contribution *model.Contribution `json:"contribution"`
	ClientRef    string              `json:"client_ref,omitempty"`
}

type RemovedPayload struct {
	Key *canvas.GridKey `json:"key"`
	// ContributionID is the id of the removed entry.
	ContributionID int64  `json:"contribution_id,omitempty"`
	ClientRef      string `json:"client_ref,omitempty"`
}

type ProjectUpdatedPayload struct {
	Project *model.Project `json:"project"`
}

// NewFrame marshals payload into a frame of the given type.
func NewFrame(typ, requestID string, payload any) (Frame, error) {
	f := Frame{Type: typ, RequestID: requestID}
	if payload == nil {
		return f, nil
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	f.Payload = raw
	return f, nil
}

// EventFrame converts a committed event into its broadcast frame.
func EventFrame(ev model.CanvasEvent) (Frame, error) {
	switch ev.Kind {
	case model.EventAdded:
		return NewFrame(FrameAdded, "", AddedPayload{Contribution: ev.Contribution, ClientRef: ev.ClientRef})
	case model.EventRemoved:
		p := RemovedPayload{Key: ev.Key, ClientRef: ev.ClientRef}
		if ev.Contribution != nil {
			p.ContributionID = ev.Contribution.ID
		}
		return NewFrame(FrameRemoved, "", p)
	case model.EventProjectUpdated:
		return NewFrame(FrameProjectUpdated, "", ProjectUpdatedPayload{Project: ev.Project})
	}
	return Frame{}, fmt.Errorf("unknown event kind %q", ev.Kind)
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%s frame has no payload", f.Type)
	}
	return sonic.Unmarshal(f.Payload, v)
}
