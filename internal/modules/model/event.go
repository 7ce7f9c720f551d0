package model

import (
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

type EventKind string

const (
	EventAdded          EventKind = "added"
	EventRemoved        EventKind = "removed"
	EventProjectUpdated EventKind = "project-updated"
)

// CanvasEvent is a committed change fanned out to every session joined to a project.
type CanvasEvent struct {
	Kind         EventKind       `json:"kind"`
	ProjectID    uuid.UUID       `json:"project_id"`
	Contribution *Contribution   `json:"contribution,omitempty"`
	Key          *canvas.GridKey `json:"key,omitempty"`
	Project      *Project        `json:"project,omitempty"`
	ClientRef    string          `json:"client_ref,omitempty"`
}
