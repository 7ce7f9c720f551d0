package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"gorm.io/datatypes"
)

type Contribution struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_contribution_project_key,priority:1" json:"project_id"`

	AuthorID     uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorName   string    `gorm:"type:text" json:"author_name,omitempty"`
	AuthorAvatar string    `gorm:"type:text" json:"author_avatar,omitempty"`

	CanvasType canvas.Type    `gorm:"type:varchar(32);not null" json:"canvas_type"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null" swaggertype:"object" json:"payload"`

	// natural key, only set for toggle-capable canvases
	GridCol *int `gorm:"index:idx_contribution_project_key,priority:2" json:"-"`
	GridRow *int `gorm:"index:idx_contribution_project_key,priority:3" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Contribution) TableName() string { return "contributions" }

func (c *Contribution) Decode() (canvas.Payload, error) {
	return canvas.Decode(c.CanvasType, c.Payload)
}

// Key returns the natural key of a toggle-capable contribution.
func (c *Contribution) Key() (canvas.GridKey, bool) {
	if c.GridCol != nil && c.GridRow != nil {
		return canvas.GridKey{Col: *c.GridCol, Row: *c.GridRow}, true
	}
	if !c.CanvasType.Toggleable() {
		return canvas.GridKey{}, false
	}
	p, err := c.Decode()
	if err != nil {
		return canvas.GridKey{}, false
	}
	note, ok := p.(canvas.GridNote)
	if !ok {
		return canvas.GridKey{}, false
	}
	return note.Key(), true
}

// Contributor is one distinct author of a project with their contribution count.
type Contributor struct {
	AuthorID      uuid.UUID `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	AuthorAvatar  string    `json:"author_avatar,omitempty"`
	Contributions int64     `json:"contributions"`
}
