package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "Active"
	ProjectStatusCompleted ProjectStatus = "Completed"
	ProjectStatusArchived  ProjectStatus = "Archived"
)

var ErrInvalidStatusTransition = errors.New("invalid project status transition")

type Project struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string        `gorm:"type:text;not null" json:"title"`
	Description      string        `gorm:"type:text" json:"description"`
	CanvasType       canvas.Type   `gorm:"type:varchar(32);not null" json:"canvas_type"`
	MaxContributions int           `gorm:"not null" json:"max_contributions"`
	Status           ProjectStatus `gorm:"type:varchar(16);not null;index" json:"status"`

	// Derived from the contribution set, never edited directly.
	CompletionPercentage int `gorm:"not null;default:0" json:"completion_percentage"`
	ContributorCount     int `gorm:"not null;default:0" json:"contributor_count"`

	CreatedBy   *uuid.UUID `gorm:"type:uuid;index" json:"created_by,omitempty"`
	CreatorName string     `gorm:"type:text" json:"creator_name,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Project <-> Contribution
	Contributions []Contribution `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Project) AcceptsContributions() bool {
	return p.Status == ProjectStatusActive
}

// CompletionPercentage is min(100, round(100*count/max)) with halves rounded up.
func CompletionPercentage(count int64, max int) int {
	if max <= 0 || count <= 0 {
		return 0
	}
	pct := (200*count + int64(max)) / (2 * int64(max))
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// Recalculate sets the aggregate fields from the current contribution count and
// distinct contributor count. It reports whether any field changed.
func (p *Project) Recalculate(count, contributors int64) bool {
	pct := CompletionPercentage(count, p.MaxContributions)
	status := p.Status
	if pct >= 100 && status == ProjectStatusActive {
		status = ProjectStatusCompleted
	}

	changed := pct != p.CompletionPercentage ||
		int(contributors) != p.ContributorCount ||
		status != p.Status

	p.CompletionPercentage = pct
	p.ContributorCount = int(contributors)
	p.Status = status
	return changed
}

// CanTransitionTo reports whether an explicit status change is allowed.
// Status only advances: Active -> Completed, Active|Completed -> Archived.
func (p *Project) CanTransitionTo(next ProjectStatus) bool {
	switch next {
	case ProjectStatusCompleted:
		return p.Status == ProjectStatusActive
	case ProjectStatusArchived:
		return p.Status == ProjectStatusActive || p.Status == ProjectStatusCompleted
	}
	return false
}
