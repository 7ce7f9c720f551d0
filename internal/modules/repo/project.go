package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *model.Project) error
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// UpdateStatus applies an explicit status change under the project row lock.
	// It fails with model.ErrInvalidStatusTransition when the change would regress the status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProjectStatus) (*model.Project, error)
	// Recompute derives the aggregate fields from the stored contributions and
	// writes them only when they differ.
	Recompute(ctx context.Context, id uuid.UUID) (*model.Project, error)
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProjectStatus) (*model.Project, error) {
	var out *model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, id)
		if err != nil {
			return err
		}
		if !p.CanTransitionTo(status) {
			return model.ErrInvalidStatusTransition
		}
		p.Status = status
		if err := tx.Model(p).Select("status", "updated_at").Updates(p).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *projectRepo) Recompute(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var out *model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, id)
		if err != nil {
			return err
		}
		if _, err := recompute(tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockProject reads the project row FOR UPDATE. Dialects without row locks
// (sqlite) drop the locking clause and rely on their database-level lock.
func lockProject(tx *gorm.DB, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// recompute refreshes the aggregate of p from the contributions visible in tx.
func recompute(tx *gorm.DB, p *model.Project) (bool, error) {
	var count int64
	if err := tx.Model(&model.Contribution{}).
		Where("project_id = ?", p.ID).
		Count(&count).Error; err != nil {
		return false, err
	}

	var contributors int64
	if err := tx.Model(&model.Contribution{}).
		Where("project_id = ?", p.ID).
		Distinct("author_id").
		Count(&contributors).Error; err != nil {
		return false, err
	}

	if !p.Recalculate(count, contributors) {
		return false, nil
	}
	err := tx.Model(p).
		Select("completion_percentage", "contributor_count", "status", "updated_at").
		Updates(p).Error
	return err == nil, err
}
