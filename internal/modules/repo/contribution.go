package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"gorm.io/gorm"
)

// ProjectGuard inspects the locked project before a mutation and aborts it by
// returning an error.
type ProjectGuard func(p *model.Project) error

type ContributionRepo interface {
	// Append stores c and recomputes the project aggregate in one transaction
	// that holds the project row lock.
	Append(ctx context.Context, c *model.Contribution, guard ProjectGuard) (*model.Project, error)
	// RemoveByKey deletes the most recently appended contribution at key and
	// recomputes the aggregate. It returns a nil contribution when nothing matched.
	RemoveByKey(ctx context.Context, projectID uuid.UUID, key canvas.GridKey, guard ProjectGuard) (*model.Contribution, *model.Project, error)
	// List returns contributions in log order, after afterID, up to limit (0 means all).
	List(ctx context.Context, projectID uuid.UUID, afterID int64, limit int) ([]*model.Contribution, error)
	ListContributors(ctx context.Context, projectID uuid.UUID) ([]*model.Contributor, error)
}

type contributionRepo struct{ db *gorm.DB }

func NewContributionRepo(db *gorm.DB) ContributionRepo {
	return &contributionRepo{db: db}
}

func (r *contributionRepo) Append(ctx context.Context, c *model.Contribution, guard ProjectGuard) (*model.Project, error) {
	var out *model.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, c.ProjectID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(p); err != nil {
				return err
			}
		}
		if err := tx.Create(c).Error; err != nil {
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

func (r *contributionRepo) RemoveByKey(ctx context.Context, projectID uuid.UUID, key canvas.GridKey, guard ProjectGuard) (*model.Contribution, *model.Project, error) {
	var (
		removed *model.Contribution
		out     *model.Project
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProject(tx, projectID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(p); err != nil {
				return err
			}
		}
		out = p

		var c model.Contribution
		err = tx.Where("project_id = ? AND grid_col = ? AND grid_row = ?", projectID, key.Col, key.Row).
			Order("id DESC").
			First(&c).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(&c).Error; err != nil {
			return err
		}
		if _, err := recompute(tx, p); err != nil {
			return err
		}
		removed = &c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return removed, out, nil
}

func (r *contributionRepo) List(ctx context.Context, projectID uuid.UUID, afterID int64, limit int) ([]*model.Contribution, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}
	q = q.Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var items []*model.Contribution
	return items, q.Find(&items).Error
}

func (r *contributionRepo) ListContributors(ctx context.Context, projectID uuid.UUID) ([]*model.Contributor, error) {
	var out []*model.Contributor
	err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Select("author_id, MAX(author_name) AS author_name, MAX(author_avatar) AS author_avatar, COUNT(*) AS contributions").
		Where("project_id = ?", projectID).
		Group("author_id").
		Order("contributions DESC, MIN(id) ASC").
		Scan(&out).Error
	return out, err
}
