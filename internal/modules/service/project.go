package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/keylock"
	"go.uber.org/zap"
)

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// UpdateStatus is the privileged status change. Status never moves back to Active.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProjectStatus) (*model.Project, error)
	// Recompute rebuilds the aggregate from the stored contributions.
	Recompute(ctx context.Context, id uuid.UUID) (*model.Project, error)
}

type projectService struct {
	r           repo.ProjectRepo
	locks       *keylock.Map
	broadcaster Broadcaster
	log         *zap.Logger
}

func NewProjectService(r repo.ProjectRepo, locks *keylock.Map, broadcaster Broadcaster, log *zap.Logger) ProjectService {
	return &projectService{r: r, locks: locks, broadcaster: broadcaster, log: log}
}

type CreateProjectInput struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CanvasType       string     `json:"canvas_type"`
	MaxContributions int        `json:"max_contributions"`
	CreatedBy        *uuid.UUID `json:"created_by,omitempty"`
	CreatorName      string     `json:"creator_name,omitempty"`
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	p := &model.Project{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		CanvasType:       canvas.Type(in.CanvasType),
		MaxContributions: in.MaxContributions,
		Status:           model.ProjectStatusActive,
		CreatedBy:        in.CreatedBy,
		CreatorName:      in.CreatorName,
	}
	switch {
	case p.Title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidProject)
	case !p.CanvasType.Valid():
		return nil, fmt.Errorf("%w: unknown canvas type %q", ErrInvalidProject, in.CanvasType)
	case p.MaxContributions <= 0:
		return nil, fmt.Errorf("%w: max_contributions must be positive", ErrInvalidProject)
	}

	if err := s.r.Create(ctx, p); err != nil {
		return nil, storeErr(err)
	}
	s.log.Sugar().Infow("project created", "project_id", p.ID, "canvas_type", p.CanvasType, "max_contributions", p.MaxContributions)
	return p, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return p, nil
}

func (s *projectService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProjectStatus) (*model.Project, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	p, err := s.r.UpdateStatus(context.WithoutCancel(ctx), id, status)
	if err != nil {
		return nil, storeErr(err)
	}
	s.announce(ctx, p)
	s.log.Sugar().Infow("project status changed", "project_id", id, "status", status)
	return p, nil
}

func (s *projectService) Recompute(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	before, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	p, err := s.r.Recompute(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if p.CompletionPercentage != before.CompletionPercentage ||
		p.ContributorCount != before.ContributorCount ||
		p.Status != before.Status {
		s.announce(ctx, p)
	}
	return p, nil
}

func (s *projectService) announce(ctx context.Context, p *model.Project) {
	if s.broadcaster == nil {
		return
	}
	ev := model.CanvasEvent{Kind: model.EventProjectUpdated, ProjectID: p.ID, Project: p}
	if err := s.broadcaster.Broadcast(ctx, p.ID, []model.CanvasEvent{ev}); err != nil {
		s.log.Sugar().Warnw("broadcast project update", "project_id", p.ID, "err", err)
	}
}
