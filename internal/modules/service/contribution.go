package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/keylock"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/paging"
	"github.com/mianjunaid1223/Collab-Studio/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Broadcaster fans committed events out to the sessions joined to a project.
// Broadcast is called inside the project critical section, so implementations
// must only enqueue and never wait on a session.
type Broadcaster interface {
	Broadcast(ctx context.Context, projectID uuid.UUID, events []model.CanvasEvent) error
}

// EventPublisher forwards committed events to other services.
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error
}

type ContributionService interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error)
	// List returns the full ordered contribution sequence of a project.
	List(ctx context.Context, projectID uuid.UUID) ([]*model.Contribution, error)
	ListPage(ctx context.Context, in ListContributionsInput) (*ListContributionsOutput, error)
	Contributors(ctx context.Context, projectID uuid.UUID) ([]*model.Contributor, error)
}

type contributionService struct {
	contributions repo.ContributionRepo
	projects      repo.ProjectRepo
	locks         *keylock.Map
	broadcaster   Broadcaster
	publisher     EventPublisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewContributionService(
	contributions repo.ContributionRepo,
	projects repo.ProjectRepo,
	locks *keylock.Map,
	broadcaster Broadcaster,
	publisher EventPublisher,
	cfg *config.Config,
	log *zap.Logger,
) ContributionService {
	return &contributionService{
		contributions: contributions,
		projects:      projects,
		locks:         locks,
		broadcaster:   broadcaster,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

type SubmitInput struct {
	ProjectID uuid.UUID `json:"project_id"`
	// Author is the authenticated submitter; nil means the request carried no valid credentials.
	Author *model.Author `json:"-"`
	// AuthorID, when set by the client, must name Author.
	AuthorID   uuid.UUID       `json:"author_id"`
	CanvasType canvas.Type     `json:"canvas_type"`
	Payload    json.RawMessage `json:"payload"`
	ClientRef  string          `json:"client_ref,omitempty"`
}

type SubmitOutput struct {
	Contribution *model.Contribution `json:"contribution,omitempty"`
	Removed      *canvas.GridKey     `json:"removed,omitempty"`
	// RemovedID is the id of the entry a removal deleted.
	RemovedID int64          `json:"removed_id,omitempty"`
	Project   *model.Project `json:"project"`
	// Noop is set when a removal matched nothing.
	Noop bool `json:"noop,omitempty"`
}

type ListContributionsInput struct {
	ProjectID uuid.UUID `json:"project_id"`
	Limit     int       `json:"limit"`
	Cursor    string    `json:"cursor"`
}

type ListContributionsOutput struct {
	Items      []*model.Contribution `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
}

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Submit validates and commits one contribution, or a removal for
// toggle-capable canvases, then broadcasts the change to the project room.
// The commit is not tied to ctx cancellation: a submitter that disconnects
// mid-request still gets a whole commit or none.
func (s *contributionService) Submit(ctx context.Context, in SubmitInput) (*SubmitOutput, error) {
	start := time.Now()
	out, events, err := s.submit(context.WithoutCancel(ctx), in)

	outcome := "added"
	switch {
	case err != nil:
		outcome = Code(err)
	case out.Noop:
		outcome = "noop"
	case out.Removed != nil:
		outcome = "removed"
	}
	telemetry.RecordSubmit(ctx, string(in.CanvasType), outcome, float64(time.Since(start).Microseconds())/1000)

	if err != nil {
		if Code(err) == CodeInternal || Retryable(err) {
			s.log.Sugar().Errorw("submit contribution", "project_id", in.ProjectID, "err", err)
		}
		return nil, err
	}
	s.publish(ctx, events)
	return out, nil
}

func (s *contributionService) submit(ctx context.Context, in SubmitInput) (*SubmitOutput, []model.CanvasEvent, error) {
	if in.Author == nil || (in.AuthorID != uuid.Nil && in.AuthorID != in.Author.ID) {
		return nil, nil, ErrUnauthenticated
	}

	payload, decodeErr := canvas.Decode(in.CanvasType, in.Payload)

	// status, then canvas type, then payload shape
	guard := func(p *model.Project) error {
		if !p.AcceptsContributions() {
			return fmt.Errorf("%w: status is %s", ErrProjectNotAcceptingContributions, p.Status)
		}
		if p.CanvasType != in.CanvasType {
			return fmt.Errorf("%w: project is %s, got %q", ErrTypeMismatch, p.CanvasType, in.CanvasType)
		}
		return decodeErr
	}

	unlock := s.locks.Lock(in.ProjectID.String())
	defer unlock()

	if note, ok := payload.(canvas.GridNote); ok && note.IsRemoval() {
		return s.remove(ctx, in, note.Key(), guard)
	}

	c := &model.Contribution{
		ProjectID:    in.ProjectID,
		AuthorID:     in.Author.ID,
		AuthorName:   in.Author.Name,
		AuthorAvatar: in.Author.Avatar,
		CanvasType:   in.CanvasType,
		Payload:      datatypes.JSON(in.Payload),
	}
	if payload != nil {
		raw, err := canvas.Encode(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		c.Payload = datatypes.JSON(raw)
		if note, ok := payload.(canvas.GridNote); ok {
			c.GridCol, c.GridRow = note.Col, note.Row
		}
	}

	project, err := s.contributions.Append(ctx, c, guard)
	if err != nil {
		return nil, nil, storeErr(err)
	}

	events := []model.CanvasEvent{
		{Kind: model.EventAdded, ProjectID: in.ProjectID, Contribution: c, ClientRef: in.ClientRef},
		{Kind: model.EventProjectUpdated, ProjectID: in.ProjectID, Project: project},
	}
	s.broadcast(ctx, in.ProjectID, events)
	return &SubmitOutput{Contribution: c, Project: project}, events, nil
}

func (s *contributionService) remove(ctx context.Context, in SubmitInput, key canvas.GridKey, guard repo.ProjectGuard) (*SubmitOutput, []model.CanvasEvent, error) {
	removed, project, err := s.contributions.RemoveByKey(ctx, in.ProjectID, key, guard)
	if err != nil {
		return nil, nil, storeErr(err)
	}

	out := &SubmitOutput{Removed: &key, Project: project}
	if removed == nil {
		out.Noop = true
		return out, nil, nil
	}
	out.RemovedID = removed.ID

	events := []model.CanvasEvent{
		{Kind: model.EventRemoved, ProjectID: in.ProjectID, Contribution: removed, Key: &key, ClientRef: in.ClientRef},
		{Kind: model.EventProjectUpdated, ProjectID: in.ProjectID, Project: project},
	}
	s.broadcast(ctx, in.ProjectID, events)
	return out, events, nil
}

// broadcast runs after the commit; a failure here loses live delivery only,
// which clients recover from on their next resync.
func (s *contributionService) broadcast(ctx context.Context, projectID uuid.UUID, events []model.CanvasEvent) {
	if s.broadcaster == nil || len(events) == 0 {
		return
	}
	if err := s.broadcaster.Broadcast(ctx, projectID, events); err != nil {
		s.log.Sugar().Warnw("broadcast contribution events", "project_id", projectID, "err", err)
	}
}

func (s *contributionService) publish(ctx context.Context, events []model.CanvasEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		key := routingKey(s.cfg, ev.Kind)
		if err := s.publisher.PublishJSON(ctx, s.cfg.RabbitMQ.ExchangeName.Contribution, key, ev); err != nil {
			s.log.Sugar().Warnw("publish contribution event", "project_id", ev.ProjectID, "kind", ev.Kind, "err", err)
		}
	}
}

func routingKey(cfg *config.Config, kind model.EventKind) string {
	switch kind {
	case model.EventAdded:
		return cfg.RabbitMQ.RoutingKey.ContributionAdded
	case model.EventRemoved:
		return cfg.RabbitMQ.RoutingKey.ContributionRemoved
	}
	return cfg.RabbitMQ.RoutingKey.ProjectUpdated
}

// storeErr keeps guard and lookup failures as they are and reports anything
// else from the store as transient.
func storeErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrProjectNotFound
	case errors.Is(err, ErrProjectNotAcceptingContributions),
		errors.Is(err, ErrTypeMismatch),
		errors.Is(err, ErrInvalidPayload),
		errors.Is(err, ErrInvalidStatusTransition):
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransientStore, err)
}

func (s *contributionService) List(ctx context.Context, projectID uuid.UUID) ([]*model.Contribution, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, storeErr(err)
	}
	items, err := s.contributions.List(ctx, projectID, 0, 0)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

func (s *contributionService) ListPage(ctx context.Context, in ListContributionsInput) (*ListContributionsOutput, error) {
	var afterID int64
	if in.Cursor != "" {
		var err error
		if afterID, err = paging.DecodeCursor(in.Cursor); err != nil {
			return nil, err
		}
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if _, err := s.projects.Get(ctx, in.ProjectID); err != nil {
		return nil, storeErr(err)
	}
	items, err := s.contributions.List(ctx, in.ProjectID, afterID, limit+1)
	if err != nil {
		return nil, storeErr(err)
	}

	out := &ListContributionsOutput{Items: items}
	if len(items) > limit {
		out.HasMore = true
		out.Items = items[:limit]
		out.NextCursor = paging.EncodeCursor(out.Items[limit-1].ID)
	}
	return out, nil
}

func (s *contributionService) Contributors(ctx context.Context, projectID uuid.UUID) ([]*model.Contributor, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, storeErr(err)
	}
	out, err := s.contributions.ListContributors(ctx, projectID)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}
