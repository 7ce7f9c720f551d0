package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/httpclient"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/realtime"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Live is a connected realtime session.
type Live interface {
	Send(f realtime.Frame) error
	Receive() (realtime.Frame, error)
	Close() error
}

// Fallback is the request/response path used when no live session is up,
// and for resyncs.
type Fallback interface {
	Submit(ctx context.Context, req httpclient.SubmitRequest) (*httpclient.SubmitResult, error)
	ListAll(ctx context.Context, projectID uuid.UUID) ([]*model.Contribution, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error)
}

// Client applies a viewer's changes optimistically and reconciles them, and
// everyone else's, with the server.
type Client struct {
	projectID  uuid.UUID
	canvasType canvas.Type
	authorID   uuid.UUID
	view       *View
	fallback   Fallback
	log        *zap.Logger

	mu       sync.Mutex
	live     Live
	inflight map[string]httpclient.SubmitRequest
	onReject func(Rejection)
	onChange func()
}

func NewClient(projectID uuid.UUID, canvasType canvas.Type, authorID uuid.UUID, fallback Fallback, log *zap.Logger) *Client {
	return &Client{
		projectID:  projectID,
		canvasType: canvasType,
		authorID:   authorID,
		view:       NewView(),
		fallback:   fallback,
		log:        log,
		inflight:   make(map[string]httpclient.SubmitRequest),
	}
}

func (c *Client) View() *View { return c.view }

// OnReject registers a callback for revoked local changes.
func (c *Client) OnReject(fn func(Rejection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReject = fn
}

// OnChange registers a callback run after every change to the view.
func (c *Client) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live != nil
}

// Add validates payload, applies it locally and submits it. The returned
// client ref identifies the change in later rejections.
func (c *Client) Add(ctx context.Context, payload json.RawMessage) (string, error) {
	p, err := canvas.Decode(c.canvasType, payload)
	if err != nil {
		return "", err
	}
	if note, ok := p.(canvas.GridNote); ok && note.IsRemoval() {
		return c.Remove(ctx, note.Key())
	}

	ref := uuid.NewString()
	c.view.ApplyAdd(ref, &model.Contribution{
		ProjectID:  c.projectID,
		AuthorID:   c.authorID,
		CanvasType: c.canvasType,
		Payload:    datatypes.JSON(payload),
		CreatedAt:  time.Now().UTC(),
	})
	c.changed()
	return ref, c.submit(ctx, ref, payload)
}

// Remove hides the entry at key locally and submits the removal. Only
// toggle-capable canvases support it.
func (c *Client) Remove(ctx context.Context, key canvas.GridKey) (string, error) {
	if !c.canvasType.Toggleable() {
		return "", fmt.Errorf("%w: %s contributions cannot be removed", canvas.ErrInvalidPayload, c.canvasType)
	}
	payload, err := json.Marshal(map[string]any{"col": key.Col, "row": key.Row, "remove": true})
	if err != nil {
		return "", err
	}

	ref := uuid.NewString()
	c.view.ApplyRemove(ref, key)
	c.changed()
	return ref, c.submit(ctx, ref, payload)
}

func (c *Client) submit(ctx context.Context, ref string, payload json.RawMessage) error {
	req := httpclient.SubmitRequest{
		ProjectID:  c.projectID,
		AuthorID:   c.authorID,
		CanvasType: c.canvasType,
		Payload:    payload,
		ClientRef:  ref,
	}

	c.mu.Lock()
	live := c.live
	c.inflight[ref] = req
	c.mu.Unlock()

	if live != nil {
		f, err := realtime.NewFrame(realtime.FrameSubmit, ref, realtime.SubmitPayload{
			ProjectID:  req.ProjectID,
			AuthorID:   req.AuthorID,
			CanvasType: req.CanvasType,
			Payload:    req.Payload,
			ClientRef:  ref,
		})
		if err == nil {
			if err = live.Send(f); err == nil {
				return nil
			}
		}
		c.log.Warn("live submit failed, using fallback", zap.String("client_ref", ref), zap.Error(err))
		c.detach(live)
	}
	return c.submitFallback(ctx, req)
}

func (c *Client) submitFallback(ctx context.Context, req httpclient.SubmitRequest) error {
	res, err := c.fallback.Submit(ctx, req)
	c.forget(req.ClientRef)
	if err != nil {
		rej := rejectionFromHTTP(req.ClientRef, err)
		c.reject(rej)
		return rej
	}
	c.applyResult(req.ClientRef, res.Contribution, res.Removed, res.RemovedID, res.Noop, res.Project)
	return nil
}

func (c *Client) applyResult(ref string, added *model.Contribution, removed *canvas.GridKey, removedID int64, noop bool, project *model.Project) {
	switch {
	case added != nil:
		c.view.Added(added, ref)
	case removed != nil && noop:
		c.view.Settle(ref)
	case removed != nil:
		c.view.Removed(*removed, removedID, ref)
	}
	c.view.SetProject(project)
	c.changed()
}

func (c *Client) reject(rej Rejection) {
	c.view.Rollback(rej.ClientRef)
	c.changed()

	c.mu.Lock()
	fn := c.onReject
	c.mu.Unlock()
	if fn != nil {
		fn(rej)
	}
}

func (c *Client) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) forget(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, ref)
}

func (c *Client) takeInflight(ref string) (httpclient.SubmitRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.inflight[ref]
	delete(c.inflight, ref)
	return req, ok
}

// HandleFrame applies one server frame to the view.
func (c *Client) HandleFrame(ctx context.Context, f realtime.Frame) {
	var err error
	switch f.Type {
	case realtime.FrameJoined:
		var p realtime.JoinedPayload
		if err = f.Decode(&p); err == nil {
			c.view.SetProject(p.Project)
			c.changed()
		}
	case realtime.FrameAdded:
		var p realtime.AddedPayload
		if err = f.Decode(&p); err == nil {
			c.forget(p.ClientRef)
			if c.view.Added(p.Contribution, p.ClientRef) {
				c.changed()
			}
		}
	case realtime.FrameRemoved:
		var p realtime.RemovedPayload
		if err = f.Decode(&p); err == nil && p.Key != nil {
			c.forget(p.ClientRef)
			if c.view.Removed(*p.Key, p.ContributionID, p.ClientRef) {
				c.changed()
			}
		}
	case realtime.FrameProjectUpdated:
		var p realtime.ProjectUpdatedPayload
		if err = f.Decode(&p); err == nil {
			c.view.SetProject(p.Project)
			c.changed()
		}
	case realtime.FrameAck:
		if len(f.Payload) == 0 {
			return
		}
		var p realtime.AckPayload
		if err = f.Decode(&p); err == nil {
			ref := p.ClientRef
			if ref == "" {
				ref = f.RequestID
			}
			c.forget(ref)
			c.applyResult(ref, p.Contribution, p.Removed, p.RemovedID, p.Noop, p.Project)
		}
	case realtime.FrameError:
		var p realtime.ErrorPayload
		if err = f.Decode(&p); err == nil {
			c.handleError(ctx, f.RequestID, p)
		}
	default:
		c.log.Debug("ignoring frame", zap.String("type", f.Type))
	}
	if err != nil {
		c.log.Warn("decode frame", zap.String("type", f.Type), zap.Error(err))
	}
}

// handleError rolls back the change the error refers to. A retryable store
// failure is resent once through the fallback path first.
func (c *Client) handleError(ctx context.Context, requestID string, e realtime.ErrorPayload) {
	ref := e.ClientRef
	if ref == "" {
		ref = requestID
	}
	if ref == "" || !c.view.IsPending(ref) {
		c.log.Warn("realtime error", zap.String("code", e.Code), zap.String("message", e.Message))
		return
	}

	req, ok := c.takeInflight(ref)
	if ok && e.Retryable && e.Code == service.CodeUnavailable {
		go func() {
			_ = c.submitFallback(ctx, req)
		}()
		return
	}
	c.reject(rejectionFromFrame(ref, e))
}

// Listen joins the project on live and applies incoming frames until the
// session ends or ctx is done.
func (c *Client) Listen(ctx context.Context, live Live) error {
	c.mu.Lock()
	c.live = live
	c.mu.Unlock()
	defer c.detach(live)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = live.Close()
		case <-done:
		}
	}()

	join, err := realtime.NewFrame(realtime.FrameJoin, "join", realtime.JoinPayload{ProjectID: c.projectID})
	if err != nil {
		return err
	}
	if err := live.Send(join); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	for {
		f, err := live.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.HandleFrame(ctx, f)
	}
}

func (c *Client) detach(live Live) {
	c.mu.Lock()
	if c.live == live {
		c.live = nil
	}
	c.mu.Unlock()
	_ = live.Close()
}

// Resync replaces the view with the authoritative listing.
func (c *Client) Resync(ctx context.Context) error {
	items, err := c.fallback.ListAll(ctx, c.projectID)
	if err != nil {
		return fmt.Errorf("list contributions: %w", err)
	}
	project, err := c.fallback.GetProject(ctx, c.projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	c.mu.Lock()
	c.inflight = make(map[string]httpclient.SubmitRequest)
	c.mu.Unlock()

	c.view.Replace(items, project)
	c.changed()
	return nil
}

// Run loads the view, then resyncs every interval while no live session is
// connected. It returns when ctx is done.
func (c *Client) Run(ctx context.Context, interval time.Duration) error {
	if err := c.Resync(ctx); err != nil {
		c.log.Warn("initial resync", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if c.Connected() {
				continue
			}
			if err := c.Resync(ctx); err != nil {
				c.log.Warn("resync", zap.Error(err))
			}
		}
	}
}
