package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/db/dbtest"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/httpclient"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/keylock"
	"github.com/mianjunaid1223/Collab-Studio/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const stitchPayload = `{"start":{"x":10,"y":10},"end":{"x":120,"y":80},"color":"#aa3300","width":3}`

type MockFallback struct {
	mock.Mock
}

func (m *MockFallback) Submit(ctx context.Context, req httpclient.SubmitRequest) (*httpclient.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*httpclient.SubmitResult), args.Error(1)
}

func (m *MockFallback) ListAll(ctx context.Context, projectID uuid.UUID) ([]*model.Contribution, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Contribution), args.Error(1)
}

func (m *MockFallback) GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

// fakeLive records sent frames and replays queued ones.
type fakeLive struct {
	mu      sync.Mutex
	sent    []realtime.Frame
	sendErr error
	inbox   chan realtime.Frame
	closed  chan struct{}
	once    sync.Once
}

func newFakeLive() *fakeLive {
	return &fakeLive{inbox: make(chan realtime.Frame, 16), closed: make(chan struct{})}
}

func (f *fakeLive) Send(fr realtime.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, fr)
	return nil
}

func (f *fakeLive) Receive() (realtime.Frame, error) {
	select {
	case fr := <-f.inbox:
		return fr, nil
	case <-f.closed:
		return realtime.Frame{}, errors.New("closed")
	}
}

func (f *fakeLive) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeLive) sentTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, fr := range f.sent {
		out = append(out, fr.Type)
	}
	return out
}

func frame(t *testing.T, typ, requestID string, payload any) realtime.Frame {
	t.Helper()
	f, err := realtime.NewFrame(typ, requestID, payload)
	require.NoError(t, err)
	return f
}

// attach starts Listen on live and waits for the join frame.
func attach(t *testing.T, c *Client, live *fakeLive) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Listen(ctx, live) }()
	require.Eventually(t, func() bool {
		return c.Connected() && len(live.sentTypes()) > 0
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, realtime.FrameJoin, live.sentTypes()[0])
}

func TestClient_FallbackSubmit(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	fb := &MockFallback{}
	c := NewClient(projectID, canvas.Embroidery, uuid.New(), fb, zap.NewNop())

	committed := &model.Contribution{ID: 41, ProjectID: projectID, CanvasType: canvas.Embroidery}
	project := &model.Project{ID: projectID, CompletionPercentage: 10}
	fb.On("Submit", ctx, mock.MatchedBy(func(req httpclient.SubmitRequest) bool {
		return req.ProjectID == projectID && req.ClientRef != "" && string(req.Payload) == stitchPayload
	})).Return(&httpclient.SubmitResult{Contribution: committed, Project: project}, nil).Once()

	ref, err := c.Add(ctx, json.RawMessage(stitchPayload))
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	entries := c.View().Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, int64(41), entries[0].Contribution.ID)
	assert.Equal(t, 10, c.View().Project().CompletionPercentage)
	fb.AssertExpectations(t)
}

func TestClient_FallbackRejectionRollsBack(t *testing.T) {
	ctx := context.Background()
	fb := &MockFallback{}
	c := NewClient(uuid.New(), canvas.Embroidery, uuid.New(), fb, zap.NewNop())

	var got []Rejection
	c.OnReject(func(r Rejection) { got = append(got, r) })

	fb.On("Submit", ctx, mock.Anything).Return(nil, &httpclient.APIError{Status: http.StatusConflict, Msg: "project is not accepting contributions"}).Once()

	ref, err := c.Add(ctx, json.RawMessage(stitchPayload))
	var rej Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, service.CodeNotAccepting, rej.Code)
	assert.Equal(t, ref, rej.ClientRef)
	assert.NotEmpty(t, rej.Reason)

	assert.Equal(t, 0, c.View().Len())
	require.Len(t, got, 1)
	assert.Equal(t, rej, got[0])
}

func TestClient_InvalidPayloadNeverApplied(t *testing.T) {
	fb := &MockFallback{}
	c := NewClient(uuid.New(), canvas.Embroidery, uuid.New(), fb, zap.NewNop())

	_, err := c.Add(context.Background(), json.RawMessage(`{"start":{"x":1,"y":1}}`))
	assert.ErrorIs(t, err, canvas.ErrInvalidPayload)
	assert.Equal(t, 0, c.View().Len())
	fb.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestClient_RemoveNotToggleable(t *testing.T) {
	c := NewClient(uuid.New(), canvas.Mosaic, uuid.New(), &MockFallback{}, zap.NewNop())
	_, err := c.Remove(context.Background(), canvas.GridKey{Col: 1, Row: 1})
	assert.ErrorIs(t, err, canvas.ErrInvalidPayload)
}

func TestClient_FallbackRemoveKeepsOlderNoteAtKey(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	fb := &MockFallback{}
	c := NewClient(projectID, canvas.AudioVisual, uuid.New(), fb, zap.NewNop())
	c.View().Replace([]*model.Contribution{note(1, 2, 3), note(2, 2, 3)}, &model.Project{ID: projectID})

	key := canvas.GridKey{Col: 2, Row: 3}
	fb.On("Submit", ctx, mock.Anything).Return(&httpclient.SubmitResult{
		Removed:   &key,
		RemovedID: 2,
		Project:   &model.Project{ID: projectID},
	}, nil).Once()

	_, err := c.Remove(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, ids(c.View().Entries()))
	fb.AssertExpectations(t)
}

func TestClient_LiveEchoThenAck(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	c := NewClient(projectID, canvas.Embroidery, uuid.New(), &MockFallback{}, zap.NewNop())
	live := newFakeLive()
	attach(t, c, live)

	ref, err := c.Add(ctx, json.RawMessage(stitchPayload))
	require.NoError(t, err)
	assert.Equal(t, []string{realtime.FrameJoin, realtime.FrameSubmit}, live.sentTypes())
	assert.True(t, c.View().IsPending(ref))

	committed := &model.Contribution{ID: 5, ProjectID: projectID, CanvasType: canvas.Embroidery}
	c.HandleFrame(ctx, frame(t, realtime.FrameAdded, "", realtime.AddedPayload{Contribution: committed, ClientRef: ref}))
	c.HandleFrame(ctx, frame(t, realtime.FrameProjectUpdated, "", realtime.ProjectUpdatedPayload{Project: &model.Project{ID: projectID, ContributorCount: 1}}))
	c.HandleFrame(ctx, frame(t, realtime.FrameAck, ref, realtime.AckPayload{ClientRef: ref, Contribution: committed}))

	entries := c.View().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].Contribution.ID)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, 1, c.View().Project().ContributorCount)
}

func TestClient_LiveErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	c := NewClient(uuid.New(), canvas.AudioVisual, uuid.New(), &MockFallback{}, zap.NewNop())
	live := newFakeLive()
	attach(t, c, live)

	var got []Rejection
	c.OnReject(func(r Rejection) { got = append(got, r) })

	ref, err := c.Add(ctx, json.RawMessage(`{"col":1,"row":2,"waveform":"square"}`))
	require.NoError(t, err)
	c.HandleFrame(ctx, frame(t, realtime.FrameError, ref, realtime.ErrorPayload{
		Code:      service.CodeTypeMismatch,
		Message:   "canvas type does not match the project",
		ClientRef: ref,
	}))

	assert.Equal(t, 0, c.View().Len())
	require.Len(t, got, 1)
	assert.Equal(t, service.CodeTypeMismatch, got[0].Code)
	assert.Equal(t, "this contribution does not fit the canvas", got[0].Reason)
}

func TestClient_RetryableErrorUsesFallback(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	fb := &MockFallback{}
	c := NewClient(projectID, canvas.Embroidery, uuid.New(), fb, zap.NewNop())
	live := newFakeLive()
	attach(t, c, live)

	committed := &model.Contribution{ID: 9, ProjectID: projectID, CanvasType: canvas.Embroidery}
	fb.On("Submit", mock.Anything, mock.Anything).Return(&httpclient.SubmitResult{Contribution: committed}, nil).Once()

	ref, err := c.Add(ctx, json.RawMessage(stitchPayload))
	require.NoError(t, err)
	c.HandleFrame(ctx, frame(t, realtime.FrameError, ref, realtime.ErrorPayload{
		Code:      service.CodeUnavailable,
		Retryable: true,
		ClientRef: ref,
	}))

	require.Eventually(t, func() bool { return c.View().Confirmed() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, c.View().IsPending(ref))
	fb.AssertExpectations(t)
}

func TestClient_SendFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.New()
	fb := &MockFallback{}
	c := NewClient(projectID, canvas.Embroidery, uuid.New(), fb, zap.NewNop())
	live := newFakeLive()
	attach(t, c, live)
	live.mu.Lock()
	live.sendErr = errors.New("broken pipe")
	live.mu.Unlock()

	fb.On("Submit", ctx, mock.Anything).Return(&httpclient.SubmitResult{Contribution: &model.Contribution{ID: 3}}, nil).Once()

	_, err := c.Add(ctx, json.RawMessage(stitchPayload))
	require.NoError(t, err)
	assert.False(t, c.Connected())
	assert.Equal(t, 1, c.View().Confirmed())
}

func TestClient_ResyncWhileDisconnected(t *testing.T) {
	projectID := uuid.New()
	fb := &MockFallback{}
	c := NewClient(projectID, canvas.Embroidery, uuid.New(), fb, zap.NewNop())

	first := []*model.Contribution{{ID: 1}}
	second := []*model.Contribution{{ID: 1}, {ID: 2}, {ID: 3}}
	project := &model.Project{ID: projectID}
	fb.On("ListAll", mock.Anything, projectID).Return(first, nil).Once()
	fb.On("ListAll", mock.Anything, projectID).Return(second, nil)
	fb.On("GetProject", mock.Anything, projectID).Return(project, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx, 20*time.Millisecond) }()

	require.Eventually(t, func() bool { return c.View().Confirmed() == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, project, c.View().Project())
}

// serviceFallback serves the request/response path straight from the services.
type serviceFallback struct {
	author        *model.Author
	contributions service.ContributionService
	projects      service.ProjectService
}

func (s *serviceFallback) Submit(ctx context.Context, req httpclient.SubmitRequest) (*httpclient.SubmitResult, error) {
	out, err := s.contributions.Submit(ctx, service.SubmitInput{
		ProjectID:  req.ProjectID,
		Author:     s.author,
		AuthorID:   req.AuthorID,
		CanvasType: req.CanvasType,
		Payload:    req.Payload,
		ClientRef:  req.ClientRef,
	})
	if err != nil {
		return nil, err
	}
	return &httpclient.SubmitResult{
		Contribution: out.Contribution,
		Removed:      out.Removed,
		RemovedID:    out.RemovedID,
		Project:      out.Project,
		Noop:         out.Noop,
	}, nil
}

func (s *serviceFallback) ListAll(ctx context.Context, projectID uuid.UUID) ([]*model.Contribution, error) {
	return s.contributions.List(ctx, projectID)
}

func (s *serviceFallback) GetProject(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	return s.projects.Get(ctx, projectID)
}

func TestClient_ScenarioTwoSessions(t *testing.T) {
	cfg := &config.Config{
		Root: config.RootCfg{AuthorBearerTokenPrefix: "sk-author-", SecretPepper: "pepper"},
		Realtime: config.RealtimeCfg{
			SendBuffer:         64,
			MaxFramesPerSecond: 100,
			MaxFrameBytes:      64 * 1024,
		},
	}
	gdb := dbtest.New(t)
	log := zap.NewNop()
	hub := realtime.NewHub(log)
	locks := keylock.New()
	projectRepo := repo.NewProjectRepo(gdb)
	projects := service.NewProjectService(projectRepo, locks, hub, log)
	contributions := service.NewContributionService(repo.NewContributionRepo(gdb), projectRepo, locks, hub, nil, cfg, log)
	authors := service.NewAuthorService(repo.NewAuthorRepo(gdb), cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/ws", realtime.NewGateway(hub, contributions, projects, authors, cfg, log))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	project, err := projects.Create(ctx, service.CreateProjectInput{Title: "Sampler", CanvasType: string(canvas.Embroidery), MaxContributions: 10})
	require.NoError(t, err)

	session := func(name string) *Client {
		out, err := authors.Create(ctx, service.CreateAuthorInput{Name: name})
		require.NoError(t, err)
		c := NewClient(project.ID, canvas.Embroidery, out.Author.ID, &serviceFallback{
			author:        out.Author,
			contributions: contributions,
			projects:      projects,
		}, log)
		require.NoError(t, c.Resync(ctx))

		live, err := DialWS(ctx, srv.URL, out.Token)
		require.NoError(t, err)
		go func() { _ = c.Listen(ctx, live) }()
		require.Eventually(t, func() bool { return hub.Members(project.ID) > 0 && c.View().Project() != nil }, 2*time.Second, 10*time.Millisecond)
		return c
	}

	a := session("alice")
	b := session("bob")
	require.Eventually(t, func() bool { return hub.Members(project.ID) == 2 }, 2*time.Second, 10*time.Millisecond)

	before := b.View().Len()

	_, err = a.Add(ctx, json.RawMessage(stitchPayload))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return b.View().Len() == before+1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return a.View().Confirmed() == 1 && a.View().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	// nothing else arrives for b
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before+1, b.View().Len())
	assert.Equal(t, 1, b.View().Confirmed())
	assert.Equal(t, 1, a.View().Len())
	assert.Equal(t, a.View().Entries()[0].Contribution.ID, b.View().Entries()[0].Contribution.ID)
	assert.Equal(t, 1, b.View().Project().ContributorCount)
}
