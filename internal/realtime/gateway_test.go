package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/db/dbtest"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/keylock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

func testConfig() *config.Config {
	return &config.Config{
		Root: config.RootCfg{
			AuthorBearerTokenPrefix: "sk-author-",
			SecretPepper:            "pepper",
		},
		Realtime: config.RealtimeCfg{
			ChannelPrefix:      "collab:project:",
			SendBuffer:         64,
			MaxFramesPerSecond: 50,
			MaxFrameBytes:      64 * 1024,
		},
	}
}

type gatewayEnv struct {
	srv      *httptest.Server
	hub      *Hub
	projects service.ProjectService
	authors  service.AuthorService
}

func newGatewayEnv(t *testing.T, cfg *config.Config) *gatewayEnv {
	t.Helper()
	gdb := dbtest.New(t)
	log := zap.NewNop()
	hub := NewHub(log)
	locks := keylock.New()
	projectRepo := repo.NewProjectRepo(gdb)
	projects := service.NewProjectService(projectRepo, locks, hub, log)
	contributions := service.NewContributionService(repo.NewContributionRepo(gdb), projectRepo, locks, hub, nil, cfg, log)
	authors := service.NewAuthorService(repo.NewAuthorRepo(gdb), cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", NewGateway(hub, contributions, projects, authors, cfg, log))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &gatewayEnv{srv: srv, hub: hub, projects: projects, authors: authors}
}

func (e *gatewayEnv) project(t *testing.T, typ canvas.Type, max int) *model.Project {
	t.Helper()
	p, err := e.projects.Create(context.Background(), service.CreateProjectInput{
		Title:            "Live canvas",
		CanvasType:       string(typ),
		MaxContributions: max,
	})
	require.NoError(t, err)
	return p
}

func (e *gatewayEnv) token(t *testing.T, name string) (string, *model.Author) {
	t.Helper()
	out, err := e.authors.Create(context.Background(), service.CreateAuthorInput{Name: name})
	require.NoError(t, err)
	return out.Token, out.Author
}

func (e *gatewayEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, err := websocket.Dial(wsURL, "", e.srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, typ, requestID string, payload any) {
	t.Helper()
	f := Frame{Type: typ, RequestID: requestID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		f.Payload = raw
	}
	require.NoError(t, websocket.JSON.Send(conn, f))
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f Frame
	require.NoError(t, websocket.JSON.Receive(conn, &f))
	return f
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var f Frame
	err := websocket.JSON.Receive(conn, &f)
	assert.Error(t, err, "unexpected frame %s", f.Type)
}

func join(t *testing.T, conn *websocket.Conn, projectID uuid.UUID) {
	t.Helper()
	writeFrame(t, conn, FrameJoin, "join-1", JoinPayload{ProjectID: projectID})
	f := readFrame(t, conn)
	require.Equal(t, FrameJoined, f.Type)
	require.Equal(t, "join-1", f.RequestID)
}

func TestGateway_RejectsMissingToken(t *testing.T) {
	env := newGatewayEnv(t, testConfig())

	resp, err := http.Get(env.srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(env.srv.URL + "/ws?token=sk-author-unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateway_SubmitBroadcastsToRoom(t *testing.T) {
	env := newGatewayEnv(t, testConfig())
	p := env.project(t, canvas.Mosaic, 4)

	tokA, authorA := env.token(t, "alice")
	tokB, _ := env.token(t, "bob")
	connA := env.dial(t, tokA)
	connB := env.dial(t, tokB)
	join(t, connA, p.ID)
	join(t, connB, p.ID)
	require.Eventually(t, func() bool { return env.hub.Members(p.ID) == 2 }, time.Second, 10*time.Millisecond)

	writeFrame(t, connA, FrameSubmit, "req-1", SubmitPayload{
		ProjectID:  p.ID,
		CanvasType: canvas.Mosaic,
		Payload:    json.RawMessage(`{"x":1,"y":2,"color":"#ff0000","shape":"Circle"}`),
		ClientRef:  "local-1",
	})

	// submitter sees the broadcast before its ack
	added := readFrame(t, connA)
	require.Equal(t, FrameAdded, added.Type)
	var ap AddedPayload
	require.NoError(t, json.Unmarshal(added.Payload, &ap))
	assert.Equal(t, "local-1", ap.ClientRef)
	assert.Equal(t, authorA.ID, ap.Contribution.AuthorID)

	updated := readFrame(t, connA)
	require.Equal(t, FrameProjectUpdated, updated.Type)
	var up ProjectUpdatedPayload
	require.NoError(t, json.Unmarshal(updated.Payload, &up))
	assert.Equal(t, 25, up.Project.CompletionPercentage)
	assert.Equal(t, 1, up.Project.ContributorCount)

	ack := readFrame(t, connA)
	require.Equal(t, FrameAck, ack.Type)
	assert.Equal(t, "req-1", ack.RequestID)
	var ackp AckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ackp))
	assert.Equal(t, ap.Contribution.ID, ackp.Contribution.ID)

	// other session gets the same frames, client_ref included
	f := readFrame(t, connB)
	require.Equal(t, FrameAdded, f.Type)
	var bp AddedPayload
	require.NoError(t, json.Unmarshal(f.Payload, &bp))
	assert.Equal(t, ap.Contribution.ID, bp.Contribution.ID)
	assert.Equal(t, "local-1", bp.ClientRef)
	assert.Equal(t, FrameProjectUpdated, readFrame(t, connB).Type)
	expectSilence(t, connB)
}

func TestGateway_ErrorsGoToSubmitterOnly(t *testing.T) {
	env := newGatewayEnv(t, testConfig())
	p := env.project(t, canvas.Mosaic, 4)
	_, err := env.projects.UpdateStatus(context.Background(), p.ID, model.ProjectStatusArchived)
	require.NoError(t, err)

	tokA, _ := env.token(t, "alice")
	tokB, _ := env.token(t, "bob")
	connA := env.dial(t, tokA)
	connB := env.dial(t, tokB)
	join(t, connA, p.ID)
	join(t, connB, p.ID)

	writeFrame(t, connA, FrameSubmit, "req-1", SubmitPayload{
		ProjectID:  p.ID,
		CanvasType: canvas.Mosaic,
		Payload:    json.RawMessage(`{"x":1,"y":2,"color":"#ff0000","shape":"Square"}`),
		ClientRef:  "local-1",
	})

	f := readFrame(t, connA)
	require.Equal(t, FrameError, f.Type)
	assert.Equal(t, "req-1", f.RequestID)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &ep))
	assert.Equal(t, service.CodeNotAccepting, ep.Code)
	assert.Equal(t, "local-1", ep.ClientRef)
	assert.False(t, ep.Retryable)

	expectSilence(t, connB)
}

func TestGateway_JoinLeavesPreviousRoom(t *testing.T) {
	env := newGatewayEnv(t, testConfig())
	first := env.project(t, canvas.Mosaic, 10)
	second := env.project(t, canvas.Mosaic, 10)

	tok, _ := env.token(t, "alice")
	conn := env.dial(t, tok)
	join(t, conn, first.ID)
	require.Equal(t, 1, env.hub.Members(first.ID))

	join(t, conn, second.ID)
	assert.Equal(t, 0, env.hub.Members(first.ID))
	assert.Equal(t, 1, env.hub.Members(second.ID))

	writeFrame(t, conn, FrameLeave, "leave-1", nil)
	f := readFrame(t, conn)
	assert.Equal(t, FrameAck, f.Type)
	assert.Equal(t, "leave-1", f.RequestID)
	assert.Equal(t, 0, env.hub.Members(second.ID))
}

func TestGateway_JoinUnknownProject(t *testing.T) {
	env := newGatewayEnv(t, testConfig())
	tok, _ := env.token(t, "alice")
	conn := env.dial(t, tok)

	writeFrame(t, conn, FrameJoin, "join-1", JoinPayload{ProjectID: uuid.New()})
	f := readFrame(t, conn)
	require.Equal(t, FrameError, f.Type)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &ep))
	assert.Equal(t, service.CodeNotFound, ep.Code)
}

func TestGateway_DisconnectLeavesRoom(t *testing.T) {
	env := newGatewayEnv(t, testConfig())
	p := env.project(t, canvas.Mosaic, 10)
	tok, _ := env.token(t, "alice")
	conn := env.dial(t, tok)
	join(t, conn, p.ID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return env.hub.Members(p.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_InvalidFrames(t *testing.T) {
	env := newGatewayEnv(t, testConfig())
	tok, _ := env.token(t, "alice")
	conn := env.dial(t, tok)

	require.NoError(t, websocket.Message.Send(conn, "not json"))
	f := readFrame(t, conn)
	require.Equal(t, FrameError, f.Type)

	writeFrame(t, conn, "dance", "r-1", nil)
	f = readFrame(t, conn)
	require.Equal(t, FrameError, f.Type)
	assert.Equal(t, "r-1", f.RequestID)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &ep))
	assert.Equal(t, service.CodeInvalidArgument, ep.Code)
}

func TestGateway_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Realtime.MaxFramesPerSecond = 2
	env := newGatewayEnv(t, cfg)
	tok, _ := env.token(t, "alice")
	conn := env.dial(t, tok)

	for i := 0; i < 3; i++ {
		writeFrame(t, conn, FrameLeave, "", nil)
	}
	assert.Equal(t, FrameAck, readFrame(t, conn).Type)
	assert.Equal(t, FrameAck, readFrame(t, conn).Type)

	f := readFrame(t, conn)
	require.Equal(t, FrameError, f.Type)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &ep))
	assert.Equal(t, CodeRateLimited, ep.Code)
	assert.True(t, ep.Retryable)
}
