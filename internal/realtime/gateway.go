package realtime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

const (
	maxDecodeErrorsPerConn = 5
	rateWindow             = time.Second
)

// Gateway upgrades authenticated requests to websocket sessions and serves
// join, leave and submit frames.
type Gateway struct {
	hub           *Hub
	contributions service.ContributionService
	projects      service.ProjectService
	authors       service.AuthorService
	cfg           *config.Config
	log           *zap.Logger
}

func NewGateway(
	hub *Hub,
	contributions service.ContributionService,
	projects service.ProjectService,
	authors service.AuthorService,
	cfg *config.Config,
	log *zap.Logger,
) *Gateway {
	return &Gateway{
		hub:           hub,
		contributions: contributions,
		projects:      projects,
		authors:       authors,
		cfg:           cfg,
		log:           log,
	}
}

// TokenFromRequest reads the author token from the token query parameter or
// the Authorization header.
func TokenFromRequest(r *http.Request) string {
	if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	author, err := g.authors.Authenticate(r.Context(), TokenFromRequest(r))
	if err != nil {
		if service.Retryable(err) {
			g.log.Sugar().Warnw("websocket auth unavailable", "remote", r.RemoteAddr, "err", err)
			http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	srv := websocket.Server{
		// Origin is not checked; sessions are authorized by token.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			g.serve(conn, author)
		},
	}
	srv.ServeHTTP(w, r)
}

func (g *Gateway) serve(conn *websocket.Conn, author *model.Author) {
	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()

	conn.MaxPayloadBytes = g.cfg.Realtime.MaxFrameBytes
	p := newPeer(conn, author, g.cfg.Realtime.SendBuffer, g.log)
	go p.writeLoop()

	telemetry.SessionOpened(ctx)
	g.log.Sugar().Debugw("realtime session opened", "author_id", author.ID, "remote", conn.Request().RemoteAddr)
	defer func() {
		g.hub.leave(p)
		p.close()
		telemetry.SessionClosed(context.WithoutCancel(ctx))
		g.log.Sugar().Debugw("realtime session closed", "author_id", author.ID)
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				p.sendError("", ErrorPayload{Code: service.CodeInvalidArgument, Message: "frame too large"})
				continue
			}
			if !errors.Is(err, io.EOF) && !p.closed() {
				g.log.Sugar().Debugw("realtime receive", "author_id", author.ID, "err", err)
			}
			return
		}

		if now := time.Now(); now.Sub(windowStart) >= rateWindow {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if limit := g.cfg.Realtime.MaxFramesPerSecond; limit > 0 && framesInWindow > limit {
			p.sendError("", ErrorPayload{Code: CodeRateLimited, Message: "too many frames", Retryable: true})
			continue
		}

		var f Frame
		if err := sonic.Unmarshal(raw, &f); err != nil {
			decodeErrors++
			p.sendError("", ErrorPayload{Code: service.CodeInvalidArgument, Message: "invalid frame"})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		g.dispatch(ctx, p, f)
		if p.closed() {
			return
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, p *peer, f Frame) {
	switch f.Type {
	case FrameJoin:
		g.handleJoin(ctx, p, f)
	case FrameLeave:
		g.hub.leave(p)
		p.sendPayload(FrameAck, f.RequestID, nil)
	case FrameSubmit:
		g.handleSubmit(ctx, p, f)
	default:
		p.sendError(f.RequestID, ErrorPayload{Code: service.CodeInvalidArgument, Message: "unknown frame type " + f.Type})
	}
}

func (g *Gateway) handleJoin(ctx context.Context, p *peer, f Frame) {
	var in JoinPayload
	if err := f.Decode(&in); err != nil {
		p.sendError(f.RequestID, ErrorPayload{Code: service.CodeInvalidArgument, Message: "invalid join payload"})
		return
	}

	project, err := g.projects.Get(ctx, in.ProjectID)
	if err != nil {
		p.sendError(f.RequestID, errorPayload(err, ""))
		return
	}
	g.hub.join(p, project.ID)
	p.sendPayload(FrameJoined, f.RequestID, JoinedPayload{Project: project})
}

func (g *Gateway) handleSubmit(ctx context.Context, p *peer, f Frame) {
	var in SubmitPayload
	if err := f.Decode(&in); err != nil {
		p.sendError(f.RequestID, ErrorPayload{Code: service.CodeInvalidArgument, Message: "invalid submit payload"})
		return
	}

	out, err := g.contributions.Submit(ctx, service.SubmitInput{
		ProjectID:  in.ProjectID,
		Author:     p.author,
		AuthorID:   in.AuthorID,
		CanvasType: in.CanvasType,
		Payload:    in.Payload,
		ClientRef:  in.ClientRef,
	})
	if err != nil {
		p.sendError(f.RequestID, errorPayload(err, in.ClientRef))
		return
	}

	p.sendPayload(FrameAck, f.RequestID, AckPayload{
		ClientRef:    in.ClientRef,
		Contribution: out.Contribution,
		Removed:      out.Removed,
		RemovedID:    out.RemovedID,
		Project:      out.Project,
		Noop:         out.Noop,
	})
}

func errorPayload(err error, clientRef string) ErrorPayload {
	code := service.Code(err)
	msg := err.Error()
	if code == service.CodeInternal {
		msg = "internal error"
	}
	return ErrorPayload{Code: code, Message: msg, Retryable: service.Retryable(err), ClientRef: clientRef}
}
