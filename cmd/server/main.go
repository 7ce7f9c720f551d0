package main

//	@title			Collab Studio API
//	@version		1.0
//	@description	Contribution engine for collaborative canvas projects.
//	@schemes		http https
//	@BasePath		/api/v1

//  Bearer at author level, root token for /admin
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Author token (e.g., "Bearer sk-author-xxxx"), or the root token for /admin routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mianjunaid1223/Collab-Studio/internal/bootstrap"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/cache"
	dbpkg "github.com/mianjunaid1223/Collab-Studio/internal/infra/db"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/handler"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/realtime"
	"github.com/mianjunaid1223/Collab-Studio/internal/router"
	"github.com/mianjunaid1223/Collab-Studio/internal/telemetry"
	"github.com/mianjunaid1223/Collab-Studio/internal/version"
)

func main() {
	// build dependency injection container
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = log.Sync() }()

	// Setup OpenTelemetry before the DB and Redis clients are built so their plugins see the provider
	tp, err := telemetry.SetupTracing(cfg)
	if err != nil {
		log.Sugar().Warnw("failed to setup tracing, continuing without tracing", "err", err)
	}
	mp, err := telemetry.SetupMetrics(cfg)
	if err != nil {
		log.Sugar().Warnw("failed to setup metrics, continuing without metrics", "err", err)
	}
	if mp != nil {
		if err := telemetry.InitContributionMetrics(); err != nil {
			log.Sugar().Warnw("failed to init contribution metrics", "err", err)
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			log.Sugar().Errorw("failed to shutdown tracer", "err", err)
		}
		if err := telemetry.ShutdownMetrics(ctx); err != nil {
			log.Sugar().Errorw("failed to shutdown meter", "err", err)
		}
	}()

	db := do.MustInvoke[*gorm.DB](inj)
	if tp != nil {
		log.Sugar().Infow("OpenTelemetry tracing enabled", "endpoint", cfg.Telemetry.OtlpEndpoint)
		// Register GORM OpenTelemetry plugin after tracer provider is set
		if err := dbpkg.RegisterOpenTelemetryPlugin(db); err != nil {
			log.Sugar().Warnw("failed to register GORM OpenTelemetry plugin, continuing without database tracing", "err", err)
		}
	}

	var relay *realtime.Relay
	if cfg.Realtime.Relay == bootstrap.RelayRedis {
		rdb := do.MustInvoke[*redis.Client](inj)
		if tp != nil || mp != nil {
			if err := cache.RegisterOpenTelemetryPlugin(rdb, tp != nil, mp != nil); err != nil {
				log.Sugar().Warnw("failed to register Redis OpenTelemetry plugin, continuing without Redis telemetry", "err", err)
			}
		}
		relay = do.MustInvoke[*realtime.Relay](inj)
	}

	if err := bootstrap.EnsureDefaultAuthorExists(context.Background(), do.MustInvoke[service.AuthorService](inj), cfg, log); err != nil {
		log.Sugar().Fatalw("ensure default author", "err", err)
	}

	// init gin
	gin.SetMode(cfg.App.Env)

	engine := router.NewRouter(router.RouterDeps{
		Config:              cfg,
		Log:                 log,
		AuthorService:       do.MustInvoke[service.AuthorService](inj),
		Gateway:             do.MustInvoke[http.Handler](inj),
		ContributionHandler: do.MustInvoke[*handler.ContributionHandler](inj),
		ProjectHandler:      do.MustInvoke[*handler.ProjectHandler](inj),
		ExportHandler:       do.MustInvoke[*handler.ExportHandler](inj),
		AuthorHandler:       do.MustInvoke[*handler.AuthorHandler](inj),
	})

	addr := fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)
	srv := &http.Server{Addr: addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if relay != nil {
		g.Go(func() error {
			log.Sugar().Infow("starting redis relay", "prefix", cfg.Realtime.ChannelPrefix)
			return relay.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Sugar().Infow("starting http server", "addr", addr, "version", version.Version)
		log.Sugar().Infow("swagger url", "url", addr+"/swagger/index.html")
		log.Sugar().Infow("websocket url", "url", "ws://"+addr+"/api/v1/ws")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Sugar().Errorw("server exited with error", "err", err)
		os.Exit(1)
	}
	log.Sugar().Info("server exited")
}
