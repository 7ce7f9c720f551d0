package bootstrap

import (
	"context"
	"net/http"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/blob"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/cache"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/db"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/logger"
	mq "github.com/mianjunaid1223/Collab-Studio/internal/infra/queue"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/handler"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/keylock"
	"github.com/mianjunaid1223/Collab-Studio/internal/realtime"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const RelayRedis = "redis"

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(d); err != nil {
				return nil, err
			}
		}
		return d, nil
	})

	// Redis, only dialed when the redis relay is selected
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(context.Background(), cfg)
	})

	// RabbitMQ Connection
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		return mq.Dial(do.MustInvoke[*config.Config](i))
	})

	// RabbitMQ Publisher
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		return mq.NewPublisher(
			do.MustInvoke[*amqp.Connection](i),
			do.MustInvoke[*zap.Logger](i),
			do.MustInvoke[*config.Config](i),
		)
	})

	// S3
	do.Provide(inj, func(i *do.Injector) (*blob.S3Deps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return blob.NewS3(context.Background(), cfg)
	})

	// per-project critical sections
	do.Provide(inj, func(i *do.Injector) (*keylock.Map, error) {
		return keylock.New(), nil
	})

	// Realtime
	do.Provide(inj, func(i *do.Injector) (*realtime.Hub, error) {
		return realtime.NewHub(do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*realtime.Relay, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return realtime.NewRelay(
			do.MustInvoke[*redis.Client](i),
			do.MustInvoke[*realtime.Hub](i),
			cfg.Realtime.ChannelPrefix,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.Broadcaster, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.Realtime.Relay == RelayRedis {
			v, err := do.Invoke[*realtime.Relay](i)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
		return do.MustInvoke[*realtime.Hub](i), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.EventPublisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.RabbitMQ.Enabled {
			return nil, nil
		}
		v, err := do.Invoke[*mq.Publisher](i)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ArtifactStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.S3.Enabled {
			return nil, nil
		}
		v, err := do.Invoke[*blob.S3Deps](i)
		if err != nil {
			return nil, err
		}
		return v, nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.AuthorRepo, error) {
		return repo.NewAuthorRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ContributionRepo, error) {
		return repo.NewContributionRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.AuthorService, error) {
		return service.NewAuthorService(
			do.MustInvoke[repo.AuthorRepo](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*keylock.Map](i),
			do.MustInvoke[service.Broadcaster](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ContributionService, error) {
		return service.NewContributionService(
			do.MustInvoke[repo.ContributionRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[*keylock.Map](i),
			do.MustInvoke[service.Broadcaster](i),
			do.MustInvoke[service.EventPublisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ExportService, error) {
		return service.NewExportService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.ContributionRepo](i),
			do.MustInvoke[service.ArtifactStore](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Gateway
	do.Provide(inj, func(i *do.Injector) (*realtime.Gateway, error) {
		return realtime.NewGateway(
			do.MustInvoke[*realtime.Hub](i),
			do.MustInvoke[service.ContributionService](i),
			do.MustInvoke[service.ProjectService](i),
			do.MustInvoke[service.AuthorService](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (http.Handler, error) {
		return do.MustInvoke[*realtime.Gateway](i), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ContributionHandler, error) {
		return handler.NewContributionHandler(do.MustInvoke[service.ContributionService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ExportHandler, error) {
		return handler.NewExportHandler(do.MustInvoke[service.ExportService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.AuthorHandler, error) {
		return handler.NewAuthorHandler(do.MustInvoke[service.AuthorService](i)), nil
	})
	return inj
}
