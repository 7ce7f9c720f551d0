package bootstrap

import (
	"context"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"go.uber.org/zap"
)

// EnsureDefaultAuthorExists creates or aligns the bootstrap author owning
// root.authorBearerToken when the service starts. It does nothing when no token
// is configured.
func EnsureDefaultAuthorExists(ctx context.Context, authors service.AuthorService, cfg *config.Config, log *zap.Logger) error {
	if cfg.Root.AuthorBearerToken == "" {
		return nil
	}

	name := cfg.Root.AuthorName
	if name == "" {
		name = cfg.App.Name
	}

	a, err := authors.Ensure(ctx, cfg.Root.AuthorBearerToken, name)
	if err != nil {
		return err
	}
	log.Sugar().Infow("default author ready", "author", a.ID, "name", a.Name)
	return nil
}
