package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
)

// AuthorKey is the gin context key holding the authenticated *model.Author.
const AuthorKey = "author"

func bearer(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(auth, "Bearer "), true
}

// AuthorAuth returns a middleware that authenticates requests using author bearer tokens.
// It resolves the token to its author and sets the author in the context.
// It also sets the author_id attribute on the current span for telemetry filtering.
func AuthorAuth(authors service.AuthorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, authSpan := otel.Tracer("middleware").Start(c.Request.Context(), "author_auth",
			trace.WithAttributes(attribute.String("middleware", "author_auth")))
		defer authSpan.End()

		raw, ok := bearer(c)
		if !ok {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		author, err := authors.Authenticate(ctx, raw)
		if err != nil {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			if service.Retryable(err) {
				authSpan.RecordError(err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, serializer.Err(http.StatusServiceUnavailable, "authentication unavailable", err))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		// Set author_id attribute on the current span for telemetry filtering
		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.String("author_id", author.ID.String()))
		}
		authSpan.SetAttributes(
			attribute.String("author_id", author.ID.String()),
			attribute.Bool("authenticated", true),
		)

		c.Set(AuthorKey, author)
		c.Next()
	}
}

// CurrentAuthor returns the author set by AuthorAuth.
func CurrentAuthor(c *gin.Context) (*model.Author, bool) {
	v, ok := c.Get(AuthorKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*model.Author)
	return a, ok && a != nil
}

// AdminAuth guards the project-management API with the root bearer token.
func AdminAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok || cfg.Root.ApiBearerToken == "" ||
			subtle.ConstantTimeCompare([]byte(raw), []byte(cfg.Root.ApiBearerToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		c.Next()
	}
}
