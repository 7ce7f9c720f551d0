package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/mianjunaid1223/Collab-Studio/docs"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/middleware"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/handler"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Config              *config.Config
	Log                 *zap.Logger
	AuthorService       service.AuthorService
	Gateway             http.Handler
	ContributionHandler *handler.ContributionHandler
	ProjectHandler      *handler.ProjectHandler
	ExportHandler       *handler.ExportHandler
	AuthorHandler       *handler.AuthorHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	// Initialize logger for serializer package
	serializer.SetLogger(d.Log)

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		// Add trace ID to response header
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// ping endpoint
		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		// the gateway authenticates the upgrade request itself
		v1.GET("/ws", gin.WrapH(d.Gateway))

		authed := v1.Group("")
		authed.Use(middleware.AuthorAuth(d.AuthorService))
		{
			authed.GET("/me", d.AuthorHandler.Me)
			authed.POST("/contributions", d.ContributionHandler.SubmitContribution)

			project := authed.Group("/projects/:project_id")
			{
				project.GET("", d.ProjectHandler.GetProject)
				project.GET("/contributions", d.ContributionHandler.ListContributions)
				project.GET("/contributions/all", d.ContributionHandler.ListAllContributions)
				project.GET("/contributors", d.ContributionHandler.ListContributors)
				project.GET("/export", d.ExportHandler.ExportProject)
				project.POST("/export/publish", d.ExportHandler.PublishExport)
			}
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(d.Config))
		{
			admin.POST("/authors", d.AuthorHandler.CreateAuthor)
			admin.POST("/projects", d.ProjectHandler.CreateProject)
			admin.PATCH("/projects/:project_id/status", d.ProjectHandler.UpdateProjectStatus)
			admin.POST("/projects/:project_id/recompute", d.ProjectHandler.RecomputeProject)
		}
	}
	return r
}
