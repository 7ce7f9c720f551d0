package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
)

type ExportHandler struct {
	svc service.ExportService
}

func NewExportHandler(s service.ExportService) *ExportHandler {
	return &ExportHandler{svc: s}
}

type ExportReq struct {
	Format string `form:"format" json:"format" binding:"omitempty,oneof=svg png wav json" example:"svg"`
}

func (h *ExportHandler) bind(c *gin.Context) (service.ExportInput, bool) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return service.ExportInput{}, false
	}
	req := ExportReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return service.ExportInput{}, false
	}
	return service.ExportInput{ProjectID: projectID, Format: req.Format}, true
}

// ExportProject godoc
//
//	@Summary		Export project
//	@Description	Replay the contribution log into an artifact. Visual canvases export PNG or SVG, AudioVisual exports WAV or a JSON note sequence.
//	@Tags			export
//	@Produce		octet-stream
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Param			format		query	string	false	"svg, png, wav or json"
//	@Security		BearerAuth
//	@Success		200	{file}		binary
//	@Failure		400	{object}	serializer.Response
//	@Failure		404	{object}	serializer.Response
//	@Router			/projects/{project_id}/export [get]
func (h *ExportHandler) ExportProject(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	out, err := h.svc.Render(c.Request.Context(), in)
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// PublishExport godoc
//
//	@Summary		Publish export
//	@Description	Render the artifact, upload it to object storage and return a presigned download URL
//	@Tags			export
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Param			format		query	string	false	"svg, png, wav or json"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.PublishOutput}
//	@Failure		501	{object}	serializer.Response
//	@Router			/projects/{project_id}/export/publish [post]
func (h *ExportHandler) PublishExport(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	out, err := h.svc.Publish(c.Request.Context(), in)
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: out})
}
