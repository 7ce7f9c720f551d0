package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/middleware"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

type ContributionHandler struct {
	svc service.ContributionService
}

func NewContributionHandler(s service.ContributionService) *ContributionHandler {
	return &ContributionHandler{svc: s}
}

type SubmitContributionReq struct {
	ProjectID  uuid.UUID       `json:"project_id" binding:"required" format:"uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	AuthorID   uuid.UUID       `json:"author_id" format:"uuid"`
	CanvasType string          `json:"canvas_type" binding:"required" example:"Mosaic"`
	Payload    json.RawMessage `json:"payload" binding:"required" swaggertype:"object"`
	ClientRef  string          `json:"client_ref" example:"local-42"`
}

// SubmitContribution godoc
//
//	@Summary		Submit a contribution
//	@Description	Request/response path for submitting a contribution, used when the live channel is down. Grid-note payloads with `remove: true` or `active: false` remove the note at their cell.
//	@Tags			contribution
//	@Accept			json
//	@Produce		json
//	@Param			body	body	SubmitContributionReq	true	"Contribution"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.SubmitOutput}
//	@Failure		400	{object}	serializer.Response
//	@Failure		401	{object}	serializer.Response
//	@Failure		404	{object}	serializer.Response
//	@Failure		409	{object}	serializer.Response
//	@Failure		422	{object}	serializer.Response
//	@Failure		503	{object}	serializer.Response
//	@Router			/contributions [post]
func (h *ContributionHandler) SubmitContribution(c *gin.Context) {
	req := SubmitContributionReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	author, _ := middleware.CurrentAuthor(c)
	out, err := h.svc.Submit(c.Request.Context(), service.SubmitInput{
		ProjectID:  req.ProjectID,
		Author:     author,
		AuthorID:   req.AuthorID,
		CanvasType: canvas.Type(req.CanvasType),
		Payload:    req.Payload,
		ClientRef:  req.ClientRef,
	})
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

type ListContributionsReq struct {
	Limit  int    `form:"limit,default=100" json:"limit" binding:"min=1,max=1000" example:"100"`
	Cursor string `form:"cursor" json:"cursor" example:"MTI"`
}

// ListContributions godoc
//
//	@Summary		List contributions
//	@Description	Page through a project's contributions in commit order
//	@Tags			contribution
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Param			limit		query	integer	false	"Page size, default 100. Max 1000."
//	@Param			cursor		query	string	false	"Cursor from the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListContributionsOutput}
//	@Router			/projects/{project_id}/contributions [get]
func (h *ContributionHandler) ListContributions(c *gin.Context) {
	req := ListContributionsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	out, err := h.svc.ListPage(c.Request.Context(), service.ListContributionsInput{
		ProjectID: projectID,
		Limit:     req.Limit,
		Cursor:    req.Cursor,
	})
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// ListAllContributions godoc
//
//	@Summary		List all contributions
//	@Description	Full ordered contribution sequence of a project, used for initial load and resync
//	@Tags			contribution
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Contribution}
//	@Router			/projects/{project_id}/contributions/all [get]
func (h *ContributionHandler) ListAllContributions(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	items, err := h.svc.List(c.Request.Context(), projectID)
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: items})
}

// ListContributors godoc
//
//	@Summary		List contributors
//	@Description	Distinct authors of a project with their contribution counts
//	@Tags			contribution
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Contributor}
//	@Router			/projects/{project_id}/contributors [get]
func (h *ContributionHandler) ListContributors(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	out, err := h.svc.Contributors(c.Request.Context(), projectID)
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: out})
}
