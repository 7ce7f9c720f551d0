package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
)

type ProjectHandler struct {
	svc service.ProjectService
}

func NewProjectHandler(s service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: s}
}

// GetProject godoc
//
//	@Summary		Get project
//	@Description	Get a project with its aggregate fields
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Project}
//	@Failure		404	{object}	serializer.Response
//	@Router			/projects/{project_id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	p, err := h.svc.Get(c.Request.Context(), projectID)
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

type CreateProjectReq struct {
	Title            string     `json:"title" binding:"required,max=200" example:"Sunset mosaic"`
	Description      string     `json:"description" binding:"max=4000"`
	CanvasType       string     `json:"canvas_type" binding:"required" example:"Mosaic"`
	MaxContributions int        `json:"max_contributions" binding:"required,min=1" example:"256"`
	CreatedBy        *uuid.UUID `json:"created_by" format:"uuid"`
	CreatorName      string     `json:"creator_name" example:"alice"`
}

// CreateProject godoc
//
//	@Summary		Create project
//	@Description	Create an Active project with zeroed aggregates
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			body	body	CreateProjectReq	true	"Project"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Project}
//	@Failure		400	{object}	serializer.Response
//	@Router			/admin/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req := CreateProjectReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), service.CreateProjectInput{
		Title:            req.Title,
		Description:      req.Description,
		CanvasType:       req.CanvasType,
		MaxContributions: req.MaxContributions,
		CreatedBy:        req.CreatedBy,
		CreatorName:      req.CreatorName,
	})
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: p})
}

type UpdateProjectStatusReq struct {
	Status string `json:"status" binding:"required,oneof=Completed Archived" example:"Archived"`
}

// UpdateProjectStatus godoc
//
//	@Summary		Update project status
//	@Description	Move a project to Completed or Archived. A project never returns to Active.
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string					true	"Project ID"	format(uuid)
//	@Param			body		body	UpdateProjectStatusReq	true	"Status"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Project}
//	@Failure		409	{object}	serializer.Response
//	@Router			/admin/projects/{project_id}/status [patch]
func (h *ProjectHandler) UpdateProjectStatus(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	req := UpdateProjectStatusReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.svc.UpdateStatus(c.Request.Context(), projectID, model.ProjectStatus(req.Status))
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: p})
}

// RecomputeProject godoc
//
//	@Summary		Recompute project aggregates
//	@Description	Rebuild count, completion and contributors from the stored contributions
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Project}
//	@Router			/admin/projects/{project_id}/recompute [post]
func (h *ProjectHandler) RecomputeProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
		return
	}

	p, err := h.svc.Recompute(c.Request.Context(), projectID)
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: p})
}
