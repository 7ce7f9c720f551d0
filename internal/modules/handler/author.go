package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mianjunaid1223/Collab-Studio/internal/middleware"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
)

type AuthorHandler struct {
	svc service.AuthorService
}

func NewAuthorHandler(s service.AuthorService) *AuthorHandler {
	return &AuthorHandler{svc: s}
}

type CreateAuthorReq struct {
	Name   string `json:"name" binding:"required,max=100" example:"alice"`
	Avatar string `json:"avatar" binding:"omitempty,url" example:"https://example.com/a.png"`
}

// CreateAuthor godoc
//
//	@Summary		Create author
//	@Description	Provision an author. The returned token is shown once.
//	@Tags			author
//	@Accept			json
//	@Produce		json
//	@Param			body	body	CreateAuthorReq	true	"Author"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=service.CreateAuthorOutput}
//	@Router			/admin/authors [post]
func (h *AuthorHandler) CreateAuthor(c *gin.Context) {
	req := CreateAuthorReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.Create(c.Request.Context(), service.CreateAuthorInput{Name: req.Name, Avatar: req.Avatar})
	if err != nil {
		serviceErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: out})
}

// Me godoc
//
//	@Summary		Current author
//	@Tags			author
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Author}
//	@Router			/me [get]
func (h *AuthorHandler) Me(c *gin.Context) {
	author, ok := middleware.CurrentAuthor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: author})
}
