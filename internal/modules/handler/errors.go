package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/serializer"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
)

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	switch service.Code(err) {
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeNotAccepting:
		return http.StatusConflict
	case service.CodeTypeMismatch:
		return http.StatusUnprocessableEntity
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeInvalidArgument:
		return http.StatusBadRequest
	case service.CodeUnavailable:
		return http.StatusServiceUnavailable
	case service.CodeFailedPrecondition:
		if errors.Is(err, service.ErrExportStorageDisabled) {
			return http.StatusNotImplemented
		}
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func serviceErr(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, serializer.Err(status, msg, err))
}
