package service

import (
	"errors"

	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/paging"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/render"
)

// Service layer errors. Handlers and the realtime gateway map them to status
// codes with errors.Is, so wrap them with %w rather than replacing them.
var (
	ErrUnauthenticated                  = errors.New("unauthenticated")
	ErrProjectNotAcceptingContributions = errors.New("project is not accepting contributions")
	ErrTypeMismatch                     = errors.New("canvas type does not match the project")
	ErrProjectNotFound                  = errors.New("project not found")
	ErrAuthorNotFound                   = errors.New("author not found")
	ErrInvalidProject                   = errors.New("invalid project configuration")
	ErrTransientStore                   = errors.New("store temporarily unavailable")
	ErrExportStorageDisabled            = errors.New("export storage is not configured")

	ErrInvalidPayload          = canvas.ErrInvalidPayload
	ErrInvalidStatusTransition = model.ErrInvalidStatusTransition
	ErrUnsupportedFormat       = render.ErrUnsupportedFormat
	ErrInvalidCursor           = paging.ErrInvalidCursor
)

// Error codes reported to realtime clients.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeNotAccepting       = "PROJECT_NOT_ACCEPTING"
	CodeTypeMismatch       = "TYPE_MISMATCH"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeUnavailable        = "UNAVAILABLE"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
	CodeInternal           = "INTERNAL"
)

// Code classifies err. Unknown errors are INTERNAL.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrProjectNotAcceptingContributions):
		return CodeNotAccepting
	case errors.Is(err, ErrTypeMismatch):
		return CodeTypeMismatch
	case errors.Is(err, ErrProjectNotFound), errors.Is(err, ErrAuthorNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidProject),
		errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrInvalidCursor),
		errors.Is(err, canvas.ErrUnknownType):
		return CodeInvalidArgument
	case errors.Is(err, ErrTransientStore):
		return CodeUnavailable
	case errors.Is(err, ErrInvalidStatusTransition), errors.Is(err, ErrExportStorageDisabled):
		return CodeFailedPrecondition
	}
	return CodeInternal
}

// Retryable reports whether the client may resend the same request.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
