package reconcile

import (
	"fmt"
	"net/http"

	"github.com/mianjunaid1223/Collab-Studio/internal/infra/httpclient"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/service"
	"github.com/mianjunaid1223/Collab-Studio/internal/realtime"
)

// Rejection explains why an optimistic change was revoked.
type Rejection struct {
	ClientRef string
	Code      string
	Reason    string
	Retryable bool
}

func (r Rejection) Error() string {
	return fmt.Sprintf("%s rejected (%s): %s", r.ClientRef, r.Code, r.Reason)
}

var reasons = map[string]string{
	service.CodeUnauthenticated:    "your session has expired, sign in again",
	service.CodeNotAccepting:       "this canvas is no longer accepting contributions",
	service.CodeTypeMismatch:       "this contribution does not fit the canvas",
	service.CodeNotFound:           "this canvas no longer exists",
	service.CodeInvalidArgument:    "this contribution is not valid",
	service.CodeUnavailable:        "the server is busy, try again shortly",
	service.CodeFailedPrecondition: "this change is not allowed right now",
	realtime.CodeRateLimited:       "you are contributing too fast, slow down",
}

func reason(code string) string {
	if r, ok := reasons[code]; ok {
		return r
	}
	return "something went wrong, your change was not saved"
}

func rejectionFromFrame(ref string, e realtime.ErrorPayload) Rejection {
	return Rejection{ClientRef: ref, Code: e.Code, Reason: reason(e.Code), Retryable: e.Retryable}
}

// statusCodes maps fallback HTTP statuses to the codes live sessions see.
var statusCodes = map[int]string{
	http.StatusBadRequest:          service.CodeInvalidArgument,
	http.StatusUnauthorized:        service.CodeUnauthenticated,
	http.StatusNotFound:            service.CodeNotFound,
	http.StatusConflict:            service.CodeNotAccepting,
	http.StatusUnprocessableEntity: service.CodeTypeMismatch,
	http.StatusServiceUnavailable:  service.CodeUnavailable,
}

func rejectionFromHTTP(ref string, err error) Rejection {
	code, ok := statusCodes[httpclient.StatusOf(err)]
	if !ok {
		code = service.CodeUnavailable
		if httpclient.StatusOf(err) != 0 {
			code = service.CodeInternal
		}
	}
	return Rejection{ClientRef: ref, Code: code, Reason: reason(code), Retryable: code == service.CodeUnavailable}
}
