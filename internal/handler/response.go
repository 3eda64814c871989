package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/jwalitptl/consult-api/pkg/errors"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Response is the envelope every API route returns. Consultation payloads
// ride in Data; Message carries the error text on failure.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: statusSuccess,
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  statusError,
		Message: message,
	}
}

// Error writes err with the status implied by its pipeline error code.
func Error(c *gin.Context, err error) {
	c.JSON(statusFor(err), NewErrorResponse(err.Error()))
}

// statusFor maps pipeline error codes to HTTP statuses. Authentication
// failures are 502: the credential at fault is the service's upstream API
// key, not anything the caller sent.
func statusFor(err error) int {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.ErrValidation):
		return http.StatusBadRequest
	case pkgerrors.IsCode(err, pkgerrors.ErrAuthentication):
		return http.StatusBadGateway
	case pkgerrors.IsCode(err, pkgerrors.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
