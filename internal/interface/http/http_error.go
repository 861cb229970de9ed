package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/nutriforecast/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// domainStatus maps service error codes onto HTTP statuses.
var domainStatus = map[string]int{
	"invalid_input":       http.StatusBadRequest,
	"not_found":           http.StatusNotFound,
	"email_exists":        http.StatusConflict,
	"invalid_credentials": http.StatusUnauthorized,
	"invalid_token":       http.StatusUnauthorized,
	"llm_error":           http.StatusBadGateway,
}

// fromDomainError converts a service error, keeping its code and details.
// Unknown codes become a 500 tagged with fallbackCode.
func fromDomainError(err error, fallbackCode string) *HTTPError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, fallbackCode, errMessage(err), err)
	}
	status, ok := domainStatus[appErr.Code]
	code := appErr.Code
	if !ok {
		status = http.StatusInternalServerError
		code = fallbackCode
	}
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = errMessage(err)
	}
	return &HTTPError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: apperrors.DetailsOf(err),
		Err:     err,
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
