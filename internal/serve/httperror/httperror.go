package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"
)

// HTTPError is the JSON error body returned by the admin API.
type HTTPError struct {
	StatusCode int                    `json:"-"`
	Message    string                 `json:"error"`
	ErrorCode  string                 `json:"error_code,omitempty"`
	Extras     map[string]interface{} `json:"extras,omitempty"`
	// Err is logged, never rendered.
	Err error `json:"-"`
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "The request was invalid in some way.",
	http.StatusUnauthorized:        "Not authorized.",
	http.StatusNotFound:            "Resource not found.",
	http.StatusConflict:            "The resource already exists.",
	http.StatusTooManyRequests:     "Too many requests. Please try again later.",
	http.StatusInternalServerError: "An internal error occurred while processing this request.",
	http.StatusServiceUnavailable:  "Service temporarily unavailable. Please try again later.",
}

// ReportErrorFunc reports errors that end up as 5xx responses.
type ReportErrorFunc func(ctx context.Context, err error, msg string)

func logReportedError(ctx context.Context, err error, msg string) {
	if msg != "" {
		err = fmt.Errorf("%s: %w", msg, err)
	}
	log.Ctx(ctx).WithStack(err).Errorf("%+v", err)
}

var reportError ReportErrorFunc = logReportedError

// SetDefaultReportErrorFunc replaces the function InternalError and ServiceUnavailable report errors with. A nil fn
// restores the logging reporter.
func SetDefaultReportErrorFunc(fn ReportErrorFunc) {
	if fn == nil {
		fn = logReportedError
	}
	reportError = fn
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) WithErrorCode(code string) *HTTPError {
	e.ErrorCode = code
	return e
}

func (e *HTTPError) Render(w http.ResponseWriter) {
	httpjson.RenderStatus(w, e.StatusCode, e, httpjson.JSON)
}

// NewHTTPError builds an error response. When it adds nothing to an HTTPError already wrapped by originalErr with the
// same status, that error is returned as is.
func NewHTTPError(statusCode int, msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	var wrapped *HTTPError
	if msg == "" && len(extras) == 0 && errors.As(originalErr, &wrapped) && wrapped.StatusCode == statusCode {
		return wrapped
	}

	return &HTTPError{
		StatusCode: statusCode,
		Message:    msg,
		Extras:     extras,
		Err:        originalErr,
	}
}

func withDefaultMessage(statusCode int, msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	if msg == "" {
		msg = defaultMessages[statusCode]
	}
	return NewHTTPError(statusCode, msg, originalErr, extras)
}

func BadRequest(msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	return withDefaultMessage(http.StatusBadRequest, msg, originalErr, extras)
}

func Unauthorized(msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	return withDefaultMessage(http.StatusUnauthorized, msg, originalErr, extras)
}

func NotFound(msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	return withDefaultMessage(http.StatusNotFound, msg, originalErr, extras)
}

func Conflict(msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	return withDefaultMessage(http.StatusConflict, msg, originalErr, extras)
}

func TooManyRequests(msg string) *HTTPError {
	return withDefaultMessage(http.StatusTooManyRequests, msg, nil, nil)
}

func InternalError(ctx context.Context, msg string, originalErr error, extras map[string]interface{}) *HTTPError {
	httpErr := withDefaultMessage(http.StatusInternalServerError, msg, originalErr, extras)
	reportError(ctx, originalErr, httpErr.Message)
	return httpErr.WithErrorCode(Code500_0)
}

// ServiceUnavailable is used when a database cannot be reached. The cause is reported but never rendered.
func ServiceUnavailable(ctx context.Context, originalErr error) *HTTPError {
	httpErr := withDefaultMessage(http.StatusServiceUnavailable, "", originalErr, nil)
	reportError(ctx, originalErr, httpErr.Message)
	return httpErr.WithErrorCode(Code503_0)
}
