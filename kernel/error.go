package kernel

import (
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"
)

// HTTPError is an error that knows the status it should be answered with.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

func WrapHTTPError(status int, err error, format string, args ...interface{}) *HTTPError {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusOf maps err to a response status; unknown errors are 500s.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Status >= 400 {
		return httpErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf is the client facing message for err. Internal errors never leak
// their text.
func MessageOf(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}

func (rt *RequestRuntime) MakeError(err error) error {
	rt.Span.RecordError(err)
	rt.Span.SetStatus(codes.Error, err.Error())
	rt.Error = err
	return err
}

// E records err on the current span and hands it to the error handler
// middleware, which renders the envelope.
func (rt *RequestRuntime) E(code int, err error) *RequestRuntime {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = &HTTPError{Status: code, Message: err.Error(), Err: err}
	}
	_ = rt.RequestContext.Error(rt.MakeError(httpErr))
	rt.RequestContext.Abort()
	return rt
}

func (rt *RequestRuntime) Ef(code int, format string, args ...interface{}) *RequestRuntime {
	return rt.E(code, NewHTTPError(code, fmt.Sprintf(format, args...)))
}
