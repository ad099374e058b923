package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/zclstore/internal/datastore/repository"
	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Matches the server log line of the failure
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: logger.NewTraceID(),
	}
}

// statusFor maps a repository or validation error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrClusterNotFound),
		errors.Is(err, repository.ErrCommandNotFound),
		errors.Is(err, repository.ErrDomainNotFound),
		errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUnsupportedTable),
		errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and writes the JSON error body. The correlation id
// is the request's trace id. Client errors log at DEBUG, server errors at ERROR.
func (s *Server) HandleError(c echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)
	ctx := c.Request().Context()
	if id := logger.TraceID(ctx); id != "" {
		resp.CorrelationID = id
	}
	log := s.log.WithContext(ctx)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.String("path", c.Request().URL.Path),
		logger.Int("code", code),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API error", fields...)
	}

	return c.JSON(code, resp)
}

// httpErrorHandler renders echo's own errors, such as unknown routes, in the
// same JSON shape as handler errors.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = s.HandleError(c, err, message, code)
}
