package http

import (
	"errors"
	"net/http"

	"custody/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func success(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func failure(message string, data any) Envelope {
	return Envelope{Success: false, Message: message, Data: data}
}

// StatusOf maps an error class onto an HTTP status code.
func StatusOf(err error) int {
	switch errs.Classify(err) {
	case errs.ClassValidation:
		return http.StatusBadRequest
	case errs.ClassNotFound:
		return http.StatusNotFound
	case errs.ClassAuthorization:
		return http.StatusForbidden
	case errs.ClassConflict, errs.ClassTerminal:
		return http.StatusConflict
	case errs.ClassAnchor:
		return http.StatusBadGateway
	case errs.ClassInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// respondError writes err. data is kept for anchor failures, where the
// mutation it describes is already committed.
func (s *Server) respondError(c echo.Context, err error, data any) error {
	status := StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		message = "Internal server error"
	}
	if !errors.Is(err, errs.ErrAnchorFailed) {
		data = nil
	}
	return c.JSON(status, failure(message, data))
}
