package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/session"
	"github.com/fyrsmithlabs/estimator/internal/wizard"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		verr *lead.ValidationError
		cerr *quote.CostParseError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cerr):
		return http.StatusBadGateway
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrWrongScreen), errors.Is(err, session.ErrNoSubmission):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrOptionOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err, with the session view when there is one.
func (s *Server) writeError(c echo.Context, err error, view *session.View) error {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), View: view}

	var verr *lead.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "invalid contact details"
		resp.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		resp.Error = "internal error"
	}
	if view != nil && view.SessionID == "" {
		resp.View = nil
	}
	return c.JSON(status, resp)
}
