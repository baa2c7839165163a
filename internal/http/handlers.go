package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/session"
)

// handleHealth reports liveness plus any registered dependency checks.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.config.Version, Sessions: s.sessions.Len()}
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(c.Request().Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHome(c echo.Context) error {
	home, err := s.sessions.Home(c.Request().Context())
	if err != nil {
		return s.writeError(c, err, nil)
	}
	return c.JSON(http.StatusOK, home)
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	view := s.sessions.Create()
	if req.Category != "" {
		v, err := s.sessions.ResolveCategory(c.Request().Context(), view.SessionID, req.Category)
		if err != nil {
			return s.writeError(c, err, &v)
		}
		view = v
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *Server) handleGetSession(c echo.Context) error {
	return s.respond(c, func(id string) (session.View, error) { return s.sessions.Get(id) })
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	s.sessions.Delete(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleOpenCategory(c echo.Context) error {
	var req OpenCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	switch {
	case req.CategoryID != "":
		return s.respond(c, func(id string) (session.View, error) { return s.sessions.OpenCategory(ctx, id, req.CategoryID) })
	case req.Ref != "":
		return s.respond(c, func(id string) (session.View, error) { return s.sessions.ResolveCategory(ctx, id, req.Ref) })
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "categoryId or ref is required")
	}
}

func (s *Server) handleSelect(c echo.Context) error {
	var req SelectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Option == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "option field is required")
	}
	return s.respond(c, func(id string) (session.View, error) { return s.sessions.Select(id, *req.Option) })
}

func (s *Server) handleNext(c echo.Context) error {
	view, tr, err := s.sessions.Next(c.Param("id"))
	if err != nil {
		return s.writeError(c, err, &view)
	}
	return c.JSON(http.StatusOK, NextResponse{Transition: tr.String(), View: view})
}

func (s *Server) handlePrevious(c echo.Context) error {
	return s.respond(c, s.sessions.Previous)
}

func (s *Server) handleBack(c echo.Context) error {
	return s.respond(c, s.sessions.Back)
}

func (s *Server) handleRestart(c echo.Context) error {
	return s.respond(c, s.sessions.Restart)
}

func (s *Server) handleEstimate(c echo.Context) error {
	est, err := s.sessions.Estimate(c.Param("id"))
	if err != nil {
		return s.writeError(c, err, nil)
	}
	resp := EstimateResponse{
		Estimate:  est,
		Total:     s.formatter.Range(est.Min, est.Max),
		LineItems: make([]FormattedItem, 0, len(est.LineItems)),
	}
	for _, li := range est.LineItems {
		resp.LineItems = append(resp.LineItems, FormattedItem{Label: li.Label, Range: s.formatter.Range(li.Min, li.Max)})
	}
	return c.JSON(http.StatusOK, resp)
}

// handleContact submits the contact form. A failed side-effect step is not
// an HTTP error: the view carries the failed submission state.
func (s *Server) handleContact(c echo.Context) error {
	var req lead.Contact
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	return s.respond(c, func(id string) (session.View, error) { return s.sessions.SubmitContact(ctx, id, req) })
}

func (s *Server) handleRetry(c echo.Context) error {
	ctx := c.Request().Context()
	return s.respond(c, func(id string) (session.View, error) { return s.sessions.RetrySubmission(ctx, id) })
}

// respond runs op on the path's session and renders its view.
func (s *Server) respond(c echo.Context, op func(id string) (session.View, error)) error {
	view, err := op(c.Param("id"))
	if err != nil {
		return s.writeError(c, err, &view)
	}
	if view.Submission != nil && view.Submission.State == lead.Failed {
		s.logger.Debug("submission failed",
			zap.String("session_id", view.SessionID),
			zap.String("step", view.Submission.FailedStep),
		)
	}
	return c.JSON(http.StatusOK, view)
}
