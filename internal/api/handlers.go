package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/cookai-labs/sessiond/internal/domain"
	apperrors "github.com/cookai-labs/sessiond/internal/errors"
	"github.com/cookai-labs/sessiond/internal/notify"
	"github.com/cookai-labs/sessiond/internal/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionPayload struct {
	User                    *domain.User `json:"user"`
	IsAuthenticated         bool         `json:"is_authenticated"`
	IsLoading               bool         `json:"is_loading"`
	HasCompletedPreferences bool         `json:"has_completed_preferences"`
	Phase                   string       `json:"phase"`
	Token                   string       `json:"token,omitempty"`
}

type redirectPayload struct {
	Route   string `json:"route"`
	DelayMS int64  `json:"delay_ms"`
}

type errorPayload struct {
	Key       string `json:"key"`
	Retryable bool   `json:"retryable"`
}

type envelope struct {
	Session  sessionPayload   `json:"session"`
	Toasts   []notify.Toast   `json:"toasts"`
	Redirect *redirectPayload `json:"redirect,omitempty"`
	Error    *errorPayload    `json:"error,omitempty"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return s.validationFailure(c, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return s.validationFailure(c, err.Error())
	}

	ctx, sink := requestContext(c)
	if err := s.manager.Login(ctx, req.Email, req.Password); err != nil {
		return s.operationFailure(c, ctx, sink, err)
	}

	return s.sessionResponse(c, http.StatusOK, sink, s.redirect(session.RouteHome))
}

func (s *Server) handleGoogleLogin(c echo.Context) error {
	ctx, sink := requestContext(c)
	if err := s.manager.LoginWithProvider(ctx); err != nil {
		return s.operationFailure(c, ctx, sink, err)
	}

	return s.sessionResponse(c, http.StatusOK, sink, s.redirect(session.RouteHome))
}

func (s *Server) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return s.validationFailure(c, "malformed request body")
	}
	if err := c.Validate(&req); err != nil {
		return s.validationFailure(c, err.Error())
	}

	ctx, sink := requestContext(c)
	if err := s.manager.Signup(ctx, req.Username, req.Email, req.Password); err != nil {
		return s.operationFailure(c, ctx, sink, err)
	}

	return s.sessionResponse(c, http.StatusCreated, sink, s.redirect(session.RouteLogin))
}

func (s *Server) handleLogout(c echo.Context) error {
	ctx, sink := requestContext(c)
	s.manager.Logout(ctx)

	return s.sessionResponse(c, http.StatusOK, sink, &redirectPayload{Route: session.RouteHome})
}

func (s *Server) handleGetSession(c echo.Context) error {
	return s.sessionResponse(c, http.StatusOK, nil, nil)
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	var patch domain.UserPatch
	if err := c.Bind(&patch); err != nil {
		return s.validationFailure(c, "malformed request body")
	}

	ctx, sink := requestContext(c)
	if err := s.manager.UpdateUser(ctx, patch); err != nil {
		return s.operationFailure(c, ctx, sink, err)
	}

	return s.sessionResponse(c, http.StatusOK, sink, nil)
}

func (s *Server) handleUpdatePreferences(c echo.Context) error {
	var patch domain.PreferencesPatch
	if err := c.Bind(&patch); err != nil {
		return s.validationFailure(c, "malformed request body")
	}

	ctx, sink := requestContext(c)
	if err := s.manager.UpdatePreferences(ctx, patch); err != nil {
		return s.operationFailure(c, ctx, sink, err)
	}

	return s.sessionResponse(c, http.StatusOK, sink, nil)
}

func (s *Server) handleHealthz(c echo.Context) error {
	results := map[string]string{}
	if s.checker != nil {
		results = s.checker.Check(c.Request().Context())
	}

	status := http.StatusOK
	for _, result := range results {
		if result != "OK" {
			status = http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(status, results)
}

func (s *Server) validationFailure(c echo.Context, detail string) error {
	s.log.Warn("rejected invalid request", slog.String("detail", detail))

	return c.JSON(http.StatusBadRequest, envelope{
		Session: s.sessionPayload(),
		Error:   &errorPayload{Key: "errors.validation"},
	})
}

func (s *Server) sessionResponse(c echo.Context, status int, sink *notify.Sink, redirect *redirectPayload) error {
	return c.JSON(status, envelope{
		Session:  s.sessionPayload(),
		Toasts:   sink.Toasts(),
		Redirect: redirect,
	})
}

func (s *Server) operationFailure(c echo.Context, ctx context.Context, sink *notify.Sink, err error) error {
	key, retryable := s.errs.Handle(ctx, err)

	return c.JSON(statusFromError(err), envelope{
		Session: s.sessionPayload(),
		Toasts:  sink.Toasts(),
		Error:   &errorPayload{Key: key, Retryable: retryable},
	})
}

func (s *Server) sessionPayload() sessionPayload {
	snapshot := s.manager.Snapshot()

	return sessionPayload{
		User:                    snapshot.User,
		IsAuthenticated:         snapshot.IsAuthenticated,
		IsLoading:               snapshot.IsLoading,
		HasCompletedPreferences: snapshot.HasCompletedPreferences,
		Phase:                   string(snapshot.Phase),
		Token:                   snapshot.Token,
	}
}

func (s *Server) redirect(route string) *redirectPayload {
	return &redirectPayload{
		Route:   route,
		DelayMS: s.redirectDelay.Milliseconds(),
	}
}

func statusFromError(err error) int {
	if errors.Is(err, session.ErrOperationInFlight) {
		return http.StatusConflict
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr == nil {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeCredentials:
		return http.StatusUnauthorized
	case apperrors.CodeSignup:
		return http.StatusBadRequest
	case apperrors.CodeProvider:
		return http.StatusBadGateway
	case apperrors.CodeSessionState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
