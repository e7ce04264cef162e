// Package api exposes the session manager over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/cookai-labs/sessiond/internal/errors"
	"github.com/cookai-labs/sessiond/internal/health"
	"github.com/cookai-labs/sessiond/internal/middleware"
	"github.com/cookai-labs/sessiond/internal/notify"
	"github.com/cookai-labs/sessiond/internal/session"
)

// Server serves the session API.
type Server struct {
	manager *session.Manager
	errs    *apperrors.Handler
	checker *health.Checker
	limits  *middleware.RateLimit
	log     *slog.Logger

	// redirectDelay is echoed to clients as the delay_ms redirect hint so
	// they pace navigation the same way the manager does.
	redirectDelay time.Duration
}

// Options configures a Server.
type Options struct {
	Manager       *session.Manager
	Errors        *apperrors.Handler
	Checker       *health.Checker
	RateLimit     *middleware.RateLimit
	Log           *slog.Logger
	RedirectDelay time.Duration
}

// NewServer constructs the API server.
func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		manager:       opts.Manager,
		errs:          opts.Errors,
		checker:       opts.Checker,
		limits:        opts.RateLimit,
		log:           log,
		redirectDelay: opts.RedirectDelay,
	}
}

// Handler builds the routed echo instance with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validate}

	e.Use(middleware.Correlation())
	e.Use(middleware.Logging(s.log))
	e.Use(echomw.Recover())

	v1 := e.Group("/api/v1")
	v1.POST("/session/login", s.handleLogin, s.authOperation("login")...)
	v1.POST("/session/login/google", s.handleGoogleLogin, s.authOperation("login_google")...)
	v1.POST("/session/signup", s.handleSignup, s.authOperation("signup")...)
	v1.POST("/session/logout", s.handleLogout, middleware.Operation("logout"))
	v1.GET("/session", s.handleGetSession)
	v1.PATCH("/user", s.handleUpdateUser, middleware.Operation("update_user"))
	v1.PUT("/user/preferences", s.handleUpdatePreferences, middleware.Operation("update_preferences"))

	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// authOperation is the middleware stack shared by the authentication
// endpoints: rate limiting, when configured, outside operation metrics.
func (s *Server) authOperation(name string) []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{}
	if s.limits != nil {
		chain = append(chain, s.limits.ForOperation(name))
	}

	return append(chain, middleware.Operation(name))
}

// requestValidator adapts go-playground/validator to echo's Validator
// interface.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// requestContext attaches a toast sink and the requested toast language to
// the incoming request context.
func requestContext(c echo.Context) (context.Context, *notify.Sink) {
	ctx := c.Request().Context()
	if lang := primaryLanguage(c.Request().Header.Get("Accept-Language")); lang != "" {
		ctx = notify.WithLanguage(ctx, lang)
	}

	return notify.WithSink(ctx)
}

// primaryLanguage reduces an Accept-Language header to its first primary
// subtag: "es-ES,es;q=0.9" yields "es".
func primaryLanguage(header string) string {
	if header == "" {
		return ""
	}

	lang := header
	if idx := strings.IndexAny(lang, ",;"); idx >= 0 {
		lang = lang[:idx]
	}
	if idx := strings.Index(lang, "-"); idx >= 0 {
		lang = lang[:idx]
	}

	return strings.TrimSpace(lang)
}
