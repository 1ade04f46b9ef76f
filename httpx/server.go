package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Validator runs after routing and before the route handler, so path
// parameters are available; return an error to stop the pipeline.
type Validator func(Context) error

type Server struct {
	app      *App
	address  string
	srv      *http.Server
	shutdown time.Duration
}

type RouteRegistrar func(*App)

type StartOption func(*Server)

func WithShutdownTimeout(d time.Duration) StartOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdown = d
		}
	}
}

func NewServer(opts ...ServerOption) *Server {
	cfg := defaultServerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	app := New()
	e := app.e
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	for _, mw := range cfg.Middlewares {
		e.Use(mw)
	}
	e.Use(RequestLoggerMiddleware(cfg.Logger))
	if cfg.RateLimit > 0 {
		e.Use(RateLimitMiddleware(cfg.RateLimit))
	}
	if cfg.CORS != nil {
		e.Use(CORSMiddleware(cfg.CORS))
	}
	if len(cfg.Validators) > 0 {
		e.Use(validatorMiddleware(cfg.Validators...))
	}

	return &Server{
		app:      app,
		address:  cfg.Address,
		shutdown: 5 * time.Second,
	}
}

func (s *Server) RegisterRoutes(reg RouteRegistrar) {
	if reg != nil {
		reg(s.app)
	}
}

func (s *Server) Handler() http.Handler {
	return s.app.e
}

// Address reports the listen address the server was configured with.
func (s *Server) Address() string { return s.address }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, opts ...StartOption) error {
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.srv = &http.Server{
		Addr:         s.address,
		Handler:      s.app.e,
		ReadTimeout:  s.app.e.Server.ReadTimeout,
		WriteTimeout: s.app.e.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("address", s.address))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		slog.Info("http server shutting down", slog.Duration("timeout", s.shutdown))
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// jsonErrorHandler renders every handler error as {"error": msg}. Errors that
// are not *echo.HTTPError become a bare 500.
func jsonErrorHandler(err error, c echo.Context) {
	code := StatusInternalError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(code)
		default:
			msg = fmt.Sprint(m)
		}
	}
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]any{"error": msg})
	}
}

func validatorMiddleware(v ...Validator) MiddlewareFunc {
	copied := append([]Validator(nil), v...)
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			for _, validator := range copied {
				if validator == nil {
					continue
				}
				if err := validator(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}
