// Package echo provides giveme integration for the Echo web framework.
//
// This package provides middleware that opens a giveme scope per request and
// a handler wrapper that resolves a named controller from that scope.
//
// Example usage:
//
//	registry := giveme.New()
//	registry.Register(newUserController, giveme.Name("users"), giveme.AsThreadLocal())
//
//	e := echo.New()
//	e.Use(givemeecho.ScopeMiddleware(registry))
//
//	e.GET("/users/:id", givemeecho.Handle(registry, "users", (*UserController).GetByID))
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/junioryono/giveme"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a 500 HTTPError is returned to Echo's error handling.
	ErrorHandler func(echo.Context, error) error

	// Middlewares are functions that run after scope creation.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(*giveme.Scope, echo.Context) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(echo.Context, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after scope creation.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*giveme.Scope, echo.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig(reg *giveme.Registry) *Config {
	return &Config{
		ErrorHandler: func(c echo.Context, err error) error {
			reg.Logger().Error("scope middleware failed", zap.String("path", c.Path()), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// ScopeMiddleware creates an Echo middleware that opens a scope of reg for
// each request. The scope is attached to the request context and closed when
// the handler chain returns.
//
// Example:
//
//	e := echo.New()
//	e.Use(givemeecho.ScopeMiddleware(registry))
func ScopeMiddleware(reg *giveme.Registry, opts ...Option) echo.MiddlewareFunc {
	cfg := defaultConfig(reg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scope := reg.CreateScope(c.Request().Context())
			defer scope.Close()

			// Attach scope to request context
			c.SetRequest(c.Request().WithContext(scope.Context()))

			for _, mw := range cfg.Middlewares {
				if err := mw(scope, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// FromContext returns the request scope of reg attached to c.
func FromContext(c echo.Context, reg *giveme.Registry) (*giveme.Scope, error) {
	return reg.ScopeFromContext(c.Request().Context())
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(echo.Context, any) error

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(echo.Context, error) error

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(echo.Context, error) error
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig(reg *giveme.Registry) *HandlerConfig {
	log := reg.Logger()
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(c echo.Context, v any) error {
			log.Error("panic in handler", zap.Any("panic", v))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ScopeErrorHandler: func(c echo.Context, err error) error {
			log.Error("failed to get scope from context", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ResolutionErrorHandler: func(c echo.Context, err error) error {
			log.Error("failed to resolve controller", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// Handle wraps a controller method so the controller registered under name
// is resolved from the request scope on every request.
//
// The method signature should be: func(T, echo.Context) error
//
// Example:
//
//	e.GET("/users/:id", givemeecho.Handle(registry, "users", (*UserController).GetByID))
func Handle[T any](reg *giveme.Registry, name string, method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := defaultHandlerConfig(reg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		scope, scopeErr := reg.ScopeFromContext(c.Request().Context())
		if scopeErr != nil {
			return cfg.ScopeErrorHandler(c, scopeErr)
		}

		controller, resolveErr := giveme.Resolve[T](scope.Context(), reg, name)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}
