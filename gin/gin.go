// Package gin provides giveme integration for the Gin web framework.
//
// This package provides middleware that opens a giveme scope per request and
// a handler wrapper that resolves a named controller from that scope.
//
// Example usage:
//
//	registry := giveme.New()
//	registry.Register(newUserController, giveme.Name("users"), giveme.AsThreadLocal())
//
//	r := gin.Default()
//	r.Use(givemegin.ScopeMiddleware(registry))
//
//	r.GET("/users/:id", givemegin.Handle(registry, "users", (*UserController).GetByID))
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junioryono/giveme"
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(*gin.Context, error)

	// Middlewares are functions that run after scope creation.
	// They can be used to initialize request context, set user claims, etc.
	Middlewares []func(*giveme.Scope, *gin.Context) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after scope creation.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*giveme.Scope, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "Internal Server Error",
	})
}

func defaultConfig(reg *giveme.Registry) *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			reg.Logger().Error("scope middleware failed", zap.String("path", c.FullPath()), zap.Error(err))
			abortInternal(c)
		},
	}
}

// ScopeMiddleware creates a Gin middleware that opens a scope of reg for each
// request. The scope is attached to the request context and closed when the
// handler chain returns.
//
// Example:
//
//	r := gin.Default()
//	r.Use(givemegin.ScopeMiddleware(registry))
func ScopeMiddleware(reg *giveme.Registry, opts ...Option) gin.HandlerFunc {
	cfg := defaultConfig(reg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		scope := reg.CreateScope(c.Request.Context())
		defer scope.Close()

		// Attach scope to request context
		c.Request = c.Request.WithContext(scope.Context())

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// FromContext returns the request scope of reg attached to c.
func FromContext(c *gin.Context, reg *giveme.Registry) (*giveme.Scope, error) {
	return reg.ScopeFromContext(c.Request.Context())
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	// If true, panics are caught and handled by PanicHandler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*gin.Context, any)

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(*gin.Context, error)
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
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig(reg *giveme.Registry) *HandlerConfig {
	log := reg.Logger()
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(c *gin.Context, r any) {
			log.Error("panic in handler", zap.Any("panic", r))
			abortInternal(c)
		},
		ScopeErrorHandler: func(c *gin.Context, err error) {
			log.Error("failed to get scope from context", zap.Error(err))
			abortInternal(c)
		},
		ResolutionErrorHandler: func(c *gin.Context, err error) {
			log.Error("failed to resolve controller", zap.Error(err))
			abortInternal(c)
		},
	}
}

// Handle wraps a controller method so the controller registered under name
// is resolved from the request scope on every request.
//
// The method signature should be: func(T, *gin.Context)
//
// Example:
//
//	r.GET("/users/:id", givemegin.Handle(registry, "users", (*UserController).GetByID))
func Handle[T any](reg *giveme.Registry, name string, method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig(reg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if r := recover(); r != nil {
					cfg.PanicHandler(c, r)
				}
			}()
		}

		scope, err := reg.ScopeFromContext(c.Request.Context())
		if err != nil {
			cfg.ScopeErrorHandler(c, err)
			return
		}

		controller, err := giveme.Resolve[T](scope.Context(), reg, name)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}
