// Package fiber provides giveme integration for the Fiber web framework.
//
// This package provides middleware that opens a giveme scope per request and
// a handler wrapper that resolves a named controller from that scope.
//
// Example usage:
//
//	registry := giveme.New()
//	registry.Register(newUserController, giveme.Name("users"), giveme.AsThreadLocal())
//
//	app := fiber.New()
//	app.Use(givemefiber.ScopeMiddleware(registry))
//
//	app.Get("/users/:id", givemefiber.Handle(registry, "users", (*UserController).GetByID))
package fiber

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/junioryono/giveme"
)

const scopeKey = "giveme_scope"

// Config holds the configuration for the scope middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a JSON 500 response is written.
	ErrorHandler func(*fiber.Ctx, error) error

	// Middlewares are functions that run after scope creation.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(*giveme.Scope, *fiber.Ctx) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after scope creation.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*giveme.Scope, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

func defaultConfig(reg *giveme.Registry) *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			reg.Logger().Error("scope middleware failed", zap.String("path", c.Path()), zap.Error(err))
			return internalError(c)
		},
	}
}

// ScopeMiddleware creates a Fiber middleware that opens a scope of reg for
// each request. The scope is stored in the user context and in Locals, and
// closed when the handler chain returns.
//
// Example:
//
//	app := fiber.New()
//	app.Use(givemefiber.ScopeMiddleware(registry))
func ScopeMiddleware(reg *giveme.Registry, opts ...Option) fiber.Handler {
	cfg := defaultConfig(reg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		scope := reg.CreateScope(c.UserContext())
		defer scope.Close()

		c.SetUserContext(scope.Context())
		c.Locals(scopeKey, scope)

		for _, mw := range cfg.Middlewares {
			if err := mw(scope, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// ScopeErrorHandler is called when scope retrieval fails.
	ScopeErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
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
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithScopeErrorHandler sets the error handler for scope retrieval failures.
func WithScopeErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ScopeErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig(reg *giveme.Registry) *HandlerConfig {
	log := reg.Logger()
	return &HandlerConfig{
		PanicRecovery: false,
		PanicHandler: func(c *fiber.Ctx, v any) error {
			log.Error("panic in handler", zap.Any("panic", v))
			return internalError(c)
		},
		ScopeErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Error("failed to get scope from context", zap.Error(err))
			return internalError(c)
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Error("failed to resolve controller", zap.Error(err))
			return internalError(c)
		},
	}
}

// Handle wraps a controller method so the controller registered under name
// is resolved from the request scope on every request.
//
// The method signature should be: func(T, *fiber.Ctx) error
//
// Example:
//
//	app.Get("/users/:id", givemefiber.Handle(registry, "users", (*UserController).GetByID))
func Handle[T any](reg *giveme.Registry, name string, method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig(reg)
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		scope, scopeErr := FromContext(c, reg)
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

// FromContext retrieves the request scope of reg from fiber.Ctx.Locals.
// This is useful when you need to resolve dependencies manually.
//
// Example:
//
//	scope, err := givemefiber.FromContext(c, registry)
//	svc, err := giveme.Resolve[*UserService](scope.Context(), registry, "users")
func FromContext(c *fiber.Ctx, reg *giveme.Registry) (*giveme.Scope, error) {
	scope, ok := c.Locals(scopeKey).(*giveme.Scope)
	if !ok || scope == nil || scope.Registry() != reg {
		return reg.ScopeFromContext(c.UserContext())
	}

	if scope.IsClosed() {
		return nil, giveme.ErrScopeClosed
	}

	return scope, nil
}
