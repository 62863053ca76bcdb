package fiber

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/giveme"
)

// Test types
type testService struct {
	ID    string
	Value int
}

type testController struct {
	Service *testService
}

func (c *testController) GetValue(ctx *fiber.Ctx) error {
	return ctx.SendString(c.Service.ID + ":" + ctx.Params("id"))
}

func (c *testController) Panic(ctx *fiber.Ctx) error {
	panic("test panic")
}

func newRegistry(t *testing.T, id string) (*giveme.Registry, *atomic.Int32) {
	t.Helper()

	calls := new(atomic.Int32)
	reg := giveme.New()
	require.NoError(t, reg.Register(func() *testController {
		calls.Add(1)
		return &testController{Service: &testService{ID: id, Value: 42}}
	}, giveme.Name("controller"), giveme.AsThreadLocal()))

	return reg, calls
}

func TestScopeMiddleware(t *testing.T) {
	t.Run("creates scope and stores in locals", func(t *testing.T) {
		reg, calls := newRegistry(t, "scoped")

		var first, second *testController
		var scope *giveme.Scope

		app := fiber.New()
		app.Use(ScopeMiddleware(reg))
		app.Get("/test", func(c *fiber.Ctx) error {
			var err error
			scope, err = FromContext(c, reg)
			require.NoError(t, err)

			first, err = giveme.Resolve[*testController](scope.Context(), reg, "controller")
			require.NoError(t, err)
			second, err = giveme.Resolve[*testController](c.UserContext(), reg, "controller")
			require.NoError(t, err)

			return c.SendStatus(http.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, first)
		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
		assert.True(t, scope.IsClosed())
	})

	t.Run("runs middlewares in order", func(t *testing.T) {
		reg, _ := newRegistry(t, "test")
		var mwOrder []int

		app := fiber.New()
		app.Use(ScopeMiddleware(reg,
			WithMiddleware(func(scope *giveme.Scope, c *fiber.Ctx) error {
				mwOrder = append(mwOrder, 1)
				return nil
			}),
			WithMiddleware(func(scope *giveme.Scope, c *fiber.Ctx) error {
				mwOrder = append(mwOrder, 2)
				return nil
			}),
		))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, []int{1, 2}, mwOrder)
	})

	t.Run("calls error handler when middleware fails", func(t *testing.T) {
		reg, _ := newRegistry(t, "test")
		expectedErr := errors.New("middleware failed")
		errorHandlerCalled := false

		app := fiber.New()
		app.Use(ScopeMiddleware(reg,
			WithMiddleware(func(scope *giveme.Scope, c *fiber.Ctx) error {
				return expectedErr
			}),
			WithErrorHandler(func(c *fiber.Ctx, err error) error {
				errorHandlerCalled = true
				assert.Equal(t, expectedErr, err)
				return c.SendStatus(http.StatusBadRequest)
			}),
		))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves controller and calls method", func(t *testing.T) {
		reg, _ := newRegistry(t, "handled")

		app := fiber.New()
		app.Use(ScopeMiddleware(reg))
		app.Get("/value/:id", Handle(reg, "controller", (*testController).GetValue))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/value/7", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "handled:7", string(body))
	})

	t.Run("calls scope error handler when no scope", func(t *testing.T) {
		reg, _ := newRegistry(t, "test")
		var gotErr error

		app := fiber.New()
		app.Get("/value/:id", Handle(reg, "controller", (*testController).GetValue,
			WithScopeErrorHandler(func(c *fiber.Ctx, err error) error {
				gotErr = err
				return c.SendStatus(http.StatusInternalServerError)
			}),
		))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/value/1", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.ErrorIs(t, gotErr, giveme.ErrScopeNotInContext)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("calls resolution error handler when controller not registered", func(t *testing.T) {
		reg, _ := newRegistry(t, "test")
		var gotErr error

		app := fiber.New()
		app.Use(ScopeMiddleware(reg))
		app.Get("/value/:id", Handle(reg, "missing", (*testController).GetValue,
			WithResolutionErrorHandler(func(c *fiber.Ctx, err error) error {
				gotErr = err
				return c.SendStatus(http.StatusNotFound)
			}),
		))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/value/1", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.True(t, giveme.IsNotRegistered(gotErr))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("recovers from panic when enabled", func(t *testing.T) {
		reg, _ := newRegistry(t, "test")
		panicHandlerCalled := false

		app := fiber.New()
		app.Use(ScopeMiddleware(reg))
		app.Get("/panic", Handle(reg, "controller", (*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(c *fiber.Ctx, v any) error {
				panicHandlerCalled = true
				assert.Equal(t, "test panic", v)
				return c.SendStatus(http.StatusInternalServerError)
			}),
		))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.True(t, panicHandlerCalled)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestFromContext(t *testing.T) {
	t.Run("errors when no scope", func(t *testing.T) {
		reg := giveme.New()
		var gotErr error

		app := fiber.New()
		app.Get("/test", func(c *fiber.Ctx) error {
			_, gotErr = FromContext(c, reg)
			return c.SendStatus(http.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.ErrorIs(t, gotErr, giveme.ErrScopeNotInContext)
	})

	t.Run("ignores scopes of other registries", func(t *testing.T) {
		reg := giveme.New()
		other := giveme.New()
		var gotErr error

		app := fiber.New()
		app.Use(ScopeMiddleware(other))
		app.Get("/test", func(c *fiber.Ctx) error {
			_, gotErr = FromContext(c, reg)
			return c.SendStatus(http.StatusOK)
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.ErrorIs(t, gotErr, giveme.ErrScopeNotInContext)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Run("default error handler returns JSON error", func(t *testing.T) {
		cfg := defaultConfig(giveme.New())

		app := fiber.New()
		app.Get("/test", func(c *fiber.Ctx) error {
			return cfg.ErrorHandler(c, errors.New("test error"))
		})

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, string(body))
	})
}

func TestDefaultHandlerConfig(t *testing.T) {
	t.Run("panic recovery disabled by default", func(t *testing.T) {
		cfg := defaultHandlerConfig(giveme.New())
		assert.False(t, cfg.PanicRecovery)
	})
}
