package giveme

import (
	"context"
	"sync/atomic"
)

// defaultRegistry holds the registry used by the package-level functions.
var defaultRegistry atomic.Pointer[Registry]

func init() {
	defaultRegistry.Store(New())
}

// SetDefault sets the registry used by the package-level functions.
// This is similar to slog.SetDefault. Passing nil installs a fresh, empty registry.
func SetDefault(r *Registry) {
	if r == nil {
		r = New()
	}
	defaultRegistry.Store(r)
}

// Default returns the registry used by the package-level functions.
func Default() *Registry {
	return defaultRegistry.Load()
}

// Register registers factory in the default registry and returns it unchanged.
func Register[F any](factory F, opts ...RegisterOption) (F, error) {
	return RegisterTo(Default(), factory, opts...)
}

// MustRegister is like Register but panics on error. It is meant for
// package-level registration:
//
//	var counter = giveme.MustRegister(newCounter, giveme.AsSingleton())
func MustRegister[F any](factory F, opts ...RegisterOption) F {
	return MustRegisterTo(Default(), factory, opts...)
}

// Inject wraps fn with injection from the default registry.
func Inject(fn Function, params []Param, opts ...InjectOption) (*Injected, error) {
	return Default().Inject(fn, params, opts...)
}

// MustInject is like Inject but panics on error.
func MustInject(fn Function, params []Param, opts ...InjectOption) *Injected {
	return Default().MustInject(fn, params, opts...)
}

// GetValue resolves name from the default registry.
func GetValue(ctx context.Context, name string) (any, error) {
	return Default().GetValue(ctx, name)
}
