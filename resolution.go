package giveme

import (
	"context"
	"reflect"
)

// RegisterTo registers factory in r and returns it unchanged, so the factory
// stays directly callable by other code:
//
//	var newDB = giveme.MustRegisterTo(registry, func() (*sql.DB, error) {
//	    return sql.Open("postgres", dsn)
//	}, giveme.Name("db"), giveme.AsSingleton())
func RegisterTo[F any](r *Registry, factory F, opts ...RegisterOption) (F, error) {
	if err := r.Register(factory, opts...); err != nil {
		return factory, err
	}
	return factory, nil
}

// MustRegisterTo is like RegisterTo but panics on error.
func MustRegisterTo[F any](r *Registry, factory F, opts ...RegisterOption) F {
	f, err := RegisterTo(r, factory, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Resolve resolves name from r and asserts the value to T.
//
// Example:
//
//	db, err := giveme.Resolve[*sql.DB](ctx, registry, "db")
func Resolve[T any](ctx context.Context, r *Registry, name string) (T, error) {
	var zero T

	v, err := r.GetValue(ctx, name)
	if err != nil {
		return zero, err
	}

	if v == nil {
		// nil satisfies interface, pointer, map, slice, chan and func types
		switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return zero, nil
		}
		return zero, TypeMismatchError{Name: name, Expected: reflect.TypeOf((*T)(nil)).Elem()}
	}

	typed, ok := v.(T)
	if !ok {
		return zero, TypeMismatchError{
			Name:     name,
			Expected: reflect.TypeOf((*T)(nil)).Elem(),
			Actual:   reflect.TypeOf(v),
		}
	}

	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](ctx context.Context, r *Registry, name string) T {
	v, err := Resolve[T](ctx, r, name)
	if err != nil {
		panic(err)
	}
	return v
}
