// Package dobridge exposes registry entries to a github.com/samber/do/v2 injector.
package dobridge

import (
	"context"
	"reflect"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/junioryono/giveme"
)

// Provide registers each of names as a named transient service of type any
// in i. do calls back into r on every invocation, so the entry's policy
// decides caching. With no names, every current registration is provided.
//
// Services provided this way are invoked as any:
//
//	v, err := do.InvokeNamed[any](injector, "db")
//
// Use ProvideAs for typed lookups.
func Provide(i do.Injector, r *giveme.Registry, names ...string) error {
	if len(names) == 0 {
		names = r.Names()
	}

	for _, name := range names {
		if !r.Contains(name) {
			return giveme.NotRegisteredError{Name: name}
		}
	}

	for _, name := range names {
		do.ProvideNamedTransient(i, name, provider[any](r, name))
		r.Logger().Debug("dependency exported to do", zap.String("name", name))
	}

	return nil
}

// ProvideAs registers name as a named transient service of type T in i, so
// it can be invoked with its own type:
//
//	dobridge.ProvideAs[*sql.DB](injector, registry, "db")
//	db, err := do.InvokeNamed[*sql.DB](injector, "db")
//
// It fails with TypeMismatchError when the factory's declared type can never
// be a T. Factories declared to return an interface are checked on invocation.
func ProvideAs[T any](i do.Injector, r *giveme.Registry, name string) error {
	d, ok := r.Describe(name)
	if !ok {
		return giveme.NotRegisteredError{Name: name}
	}

	want := reflect.TypeOf((*T)(nil)).Elem()
	if d.Type.Kind() != reflect.Interface && !d.Type.AssignableTo(want) {
		return giveme.TypeMismatchError{Name: name, Expected: want, Actual: d.Type}
	}

	do.ProvideNamedTransient(i, name, provider[T](r, name))
	r.Logger().Debug("dependency exported to do",
		zap.String("name", name), zap.Stringer("type", want))

	return nil
}

func provider[T any](r *giveme.Registry, name string) do.Provider[T] {
	return func(do.Injector) (T, error) {
		return giveme.Resolve[T](context.Background(), r, name)
	}
}
