// Package digbridge exposes registry entries to a go.uber.org/dig container.
package digbridge

import (
	"context"
	"fmt"
	"reflect"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/junioryono/giveme"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Provide registers a named dig constructor for each of names. Every dig
// invocation resolves the value through r, so the entry's policy decides
// caching within the registry; dig itself still calls each constructor at
// most once per container.
//
// With no names, every current registration is provided.
//
// Consumers request the values with dig.In name tags:
//
//	type Params struct {
//	    dig.In
//	    DB *sql.DB `name:"db"`
//	}
func Provide(c *dig.Container, r *giveme.Registry, names ...string) error {
	if len(names) == 0 {
		names = r.Names()
	}

	for _, name := range names {
		d, ok := r.Describe(name)
		if !ok {
			return giveme.NotRegisteredError{Name: name}
		}

		if err := c.Provide(constructor(r, d).Interface(), dig.Name(name)); err != nil {
			return fmt.Errorf("provide %q to dig: %w", name, err)
		}

		r.Logger().Debug("dependency exported to dig", zap.String("name", name))
	}

	return nil
}

// constructor builds a func() (T, error) for the declared type of d.
func constructor(r *giveme.Registry, d giveme.Descriptor) reflect.Value {
	out := d.Type
	fnType := reflect.FuncOf(nil, []reflect.Type{out, errorType}, false)

	return reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		v, err := r.GetValue(context.Background(), d.Name)
		if err != nil {
			return []reflect.Value{reflect.Zero(out), reflect.ValueOf(&err).Elem()}
		}

		if v == nil {
			return []reflect.Value{reflect.Zero(out), reflect.Zero(errorType)}
		}

		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(out) {
			err := error(giveme.TypeMismatchError{Name: d.Name, Expected: out, Actual: rv.Type()})
			return []reflect.Value{reflect.Zero(out), reflect.ValueOf(&err).Elem()}
		}

		result := reflect.New(out).Elem()
		result.Set(rv)
		return []reflect.Value{result, reflect.Zero(errorType)}
	})
}
