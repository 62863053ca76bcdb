package giveme

import (
	"context"
	"reflect"

	"github.com/junioryono/giveme/internal/params"
)

// InjectStruct wraps fn so that zero-valued fields of its parameter object P
// are resolved from r before the call.
//
// Every exported field of P is a keyword parameter named by its `inject` tag,
// or by the field name when untagged. `inject:"-"` excludes a field and
// `optional:"true"` lets it stay zero when nothing is registered under its
// name. A field the caller already set is never overwritten. Override
// applies to the parameter name.
//
// A field holding its zero value counts as unset, so an explicit false, 0 or
// "" is replaced by the registered value. Use a pointer field when the
// caller must be able to pass a zero value: a non-nil pointer to false is
// kept as given.
//
// Example:
//
//	type SaveParams struct {
//	    Thing string `inject:"-"`
//	    DB    *sql.DB `inject:"db"`
//	    Log   *zap.Logger `inject:"logger" optional:"true"`
//	}
//
//	save, err := giveme.InjectStruct(registry, func(ctx context.Context, p SaveParams) (int64, error) {
//	    return store(ctx, p.DB, p.Thing)
//	})
//
//	n, err := save(ctx, SaveParams{Thing: "x"})
func InjectStruct[P any, R any](r *Registry, fn func(context.Context, P) (R, error), opts ...InjectOption) (func(context.Context, P) (R, error), error) {
	if fn == nil {
		return nil, ErrFunctionNil
	}

	o := newInjectOptions(opts)
	name := o.name
	if name == "" {
		name = functionName(fn)
	}

	info, err := params.Analyze(reflect.TypeOf((*P)(nil)).Elem())
	if err != nil {
		return nil, ArgumentError{Function: name, Cause: err}
	}

	return func(ctx context.Context, p P) (R, error) {
		var zero R
		if ctx == nil {
			ctx = context.Background()
		}

		v := reflect.ValueOf(&p).Elem()
		for _, f := range info.Fields {
			field := v.Field(f.Index)
			if !field.IsZero() {
				continue
			}

			lookup := o.lookup(f.Name)
			resolved, err := r.GetValue(ctx, lookup)
			if err != nil {
				if !notRegisteredFor(err, lookup) {
					return zero, err
				}
				if !f.Optional {
					return zero, MissingArgumentError{Function: name, Param: f.Name}
				}
				continue
			}

			if resolved == nil {
				continue
			}

			rv := reflect.ValueOf(resolved)
			if !rv.Type().AssignableTo(f.Type) {
				return zero, TypeMismatchError{Name: lookup, Expected: f.Type, Actual: rv.Type()}
			}
			field.Set(rv)
		}

		return fn(ctx, p)
	}, nil
}

// MustInjectStruct is like InjectStruct but panics on error.
func MustInjectStruct[P any, R any](r *Registry, fn func(context.Context, P) (R, error), opts ...InjectOption) func(context.Context, P) (R, error) {
	wrapped, err := InjectStruct(r, fn, opts...)
	if err != nil {
		panic(err)
	}
	return wrapped
}
