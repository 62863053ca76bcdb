package giveme

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"runtime"

	"github.com/junioryono/giveme/internal/factory"
)

// ParamKind describes how an argument may be bound to a parameter.
type ParamKind int

const (
	// PositionalOrKeyword parameters bind by position or by name, and are
	// eligible for injection.
	PositionalOrKeyword ParamKind = iota

	// KeywordOnly parameters bind by name only, and are eligible for injection.
	KeywordOnly

	// PositionalOnly parameters bind by position only and are never injected.
	PositionalOnly
)

// String returns the string representation of the ParamKind.
func (k ParamKind) String() string {
	switch k {
	case PositionalOrKeyword:
		return "PositionalOrKeyword"
	case KeywordOnly:
		return "KeywordOnly"
	case PositionalOnly:
		return "PositionalOnly"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

func (k ParamKind) positional() bool { return k == PositionalOrKeyword || k == PositionalOnly }
func (k ParamKind) keyword() bool    { return k == PositionalOrKeyword || k == KeywordOnly }

// rank orders kinds the way parameters must be declared.
func (k ParamKind) rank() int {
	switch k {
	case PositionalOnly:
		return 0
	case PositionalOrKeyword:
		return 1
	default:
		return 2
	}
}

// Param declares one parameter of an injected function.
//
// Go has no runtime parameter names, so injected functions list their
// parameters explicitly. A parameter that is neither supplied nor resolved
// takes Default, unless Required is set, in which case the call fails with
// MissingArgumentError.
type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
	Default  any
}

// KeywordParams declares optional keyword-only parameters that default to nil.
func KeywordParams(names ...string) []Param {
	params := make([]Param, len(names))
	for i, name := range names {
		params[i] = Param{Name: name, Kind: KeywordOnly}
	}
	return params
}

// Args holds arguments bound by name.
type Args map[string]any

// ArgValue returns the argument name asserted to T. The boolean is false when
// the argument is absent or has another type.
func ArgValue[T any](args Args, name string) (T, bool) {
	v, ok := args[name].(T)
	return v, ok
}

// Function is the shape of a function whose arguments are injected.
// args holds every declared parameter after binding and injection.
type Function func(ctx context.Context, args Args) (any, error)

// Injected wraps a Function so that, at call time, keyword-capable parameters
// the caller did not supply are resolved from a Registry by name.
//
// Injected does no caching of its own. Caching follows the policy of each
// resolved registration.
type Injected struct {
	registry *Registry
	fn       Function
	params   []Param
	index    map[string]int
	opts     *injectOptions
	name     string
}

// Inject wraps fn so that its params are resolved from r when not supplied
// by the caller. Use Override to resolve a parameter from a differently
// named registration.
//
// Example:
//
//	save, err := registry.Inject(
//	    func(ctx context.Context, args giveme.Args) (any, error) {
//	        db := args["db"].(*sql.DB)
//	        return nil, store(ctx, db, args["thing"])
//	    },
//	    []giveme.Param{{Name: "thing", Required: true}, {Name: "db", Required: true}},
//	)
//
//	_, err = save.Call(ctx, []any{thing}, nil)
func (r *Registry) Inject(fn Function, params []Param, opts ...InjectOption) (*Injected, error) {
	if fn == nil {
		return nil, ErrFunctionNil
	}

	o := newInjectOptions(opts)
	name := o.name
	if name == "" {
		name = functionName(fn)
	}

	index := make(map[string]int, len(params))
	last := 0
	for i, p := range params {
		if p.Name == "" {
			return nil, ArgumentError{Function: name, Cause: ErrParamNameEmpty}
		}
		if p.Kind < PositionalOrKeyword || p.Kind > PositionalOnly {
			return nil, ArgumentError{Function: name, Param: p.Name, Cause: ErrParamKind}
		}
		if _, dup := index[p.Name]; dup {
			return nil, ArgumentError{Function: name, Param: p.Name, Cause: ErrParamDuplicate}
		}
		if p.Kind.rank() < last {
			return nil, ArgumentError{Function: name, Param: p.Name, Cause: ErrParamOrder}
		}
		last = p.Kind.rank()
		index[p.Name] = i
	}

	return &Injected{
		registry: r,
		fn:       fn,
		params:   append([]Param(nil), params...),
		index:    index,
		opts:     o,
		name:     name,
	}, nil
}

// MustInject is like Inject but panics on error.
func (r *Registry) MustInject(fn Function, params []Param, opts ...InjectOption) *Injected {
	f, err := r.Inject(fn, params, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Call binds positional and keyword arguments, resolves missing
// keyword-capable parameters from the registry, and calls the wrapped function.
//
// Explicit arguments always win over injection. A parameter whose
// registration is missing is left to its Default; other resolution errors,
// including factory errors, are returned unchanged.
func (f *Injected) Call(ctx context.Context, positional []any, kwargs Args) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(f.params) == 0 {
		if len(positional) > 0 {
			return nil, ArgumentError{Function: f.name, Cause: ErrTooManyPositional}
		}
		return f.fn(ctx, maps.Clone(kwargs))
	}

	bound, err := f.bind(positional, kwargs)
	if err != nil {
		return nil, err
	}

	for _, p := range f.params {
		if !p.Kind.keyword() {
			continue
		}
		if _, ok := bound[p.Name]; ok {
			continue
		}

		lookup := f.opts.lookup(p.Name)
		v, err := f.registry.GetValue(ctx, lookup)
		if err != nil {
			if notRegisteredFor(err, lookup) {
				continue
			}
			return nil, err
		}
		bound[p.Name] = v
	}

	for _, p := range f.params {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if p.Required {
			return nil, MissingArgumentError{Function: f.name, Param: p.Name}
		}
		bound[p.Name] = p.Default
	}

	return f.fn(ctx, bound)
}

// Invoke calls the function with keyword arguments only.
func (f *Injected) Invoke(ctx context.Context, kwargs Args) (any, error) {
	return f.Call(ctx, nil, kwargs)
}

func (f *Injected) bind(positional []any, kwargs Args) (Args, error) {
	bound := make(Args, len(f.params))

	for i, v := range positional {
		if i >= len(f.params) || !f.params[i].Kind.positional() {
			return nil, ArgumentError{Function: f.name, Cause: ErrTooManyPositional}
		}
		bound[f.params[i].Name] = v
	}

	for name, v := range kwargs {
		i, ok := f.index[name]
		if !ok || !f.params[i].Kind.keyword() {
			return nil, ArgumentError{Function: f.name, Param: name, Cause: ErrUnexpectedKeyword}
		}
		if _, dup := bound[name]; dup {
			return nil, ArgumentError{Function: f.name, Param: name, Cause: ErrMultipleValues}
		}
		bound[name] = v
	}

	return bound, nil
}

// Name returns the wrapped function's name.
func (f *Injected) Name() string {
	return f.name
}

// Doc returns the documentation attached with the Doc option.
func (f *Injected) Doc() string {
	return f.opts.doc
}

// Params returns a copy of the declared parameters.
func (f *Injected) Params() []Param {
	return append([]Param(nil), f.params...)
}

// Registry returns the registry dependencies are resolved from.
func (f *Injected) Registry() *Registry {
	return f.registry
}

// String implements fmt.Stringer.
func (f *Injected) String() string {
	return fmt.Sprintf("injected %s(%d params)", f.name, len(f.params))
}

// functionName returns the declared name of fn, or "func" for closures.
func functionName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "func"
	}

	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		if name := factory.ShortName(rf.Name()); name != "" {
			return name
		}
	}
	return "func"
}
