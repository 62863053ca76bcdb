// Package factory analyzes and invokes dependency factory functions.
package factory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	ErrNil                 = errors.New("factory cannot be nil")
	ErrNotFunction         = errors.New("factory must be a function")
	ErrHasParams           = errors.New("factory must take no parameters or a single context.Context")
	ErrNoReturn            = errors.New("factory must return a value")
	ErrTooManyReturns      = errors.New("factory must return at most 2 values")
	ErrInvalidSecondReturn = errors.New("factory's second return value must be error")
)

var (
	errType = reflect.TypeOf((*error)(nil)).Elem()
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Info describes an analyzed factory function.
type Info struct {
	Value    reflect.Value
	Type     reflect.Type
	Out      reflect.Type // declared value type
	HasError bool         // returns error as last value
	Context  bool         // takes a context.Context

	// Symbol is the runtime symbol of the function, e.g. "example.com/app.newDB".
	Symbol string
	// Name is the short declared name derived from Symbol. Empty for closures.
	Name string
}

// PanicError is returned by Call when the factory panics.
type PanicError struct {
	Name  string
	Panic any
	Stack []byte
}

func (e PanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("factory %q panicked: %v", e.Name, e.Panic))
	if len(e.Stack) > 0 {
		b.WriteString("\n\nStack trace:\n")
		b.Write(e.Stack)
	}
	return b.String()
}

var cache sync.Map // map[uintptr]*Info

// Analyze validates fn as a factory and extracts its metadata.
// Accepted shapes are func() T and func() (T, error), optionally taking a
// single context.Context.
func Analyze(fn any) (*Info, error) {
	if fn == nil {
		return nil, ErrNil
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Kind() != reflect.Func {
		return nil, ErrNotFunction
	}
	if val.IsNil() {
		return nil, ErrNil
	}

	// Closures share a code pointer, so the cache only covers the type checks.
	ptr := val.Pointer()
	if cached, ok := cache.Load(ptr); ok && cached.(*Info).Type == typ {
		info := *cached.(*Info)
		info.Value = val
		return &info, nil
	}

	info := &Info{
		Value: val,
		Type:  typ,
	}

	switch {
	case typ.NumIn() == 0:
	case typ.NumIn() == 1 && typ.In(0) == ctxType:
		info.Context = true
	default:
		return nil, ErrHasParams
	}

	switch typ.NumOut() {
	case 0:
		return nil, ErrNoReturn
	case 1:
		info.Out = typ.Out(0)
	case 2:
		if typ.Out(1) != errType {
			return nil, ErrInvalidSecondReturn
		}
		info.Out = typ.Out(0)
		info.HasError = true
	default:
		return nil, ErrTooManyReturns
	}

	if f := runtime.FuncForPC(ptr); f != nil {
		info.Symbol = f.Name()
		info.Name = ShortName(info.Symbol)
	}

	cache.Store(ptr, info)
	return info, nil
}

// Call invokes the factory, passing ctx when it takes one. A panic is
// recovered and returned as PanicError tagged with name.
func (i *Info) Call(ctx context.Context, name string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = PanicError{Name: name, Panic: r, Stack: debug.Stack()}
		}
	}()

	var args []reflect.Value
	if i.Context {
		args = []reflect.Value{reflect.ValueOf(&ctx).Elem()}
	}

	results := i.Value.Call(args)
	if i.HasError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}

	return results[0].Interface(), nil
}

// ShortName reduces a runtime function symbol to its declared name.
// It returns "" for anonymous functions, which have no usable name.
//
//	example.com/app.newDB            -> newDB
//	example.com/app.(*Repo).Open-fm  -> Open
//	example.com/app.build[...]       -> build
//	example.com/app.TestX.func1      -> ""
func ShortName(symbol string) string {
	s := stripBrackets(symbol)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, "-fm")

	parts := strings.Split(s, ".")
	last := parts[len(parts)-1]
	if isAnonymous(last) {
		return ""
	}

	return last
}

// stripBrackets removes generic instantiation lists such as "[...]".
func stripBrackets(s string) string {
	if !strings.Contains(s, "[") {
		return s
	}

	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAnonymous(seg string) bool {
	if seg == "" {
		return true
	}

	digits := strings.TrimPrefix(seg, "func")
	if digits == "" {
		return seg == "func"
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
