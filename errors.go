package giveme

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/giveme/internal/factory"
	"github.com/junioryono/giveme/internal/params"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================

var (
	// Resolution errors.
	ErrNotRegistered     = errors.New("dependency not registered")
	ErrScopeClosed       = errors.New("scope has been closed")
	ErrScopeNotInContext = errors.New("no scope found in context")

	// Registration errors.
	ErrFactoryNil                 = factory.ErrNil
	ErrFactoryNotFunction         = factory.ErrNotFunction
	ErrFactoryHasParams           = factory.ErrHasParams
	ErrFactoryNoReturn            = factory.ErrNoReturn
	ErrFactoryTooManyReturns      = factory.ErrTooManyReturns
	ErrFactoryInvalidSecondReturn = factory.ErrInvalidSecondReturn
	ErrNameEmpty                  = errors.New("dependency name cannot be empty")
	ErrNameRequired               = errors.New("anonymous factory requires an explicit name")

	// Injection errors.
	ErrFunctionNil       = errors.New("function cannot be nil")
	ErrParamNameEmpty    = errors.New("parameter name cannot be empty")
	ErrParamDuplicate    = errors.New("duplicate parameter name")
	ErrParamOrder        = errors.New("parameters must be ordered positional-only, positional-or-keyword, keyword-only")
	ErrParamKind         = errors.New("invalid parameter kind")
	ErrNotStruct         = params.ErrNotStruct
	ErrInvalidTag        = params.ErrInvalidTag
	ErrTooManyPositional = errors.New("too many positional arguments")
	ErrUnexpectedKeyword = errors.New("unexpected keyword argument")
	ErrMultipleValues    = errors.New("multiple values for argument")
	ErrMissingArgument   = errors.New("missing required argument")
)

var (
	_ error = PolicyError{}
	_ error = NotRegisteredError{}
	_ error = RegistrationError{}
	_ error = ResolutionError{}
	_ error = ArgumentError{}
	_ error = MissingArgumentError{}
	_ error = TypeMismatchError{}
	_ error = FactoryPanicError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// PolicyError indicates an invalid policy value.
type PolicyError struct {
	Value any
}

func (e PolicyError) Error() string {
	return fmt.Sprintf("invalid policy: %v", e.Value)
}

// NotRegisteredError is returned when a name has no registered factory.
// It matches ErrNotRegistered with errors.Is.
type NotRegisteredError struct {
	Name string
}

func (e NotRegisteredError) Error() string {
	return fmt.Sprintf("dependency %q not registered", e.Name)
}

func (e NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// RegistrationError wraps errors during registration.
type RegistrationError struct {
	Name      string // may be empty when the name could not be derived
	Operation string // "analyze", "name"
	Cause     error
}

func (e RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("failed to %s factory: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("failed to %s factory %q: %v", e.Operation, e.Name, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ResolutionError wraps failures to reach a cached value, such as resolving a
// thread-local dependency in a closed scope. Factory errors are never wrapped.
type ResolutionError struct {
	Name   string
	Policy Policy
	Cause  error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s dependency %q: %v", e.Policy, e.Name, e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// ArgumentError indicates the arguments given to an injected function could not be bound.
type ArgumentError struct {
	Function string
	Param    string
	Cause    error
}

func (e ArgumentError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s(): %v", e.Function, e.Cause)
	}
	return fmt.Sprintf("%s(): %v %q", e.Function, e.Cause, e.Param)
}

func (e ArgumentError) Unwrap() error {
	return e.Cause
}

// MissingArgumentError is returned when a required parameter was neither
// supplied by the caller nor resolved from the registry.
type MissingArgumentError struct {
	Function string
	Param    string
}

func (e MissingArgumentError) Error() string {
	return fmt.Sprintf("%s(): missing required argument %q", e.Function, e.Param)
}

func (e MissingArgumentError) Is(target error) bool {
	return target == ErrMissingArgument
}

// TypeMismatchError indicates a resolved value does not have the expected type.
type TypeMismatchError struct {
	Name     string
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("dependency %q: expected %s, got %s", e.Name, formatType(e.Expected), formatType(e.Actual))
}

// FactoryPanicError indicates a factory panicked during invocation.
// It captures the panic value and stack trace for debugging.
type FactoryPanicError = factory.PanicError

// IsNotRegistered reports whether err is, or wraps, a NotRegisteredError.
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// notRegisteredFor reports whether err says exactly name is unregistered.
// A factory that fails because one of its own lookups is missing does not count.
func notRegisteredFor(err error, name string) bool {
	var nr NotRegisteredError
	return errors.As(err, &nr) && nr.Name == name
}

func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Interface:
		if t.Name() != "" {
			return t.Name()
		}
		return strings.ReplaceAll(t.String(), "interface {}", "any")
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
