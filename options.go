package giveme

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures a Registry.
type Option interface {
	apply(*registryOptions)
}

// registryOptions holds registry configuration.
type registryOptions struct {
	logger         *zap.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// optionFunc adapts a function to Option.
type optionFunc func(*registryOptions)

func (f optionFunc) apply(opts *registryOptions) {
	f(opts)
}

// WithLogger sets the logger used for registry events. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *registryOptions) {
		opts.logger = logger
	})
}

// WithMeterProvider sets the meter provider for resolution metrics.
// Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return optionFunc(func(opts *registryOptions) {
		opts.meterProvider = mp
	})
}

// WithTracerProvider sets the tracer provider for factory spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(opts *registryOptions) {
		opts.tracerProvider = tp
	})
}

// RegisterOption configures a single registration.
type RegisterOption interface {
	applyRegister(*registerOptions)
}

// registerOptions holds registration configuration.
type registerOptions struct {
	name        string
	nameSet     bool
	singleton   bool
	threadLocal bool
}

// registerOptionFunc adapts a function to RegisterOption.
type registerOptionFunc func(*registerOptions)

func (f registerOptionFunc) applyRegister(opts *registerOptions) {
	f(opts)
}

// Name registers the factory under name instead of its declared function name.
func Name(name string) RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		opts.name = name
		opts.nameSet = true
	})
}

// AsSingleton caches the first value produced by the factory for the lifetime
// of the registration.
func AsSingleton() RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		opts.singleton = true
	})
}

// AsThreadLocal caches one value per Scope.
// Combined with AsSingleton, the singleton policy wins.
func AsThreadLocal() RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		opts.threadLocal = true
	})
}

// policy resolves the flags into a single policy. Singleton is checked first.
func (o *registerOptions) policy() Policy {
	switch {
	case o.singleton:
		return Singleton
	case o.threadLocal:
		return ThreadLocal
	default:
		return Transient
	}
}

// InjectOption configures an injected function.
type InjectOption interface {
	applyInject(*injectOptions)
}

// injectOptions holds injection configuration.
type injectOptions struct {
	overrides map[string]string
	name      string
	doc       string
}

// injectOptionFunc adapts a function to InjectOption.
type injectOptionFunc func(*injectOptions)

func (f injectOptionFunc) applyInject(opts *injectOptions) {
	f(opts)
}

// Override resolves param from the registry entry named dependency instead of
// the entry matching the parameter's own name.
func Override(param, dependency string) InjectOption {
	return injectOptionFunc(func(opts *injectOptions) {
		if opts.overrides == nil {
			opts.overrides = make(map[string]string)
		}
		opts.overrides[param] = dependency
	})
}

// Overrides applies several Override mappings at once.
func Overrides(m map[string]string) InjectOption {
	return injectOptionFunc(func(opts *injectOptions) {
		if opts.overrides == nil {
			opts.overrides = make(map[string]string, len(m))
		}
		for param, dependency := range m {
			opts.overrides[param] = dependency
		}
	})
}

// FuncName sets the name reported by the injected function and used in
// argument errors. Defaults to the wrapped function's declared name.
func FuncName(name string) InjectOption {
	return injectOptionFunc(func(opts *injectOptions) {
		opts.name = name
	})
}

// Doc attaches documentation to the injected function.
func Doc(doc string) InjectOption {
	return injectOptionFunc(func(opts *injectOptions) {
		opts.doc = doc
	})
}

func newInjectOptions(opts []InjectOption) *injectOptions {
	o := &injectOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyInject(o)
		}
	}
	return o
}

// lookup returns the registry name for param.
func (o *injectOptions) lookup(param string) string {
	if name, ok := o.overrides[param]; ok {
		return name
	}
	return param
}
