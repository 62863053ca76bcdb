package giveme

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junioryono/giveme/internal/cache"
	"github.com/junioryono/giveme/internal/factory"
	"github.com/junioryono/giveme/internal/telemetry"
)

// Registry maps dependency names to factories and caches the values they
// produce according to each registration's Policy.
//
// Registry is safe for concurrent use. The zero value is not usable; create
// registries with New.
type Registry struct {
	id string

	mu      sync.RWMutex
	entries map[string]*entry
	serial  atomic.Uint64

	singletons *cache.Store[instanceKey]
	root       *Scope

	scopesMu sync.Mutex
	scopes   map[string]*Scope

	logger    *zap.Logger
	telemetry *telemetry.Recorder
}

// entry is a single registration.
type entry struct {
	name    string
	factory any
	info    *factory.Info
	policy  Policy
	serial  uint64
}

// instanceKey identifies a cached value. The serial ties the value to one
// registration, so values of a replaced registration are never served.
type instanceKey struct {
	name   string
	serial uint64
}

// Descriptor is a read-only view of a registration.
type Descriptor struct {
	Name    string
	Policy  Policy
	Type    reflect.Type // value type declared by the factory
	Factory any
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	o := &registryOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(o)
		}
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		id:         uuid.NewString(),
		entries:    make(map[string]*entry),
		singletons: cache.New[instanceKey](),
		scopes:     make(map[string]*Scope),
	}
	r.logger = logger.With(zap.String("registry", r.id))
	r.root = newRootScope(r)

	rec, err := telemetry.New(o.meterProvider, o.tracerProvider)
	if err != nil {
		r.logger.Warn("telemetry initialization failed, using no-op recorder", zap.Error(err))
		rec = telemetry.Noop()
	}
	r.telemetry = rec

	return r
}

// ID returns the unique identifier of the registry.
func (r *Registry) ID() string {
	return r.id
}

// Logger returns the registry's logger.
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

// Register stores factory under its declared function name, or under the
// name given with Name. Registering an existing name silently replaces the
// previous registration and discards its cached values.
//
// factory must have the shape func() T or func() (T, error), optionally
// taking a single context.Context.
func (r *Registry) Register(factoryFn any, opts ...RegisterOption) error {
	o := &registerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyRegister(o)
		}
	}

	info, err := factory.Analyze(factoryFn)
	if err != nil {
		return RegistrationError{Name: o.name, Operation: "analyze", Cause: err}
	}

	name := o.name
	if !o.nameSet {
		if info.Name == "" {
			return RegistrationError{Operation: "name", Cause: ErrNameRequired}
		}
		name = info.Name
	}
	if name == "" {
		return RegistrationError{Operation: "name", Cause: ErrNameEmpty}
	}

	policy := o.policy()
	if o.singleton && o.threadLocal {
		r.logger.Warn("both singleton and thread-local requested, using singleton",
			zap.String("name", name))
	}

	e := &entry{
		name:    name,
		factory: factoryFn,
		info:    info,
		policy:  policy,
		serial:  r.serial.Add(1),
	}

	r.mu.Lock()
	_, replaced := r.entries[name]
	r.entries[name] = e
	r.mu.Unlock()

	if replaced {
		r.evict(name)
		r.logger.Debug("dependency replaced", zap.String("name", name), zap.Stringer("policy", policy))
	} else {
		r.logger.Debug("dependency registered", zap.String("name", name), zap.Stringer("policy", policy))
	}

	return nil
}

// Remove deletes the registration for name and discards its cached values.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	if _, ok := r.entries[name]; !ok {
		r.mu.Unlock()
		return NotRegisteredError{Name: name}
	}
	delete(r.entries, name)
	r.mu.Unlock()

	r.evict(name)
	r.logger.Debug("dependency removed", zap.String("name", name))
	return nil
}

// Get returns the factory registered under name without invoking it.
// The boolean is false when name is not registered.
func (r *Registry) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

// GetValue resolves name to a value according to its policy.
//
// It returns NotRegisteredError when name is unknown. Errors returned by the
// factory are passed through unchanged; a panicking factory yields
// FactoryPanicError. ThreadLocal values are cached in the scope carried by
// ctx, or in the registry's root scope when ctx carries none.
//
// Factories taking a context.Context receive ctx, so lookups they make share
// the caller's scope. A Singleton or ThreadLocal factory must not resolve its
// own name; the nested call waits for the outer one.
func (r *Registry) GetValue(ctx context.Context, name string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NotRegisteredError{Name: name}
	}

	switch e.policy {
	case Singleton:
		return r.cached(ctx, e, r.singletons, nil)
	case ThreadLocal:
		s, err := r.scopeFor(ctx)
		if err != nil {
			return nil, ResolutionError{Name: name, Policy: e.policy, Cause: err}
		}
		return r.cached(ctx, e, s.values, s)
	default:
		v, err := r.invoke(ctx, e)
		if err != nil {
			return nil, err
		}
		r.telemetry.Resolution(ctx, e.name, e.policy.String(), false)
		return v, nil
	}
}

// cached resolves e through store, invoking the factory at most once.
// scope is nil for singletons.
func (r *Registry) cached(ctx context.Context, e *entry, store *cache.Store[instanceKey], scope *Scope) (any, error) {
	key := instanceKey{name: e.name, serial: e.serial}
	v, created, err := store.GetOrCreate(key, func() (any, error) {
		return r.invoke(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	// A creation that finished after Remove, re-registration or Close
	// evicted this key would otherwise stay in the store, unreachable.
	if created && (!r.current(e) || (scope != nil && scope.IsClosed())) {
		store.Delete(key)
	}

	r.telemetry.Resolution(ctx, e.name, e.policy.String(), !created)
	return v, nil
}

func (r *Registry) invoke(ctx context.Context, e *entry) (any, error) {
	ctx, end := r.telemetry.Factory(ctx, e.name, e.policy.String())
	v, err := e.info.Call(ctx, e.name)
	end(err)
	return v, err
}

// current reports whether e is still the registration for its name.
func (r *Registry) current(e *entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cur, ok := r.entries[e.name]
	return ok && cur.serial == e.serial
}

// Clear removes every registration, the singleton cache, and the
// ThreadLocal values of the root scope and every open scope.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	r.singletons.Clear()
	r.root.values.Clear()

	r.scopesMu.Lock()
	for _, s := range r.scopes {
		s.values.Clear()
	}
	r.scopesMu.Unlock()

	r.logger.Debug("registry cleared")
}

// evict drops cached values of name from every cache.
func (r *Registry) evict(name string) {
	match := func(k instanceKey) bool { return k.name == name }

	r.singletons.DeleteFunc(match)
	r.root.values.DeleteFunc(match)

	r.scopesMu.Lock()
	for _, s := range r.scopes {
		s.values.DeleteFunc(match)
	}
	r.scopesMu.Unlock()
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Describe returns a view of the registration for name.
func (r *Registry) Describe(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return Descriptor{
		Name:    e.name,
		Policy:  e.policy,
		Type:    e.info.Out,
		Factory: e.factory,
	}, true
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
