package giveme

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junioryono/giveme/internal/cache"
)

// Scope is the unit of isolation for ThreadLocal dependencies. Each scope
// caches at most one value per registration. Go has no goroutine-local
// storage, so a scope travels in a context.Context instead.
//
// In web applications a scope is typically created per request:
//
//	scope := registry.CreateScope(r.Context())
//	defer scope.Close()
//
//	tx, err := registry.GetValue(scope.Context(), "tx")
//
// Scope is safe for concurrent use.
type Scope struct {
	id       string
	registry *Registry
	ctx      context.Context
	values   *cache.Store[instanceKey]
	root     bool

	closed atomic.Bool
	mu     sync.Mutex
	stop   func() bool
}

// scopeContextKey is the key for storing a registry's scope in a context.
// Keying by registry lets one context carry scopes of several registries.
type scopeContextKey struct {
	registry *Registry
}

func newRootScope(r *Registry) *Scope {
	return &Scope{
		id:       uuid.NewString(),
		registry: r,
		ctx:      context.Background(),
		values:   cache.New[instanceKey](),
		root:     true,
	}
}

// CreateScope creates a scope bound to ctx. The scope closes when ctx is done
// or when Close is called, whichever comes first.
func (r *Registry) CreateScope(ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Scope{
		id:       uuid.NewString(),
		registry: r,
		values:   cache.New[instanceKey](),
	}
	s.ctx = context.WithValue(ctx, scopeContextKey{registry: r}, s)

	r.scopesMu.Lock()
	r.scopes[s.id] = s
	r.scopesMu.Unlock()

	s.mu.Lock()
	s.stop = context.AfterFunc(ctx, s.Close)
	s.mu.Unlock()

	r.logger.Debug("scope created", zap.String("scope", s.id))
	return s
}

// ScopeFromContext returns the registry's scope carried by ctx.
func (r *Registry) ScopeFromContext(ctx context.Context) (*Scope, error) {
	if ctx == nil {
		return nil, ErrScopeNotInContext
	}

	s, ok := ctx.Value(scopeContextKey{registry: r}).(*Scope)
	if !ok || s == nil {
		return nil, ErrScopeNotInContext
	}

	if s.IsClosed() {
		return nil, ErrScopeClosed
	}

	return s, nil
}

// scopeFor picks the scope for a ThreadLocal resolution.
func (r *Registry) scopeFor(ctx context.Context) (*Scope, error) {
	s, err := r.ScopeFromContext(ctx)
	switch err {
	case nil:
		return s, nil
	case ErrScopeNotInContext:
		return r.root, nil
	default:
		return nil, err
	}
}

// ID returns the unique ID of this scope.
func (s *Scope) ID() string {
	return s.id
}

// Context returns a context carrying this scope. Pass it to GetValue and
// injected functions to resolve ThreadLocal dependencies in this scope.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Registry returns the registry that created this scope.
func (s *Scope) Registry() *Registry {
	return s.registry
}

// IsRoot reports whether this is the registry's root scope, used when a
// context carries no scope.
func (s *Scope) IsRoot() bool {
	return s.root
}

// IsClosed reports whether Close has been called or the scope's context is done.
func (s *Scope) IsClosed() bool {
	return s.closed.Load()
}

// Len returns the number of values cached in this scope.
func (s *Scope) Len() int {
	return s.values.Len()
}

// Close drops the scope's cached values. Values are not disposed.
// Closing the root scope or an already closed scope is a no-op.
func (s *Scope) Close() {
	if s.root || !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}

	s.registry.scopesMu.Lock()
	delete(s.registry.scopes, s.id)
	s.registry.scopesMu.Unlock()

	s.values.Clear()

	s.registry.logger.Debug("scope closed", zap.String("scope", s.id))
}
