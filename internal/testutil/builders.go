package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/junioryono/giveme"
)

// RegistryBuilder provides a fluent interface for building test registries
type RegistryBuilder struct {
	t        *testing.T
	registry *giveme.Registry
}

// NewRegistryBuilder creates a RegistryBuilder whose registry logs to the test log.
func NewRegistryBuilder(t *testing.T, opts ...giveme.Option) *RegistryBuilder {
	t.Helper()
	opts = append([]giveme.Option{giveme.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)))}, opts...)
	return &RegistryBuilder{
		t:        t,
		registry: giveme.New(opts...),
	}
}

// WithTransient registers factory under name as transient.
func (b *RegistryBuilder) WithTransient(name string, factory any) *RegistryBuilder {
	b.t.Helper()
	require.NoError(b.t, b.registry.Register(factory, giveme.Name(name)))
	return b
}

// WithSingleton registers factory under name as a singleton.
func (b *RegistryBuilder) WithSingleton(name string, factory any) *RegistryBuilder {
	b.t.Helper()
	require.NoError(b.t, b.registry.Register(factory, giveme.Name(name), giveme.AsSingleton()))
	return b
}

// WithThreadLocal registers factory under name as thread-local.
func (b *RegistryBuilder) WithThreadLocal(name string, factory any) *RegistryBuilder {
	b.t.Helper()
	require.NoError(b.t, b.registry.Register(factory, giveme.Name(name), giveme.AsThreadLocal()))
	return b
}

// Build returns the built registry
func (b *RegistryBuilder) Build() *giveme.Registry {
	return b.registry
}
