package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/giveme"
)

// AssertResolvable checks that name resolves to a value of type T.
func AssertResolvable[T any](t *testing.T, ctx context.Context, r *giveme.Registry, name string) T {
	t.Helper()
	v, err := giveme.Resolve[T](ctx, r, name)
	require.NoError(t, err, "failed to resolve %q", name)
	return v
}

// AssertNotRegistered checks that resolving name fails with NotRegisteredError.
func AssertNotRegistered(t *testing.T, ctx context.Context, r *giveme.Registry, name string) {
	t.Helper()
	_, err := r.GetValue(ctx, name)
	require.Error(t, err)
	assert.ErrorIs(t, err, giveme.ErrNotRegistered)

	var nr giveme.NotRegisteredError
	require.ErrorAs(t, err, &nr)
	assert.Equal(t, name, nr.Name)
}

// AssertSameInstance checks that two resolutions of name yield the same pointer.
func AssertSameInstance[T any](t *testing.T, ctx context.Context, r *giveme.Registry, name string) T {
	t.Helper()
	a := AssertResolvable[*T](t, ctx, r, name)
	b := AssertResolvable[*T](t, ctx, r, name)
	assert.Same(t, a, b, "expected %q to resolve to the same instance", name)
	return *a
}

// AssertDifferentInstances checks that two resolutions of name yield distinct pointers.
func AssertDifferentInstances[T any](t *testing.T, ctx context.Context, r *giveme.Registry, name string) {
	t.Helper()
	a := AssertResolvable[*T](t, ctx, r, name)
	b := AssertResolvable[*T](t, ctx, r, name)
	assert.NotSame(t, a, b, "expected %q to resolve to distinct instances", name)
}
