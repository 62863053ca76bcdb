package digbridge_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/junioryono/giveme"
	"github.com/junioryono/giveme/digbridge"
)

type Database struct {
	DSN string
}

type Service struct {
	DB *Database
}

func TestProvide(t *testing.T) {
	r := giveme.New()
	require.NoError(t, r.Register(func() *Database { return &Database{DSN: "mem"} }, giveme.Name("db"), giveme.AsSingleton()))
	require.NoError(t, r.Register(func() string { return "hello" }, giveme.Name("greeting")))

	c := dig.New()
	require.NoError(t, digbridge.Provide(c, r))

	type params struct {
		dig.In

		DB       *Database `name:"db"`
		Greeting string    `name:"greeting"`
	}

	err := c.Invoke(func(p params) {
		assert.Equal(t, "mem", p.DB.DSN)
		assert.Equal(t, "hello", p.Greeting)

		same, err := giveme.Resolve[*Database](t.Context(), r, "db")
		require.NoError(t, err)
		assert.Same(t, same, p.DB)
	})
	require.NoError(t, err)
}

func TestProvide_ConsumedByConstructor(t *testing.T) {
	r := giveme.New()
	require.NoError(t, r.Register(func() *Database { return &Database{DSN: "mem"} }, giveme.Name("db")))

	c := dig.New()
	require.NoError(t, digbridge.Provide(c, r, "db"))

	type in struct {
		dig.In
		DB *Database `name:"db"`
	}
	require.NoError(t, c.Provide(func(p in) *Service { return &Service{DB: p.DB} }))

	require.NoError(t, c.Invoke(func(s *Service) {
		assert.Equal(t, "mem", s.DB.DSN)
	}))
}

func TestProvide_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	r := giveme.New()
	require.NoError(t, r.Register(func() (*Database, error) { return nil, boom }, giveme.Name("db")))

	c := dig.New()
	require.NoError(t, digbridge.Provide(c, r))

	type in struct {
		dig.In
		DB *Database `name:"db"`
	}
	err := c.Invoke(func(in) {})
	require.Error(t, err)
	assert.ErrorIs(t, dig.RootCause(err), boom)
}

func TestProvide_NotRegistered(t *testing.T) {
	err := digbridge.Provide(dig.New(), giveme.New(), "missing")
	assert.True(t, giveme.IsNotRegistered(err))
}

func TestProvide_Duplicate(t *testing.T) {
	r := giveme.New()
	require.NoError(t, r.Register(func() int { return 1 }, giveme.Name("n")))

	c := dig.New()
	require.NoError(t, digbridge.Provide(c, r))
	assert.Error(t, digbridge.Provide(c, r))
}
