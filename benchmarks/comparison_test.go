// Package benchmarks provides comparative benchmarks between giveme and other DI libraries.
//
// Run benchmarks with: go test -bench=. -benchmem ./benchmarks/
package benchmarks

import (
	"context"
	"testing"

	"github.com/samber/do/v2"
	"go.uber.org/dig"

	"github.com/junioryono/giveme"
)

// =============================================================================
// Shared Test Types
// =============================================================================

// Simple service with no dependencies
type Logger struct {
	Name string
}

func NewLogger() *Logger {
	return &Logger{Name: "logger"}
}

type Config struct {
	Value string
}

func NewConfig() *Config {
	return &Config{Value: "config"}
}

// Service with 2 dependencies
type Database struct {
	Logger *Logger
	Config *Config
}

func NewDatabase(logger *Logger, config *Config) *Database {
	return &Database{Logger: logger, Config: config}
}

func logger() *Logger { return NewLogger() }

func config() *Config { return NewConfig() }

// database resolves its dependencies by name, the way an injected giveme
// function would.
func database(r *giveme.Registry) func() (*Database, error) {
	return func() (*Database, error) {
		ctx := context.Background()
		l, err := giveme.Resolve[*Logger](ctx, r, "logger")
		if err != nil {
			return nil, err
		}
		c, err := giveme.Resolve[*Config](ctx, r, "config")
		if err != nil {
			return nil, err
		}
		return NewDatabase(l, c), nil
	}
}

func newRegistry(opts ...giveme.RegisterOption) *giveme.Registry {
	r := giveme.New()
	r.Register(logger, opts...)
	r.Register(config, opts...)
	r.Register(database(r), append([]giveme.RegisterOption{giveme.Name("database")}, opts...)...)
	return r
}

// =============================================================================
// Registration Benchmarks
// =============================================================================

func BenchmarkRegister_Giveme(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		newRegistry(giveme.AsSingleton())
	}
}

func BenchmarkRegister_Dig(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := dig.New()
		c.Provide(NewLogger)
		c.Provide(NewConfig)
		c.Provide(NewDatabase)
	}
}

func BenchmarkRegister_Do(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		injector := do.New()
		provideDo(injector)
		injector.Shutdown()
	}
}

func provideDo(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Logger, error) { return NewLogger(), nil })
	do.Provide(injector, func(i do.Injector) (*Config, error) { return NewConfig(), nil })
	do.Provide(injector, func(i do.Injector) (*Database, error) {
		logger := do.MustInvoke[*Logger](i)
		config := do.MustInvoke[*Config](i)
		return NewDatabase(logger, config), nil
	})
}

// =============================================================================
// Singleton Resolution Benchmarks
// =============================================================================

func BenchmarkResolve_Singleton_Giveme(b *testing.B) {
	r := newRegistry(giveme.AsSingleton())
	ctx := context.Background()

	// Warm up
	giveme.MustResolve[*Database](ctx, r, "database")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = giveme.MustResolve[*Database](ctx, r, "database")
	}
}

func BenchmarkResolve_Singleton_Dig(b *testing.B) {
	c := dig.New()
	c.Provide(NewLogger)
	c.Provide(NewConfig)
	c.Provide(NewDatabase)

	// Warm up
	c.Invoke(func(db *Database) {})

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Invoke(func(db *Database) {})
	}
}

func BenchmarkResolve_Singleton_Do(b *testing.B) {
	injector := do.New()
	provideDo(injector)
	defer injector.Shutdown()

	// Warm up
	do.MustInvoke[*Database](injector)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = do.MustInvoke[*Database](injector)
	}
}

// =============================================================================
// Transient Resolution Benchmarks
// =============================================================================

func BenchmarkResolve_Transient_Giveme(b *testing.B) {
	r := newRegistry()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = giveme.MustResolve[*Database](ctx, r, "database")
	}
}

func BenchmarkResolve_Transient_Do(b *testing.B) {
	injector := do.New()
	do.ProvideTransient(injector, func(i do.Injector) (*Logger, error) { return NewLogger(), nil })
	do.ProvideTransient(injector, func(i do.Injector) (*Config, error) { return NewConfig(), nil })
	do.ProvideTransient(injector, func(i do.Injector) (*Database, error) {
		return NewDatabase(do.MustInvoke[*Logger](i), do.MustInvoke[*Config](i)), nil
	})
	defer injector.Shutdown()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = do.MustInvoke[*Database](injector)
	}
}

// =============================================================================
// Scoped Resolution Benchmarks
// =============================================================================

func BenchmarkResolve_Scoped_Giveme(b *testing.B) {
	r := newRegistry(giveme.AsThreadLocal())

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		scope := r.CreateScope(context.Background())
		_ = giveme.MustResolve[*Database](scope.Context(), r, "database")
		scope.Close()
	}
}

func BenchmarkResolve_Scoped_Do(b *testing.B) {
	injector := do.New()
	defer injector.Shutdown()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		scope := injector.Scope("request")
		provideDo(scope)
		_ = do.MustInvoke[*Database](scope)
		scope.Shutdown()
	}
}

// =============================================================================
// Injection Benchmarks
// =============================================================================

func BenchmarkInject_Giveme(b *testing.B) {
	r := newRegistry(giveme.AsSingleton())
	fn := r.MustInject(func(ctx context.Context, args giveme.Args) (any, error) {
		return args["database"], nil
	}, giveme.KeywordParams("database"))
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = fn.Invoke(ctx, nil)
	}
}

func BenchmarkInject_Dig(b *testing.B) {
	c := dig.New()
	c.Provide(NewLogger)
	c.Provide(NewConfig)
	c.Provide(NewDatabase)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Invoke(func(db *Database) {})
	}
}

// =============================================================================
// Parallel Resolution Benchmarks
// =============================================================================

func BenchmarkParallel_Singleton_Giveme(b *testing.B) {
	r := newRegistry(giveme.AsSingleton())
	ctx := context.Background()
	giveme.MustResolve[*Database](ctx, r, "database")

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = giveme.MustResolve[*Database](ctx, r, "database")
		}
	})
}

func BenchmarkParallel_Singleton_Do(b *testing.B) {
	injector := do.New()
	provideDo(injector)
	defer injector.Shutdown()
	do.MustInvoke[*Database](injector)

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = do.MustInvoke[*Database](injector)
		}
	})
}
