// Package giveme is a small dependency registry with name-based injection.
//
// # Overview
//
// Factories are registered under a name. Functions declare the dependencies
// they need by parameter name and receive them at call time:
//   - Three caching policies: Transient, Singleton and ThreadLocal
//   - Names derived from the factory's declared function name
//   - Explicit arguments always win over injected ones
//   - Isolated registries for tests, plus a process-wide default
//   - Thread-safe operations
//
// # Basic Usage
//
//	registry := giveme.New()
//
//	func db() (*sql.DB, error) { return sql.Open("sqlite", ":memory:") }
//
//	if err := registry.Register(db, giveme.AsSingleton()); err != nil {
//	    log.Fatal(err)
//	}
//
//	conn, err := giveme.Resolve[*sql.DB](ctx, registry, "db")
//
// # Policies
//
//   - Transient: the factory runs on every resolution
//   - Singleton: the factory runs once; the value is shared until the name is
//     removed, re-registered or the registry is cleared
//   - ThreadLocal: the factory runs once per Scope
//
// Singleton and ThreadLocal factories run at most once per cache even when
// many goroutines resolve the same name concurrently.
//
// # Scopes
//
// Go has no thread-local storage, so ThreadLocal values live in a Scope that
// travels in a context.Context:
//
//	scope := registry.CreateScope(r.Context())
//	defer scope.Close()
//
//	tx, err := registry.GetValue(scope.Context(), "tx")
//
// A context without a scope resolves ThreadLocal values in the registry's root scope.
//
// A factory that looks up other dependencies should take the context it is
// resolved with, so those lookups share the caller's scope:
//
//	registry.Register(func(ctx context.Context) (*Repo, error) {
//	    tx, err := giveme.Resolve[*sql.Tx](ctx, registry, "tx")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &Repo{tx: tx}, nil
//	}, giveme.Name("repo"))
//
// # Injection
//
// Go cannot read parameter names at runtime, so injected functions declare them:
//
//	greet := registry.MustInject(
//	    func(ctx context.Context, args giveme.Args) (any, error) {
//	        return fmt.Sprintf("hello from %v", args["service"]), nil
//	    },
//	    giveme.KeywordParams("service"),
//	    giveme.Override("service", "svc2"),
//	)
//
//	out, err := greet.Invoke(ctx, nil)
//
// Struct parameter objects work too; see InjectStruct.
//
// # Error Handling
//
//   - NotRegisteredError: the name has no registration (matches ErrNotRegistered)
//   - RegistrationError: the factory or its name is invalid
//   - MissingArgumentError: a required parameter was neither passed nor resolved
//   - ArgumentError: the call's arguments could not be bound
//   - FactoryPanicError: a factory panicked
//
// Errors returned by factories are passed through unchanged.
package giveme
