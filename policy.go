package giveme

import (
	"encoding/json"
	"fmt"
)

// Policy specifies how the values produced by a registered factory are cached.
// A policy is fixed when the factory is registered.
type Policy int

const (
	// Transient invokes the factory on every resolution. Nothing is cached.
	Transient Policy = iota

	// Singleton invokes the factory once and shares the value for the lifetime
	// of the registration.
	Singleton

	// ThreadLocal invokes the factory once per Scope. The scope is taken from
	// the context passed to GetValue; without one, the registry's root scope is used.
	ThreadLocal
)

// String returns the string representation of the Policy.
func (p Policy) String() string {
	switch p {
	case Transient:
		return "Transient"
	case Singleton:
		return "Singleton"
	case ThreadLocal:
		return "ThreadLocal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// IsValid checks if the policy is valid.
func (p Policy) IsValid() bool {
	return p >= Transient && p <= ThreadLocal
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, PolicyError{Value: int(p)}
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Transient", "transient":
		*p = Transient
	case "Singleton", "singleton":
		*p = Singleton
	case "ThreadLocal", "threadlocal", "thread-local", "thread_local":
		*p = ThreadLocal
	default:
		return PolicyError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Policy) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return p.UnmarshalText([]byte(s))
}
