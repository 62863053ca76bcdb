package testutil

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrIntentional = errors.New("intentional error")
	ErrFactory     = errors.New("factory error")
)

// TestService is a basic test service
type TestService struct {
	ID        string
	CreatedAt time.Time
	Data      string
}

// NewTestService creates a new test service
func NewTestService() *TestService {
	return &TestService{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Data:      "test",
	}
}

// Database is a stand-in for a connection handle.
type Database struct {
	DSN string
}

// Counter counts factory invocations.
type Counter struct {
	calls atomic.Int64
}

// Calls returns the number of recorded invocations.
func (c *Counter) Calls() int {
	return int(c.calls.Load())
}

// Ints returns a factory that yields 1, 2, 3... on successive calls.
func (c *Counter) Ints() func() int {
	return func() int {
		return int(c.calls.Add(1))
	}
}

// Services returns a factory that yields a fresh *TestService per call.
func (c *Counter) Services() func() *TestService {
	return func() *TestService {
		c.calls.Add(1)
		return NewTestService()
	}
}

// Failing returns a factory that always fails with err.
func (c *Counter) Failing(err error) func() (any, error) {
	return func() (any, error) {
		c.calls.Add(1)
		return nil, err
	}
}

// Slow returns a factory that sleeps for d before yielding a fresh *TestService.
func (c *Counter) Slow(d time.Duration) func() *TestService {
	return func() *TestService {
		c.calls.Add(1)
		time.Sleep(d)
		return NewTestService()
	}
}
