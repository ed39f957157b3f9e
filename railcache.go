// Package railcache provides the caching subsystem for the fleet induction
// and scheduling platform. It offers a generic cache service over a
// pluggable key/value backend plus typed façades for the trainset, schedule,
// optimization and analytics domains.
//
// The cache is an optimization layer, never a source of truth: every
// operation fails open, so a backend outage degrades to cache misses and the
// persistent store keeps serving reads. External write paths are responsible
// for calling the façade invalidators after mutating the store.
package railcache

import (
	"github.com/railcache/railcache/pkg/backend"
)

// Middleware decorates a storage backend with additional behavior such as
// tracing, logging or fault injection. A middleware receives the next
// backend in the chain and returns the wrapped backend.
type Middleware func(backend.Backend) backend.Backend

// Chain represents a chain of backend middleware
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new middleware chain
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{
		middlewares: middlewares,
	}
}

// Append adds middleware to the end of the chain
func (c *Chain) Append(middlewares ...Middleware) *Chain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// Prepend adds middleware to the beginning of the chain
func (c *Chain) Prepend(middlewares ...Middleware) *Chain {
	c.middlewares = append(middlewares, c.middlewares...)
	return c
}

// Wrap applies the chain to a backend. Middleware are applied in reverse
// order so the first middleware in the chain observes operations first.
func (c *Chain) Wrap(b backend.Backend) backend.Backend {
	wrapped := b
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		wrapped = c.middlewares[i](wrapped)
	}
	return wrapped
}

// Wrap applies middleware to a backend without building a Chain first
func Wrap(b backend.Backend, middlewares ...Middleware) backend.Backend {
	return NewChain(middlewares...).Wrap(b)
}
