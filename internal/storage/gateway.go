package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"study-session-engine/internal/domain"
)

// Backend is one persistence strategy for opaque key/value collections.
// Read returns (nil, nil) for a missing key; errors mean the backend itself
// failed and the gateway should try the next one in order.
type Backend interface {
	Name() string
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Gateway tries an ordered list of backends. The first backend is
// authoritative: later ones are only consulted after a failure, so adding a
// backend is a list insertion, not a new branch. Every attempt runs under a
// bounded timeout so a hung backend counts as a failure instead of blocking.
type Gateway struct {
	backends []Backend
	timeout  time.Duration
}

const defaultTimeout = 3 * time.Second

func NewGateway(timeout time.Duration, backends ...Backend) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{backends: backends, timeout: timeout}
}

// Read returns the value at key, or (nil, nil) when no backend has it.
func (g *Gateway) Read(ctx context.Context, key string) ([]byte, error) {
	var failures []string
	for _, b := range g.backends {
		value, err := g.attemptRead(ctx, b, key)
		if err == nil {
			return value, nil
		}
		failures = append(failures, b.Name()+": "+err.Error())
	}
	return nil, unavailable("read", key, failures)
}

// Write fully replaces the value at key. A single backend write is the unit
// of atomicity; there are no merge semantics.
func (g *Gateway) Write(ctx context.Context, key string, value []byte) error {
	var failures []string
	for _, b := range g.backends {
		err := g.attemptWrite(ctx, b, key, value)
		if err == nil {
			return nil
		}
		failures = append(failures, b.Name()+": "+err.Error())
	}
	return unavailable("write", key, failures)
}

// Delete removes the value at key. Deleting a missing key is not an error.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	var failures []string
	for _, b := range g.backends {
		err := g.attemptDelete(ctx, b, key)
		if err == nil {
			return nil
		}
		failures = append(failures, b.Name()+": "+err.Error())
	}
	return unavailable("delete", key, failures)
}

func (g *Gateway) attemptRead(ctx context.Context, b Backend, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return b.Read(ctx, key)
}

func (g *Gateway) attemptWrite(ctx context.Context, b Backend, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return b.Write(ctx, key, value)
}

func (g *Gateway) attemptDelete(ctx context.Context, b Backend, key string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return b.Delete(ctx, key)
}

func unavailable(op, key string, failures []string) error {
	if len(failures) == 0 {
		return fmt.Errorf("%w: %s %q: no backends configured", domain.ErrStorageUnavailable, op, key)
	}
	return fmt.Errorf("%w: %s %q: %s", domain.ErrStorageUnavailable, op, key, strings.Join(failures, "; "))
}
