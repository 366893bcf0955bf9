package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-session-engine/internal/domain"
	"study-session-engine/internal/infra/memory"
	"study-session-engine/internal/storage"
)

// failingBackend simulates an unavailable persistence API.
type failingBackend struct{ calls int }

func (f *failingBackend) Name() string { return "failing" }

func (f *failingBackend) Read(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, errors.New("backend down")
}

func (f *failingBackend) Write(context.Context, string, []byte) error {
	f.calls++
	return errors.New("backend down")
}

func (f *failingBackend) Delete(context.Context, string) error {
	f.calls++
	return errors.New("backend down")
}

// hangingBackend never returns until its context expires.
type hangingBackend struct{}

func (hangingBackend) Name() string { return "hanging" }

func (hangingBackend) Read(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingBackend) Write(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangingBackend) Delete(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestPrimaryBackendIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewBackend()
	secondary := memory.NewBackend()
	gateway := storage.NewGateway(time.Second, primary, secondary)

	if err := gateway.Write(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The secondary holds a stale value; on a healthy primary it must
	// never be consulted.
	if err := secondary.Write(ctx, "k", []byte("stale")); err != nil {
		t.Fatalf("seed secondary: %v", err)
	}

	value, err := gateway.Read(ctx, "k")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(value) != "v1" {
		t.Fatalf("expected primary value, got %q", value)
	}
}

func TestFallbackToSecondaryWhenPrimaryFails(t *testing.T) {
	ctx := context.Background()
	primary := &failingBackend{}
	secondary := memory.NewBackend()
	gateway := storage.NewGateway(time.Second, primary, secondary)

	if err := gateway.Write(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("write should fall through to secondary: %v", err)
	}
	value, err := gateway.Read(ctx, "k")
	if err != nil {
		t.Fatalf("read should fall through to secondary: %v", err)
	}
	if string(value) != "v" {
		t.Fatalf("expected fallback value, got %q", value)
	}
	if primary.calls == 0 {
		t.Fatalf("primary should have been tried first")
	}
}

func TestAllBackendsFailingSurfacesStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	gateway := storage.NewGateway(time.Second, &failingBackend{}, &failingBackend{})

	if _, err := gateway.Read(ctx, "k"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := gateway.Write(ctx, "k", []byte("v")); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := gateway.Delete(ctx, "k"); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestHungBackendCountsAsFailureAfterTimeout(t *testing.T) {
	ctx := context.Background()
	secondary := memory.NewBackend()
	gateway := storage.NewGateway(20*time.Millisecond, hangingBackend{}, secondary)

	if err := gateway.Write(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("write should time out the hung backend and fall through: %v", err)
	}
	value, err := gateway.Read(ctx, "k")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(value) != "v" {
		t.Fatalf("expected value from secondary, got %q", value)
	}
}

func TestMissingKeyReadsAsNil(t *testing.T) {
	gateway := storage.NewGateway(time.Second, memory.NewBackend())
	value, err := gateway.Read(context.Background(), "missing")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil for missing key, got %q", value)
	}
}
