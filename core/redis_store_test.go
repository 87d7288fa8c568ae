package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T, namespace string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(RedisStoreOptions{
		RedisURL:  "redis://" + mr.Addr(),
		Namespace: namespace,
	})
	if err != nil {
		t.Fatalf("NewRedisStore() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_SetGet(t *testing.T) {
	store, mr := newTestRedisStore(t, "storefront:test")
	ctx := context.Background()

	if err := store.Set(ctx, "accessToken", "tok_123", 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	value, err := store.Get(ctx, "accessToken")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if value != "tok_123" {
		t.Errorf("Get() = %q, want tok_123", value)
	}

	// Keys must land under the namespace
	if !mr.Exists("storefront:test:accessToken") {
		t.Error("key was not namespaced")
	}
}

func TestRedisStore_MissingKeyIsNotAnError(t *testing.T) {
	store, _ := newTestRedisStore(t, "storefront:test")

	value, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if value != "" {
		t.Errorf("Get() = %q, want empty string", value)
	}
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newTestRedisStore(t, "storefront:test")
	ctx := context.Background()

	if err := store.Set(ctx, "accessToken", "tok_123", time.Minute); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	value, err := store.Get(ctx, "accessToken")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if value != "" {
		t.Errorf("Get() after TTL = %q, want empty string", value)
	}
}

func TestRedisStore_DeleteAndExists(t *testing.T) {
	store, _ := newTestRedisStore(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "userId", "user_1", 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	exists, err := store.Exists(ctx, "userId")
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if !exists {
		t.Error("Exists() = false after Set")
	}

	if err := store.Delete(ctx, "userId"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	exists, err = store.Exists(ctx, "userId")
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if exists {
		t.Error("Exists() = true after Delete")
	}
}

func TestRedisStore_InvalidConfig(t *testing.T) {
	if _, err := NewRedisStore(RedisStoreOptions{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("empty URL error = %v, want ErrInvalidConfiguration", err)
	}
	if _, err := NewRedisStore(RedisStoreOptions{RedisURL: "://bad"}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("bad URL error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRedisStore_HealthCheck(t *testing.T) {
	store, mr := newTestRedisStore(t, "")
	ctx := context.Background()

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() failed: %v", err)
	}

	mr.Close()
	if err := store.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() = nil after Redis went away")
	}
}
