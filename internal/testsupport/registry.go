package testsupport

import (
	"context"
	"testing"

	"mvnd/internal/config"
	"mvnd/internal/registry"
)

// MustOpenRegistry opens a registry.Store for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustRegister adds a daemon entry for tests.
func MustRegister(t testing.TB, store *registry.Store, info registry.DaemonInfo) {
	t.Helper()

	if err := store.Add(context.Background(), info); err != nil {
		t.Fatalf("registry.Add(%s): %v", info.UID, err)
	}
}
