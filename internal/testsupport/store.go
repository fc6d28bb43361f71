package testsupport

import (
	"context"
	"testing"
	"time"

	"mediavault/internal/config"
	"mediavault/internal/media"
	"mediavault/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// InsertFile persists a file row for tests, failing the test on error.
func InsertFile(t testing.TB, st *store.Store, file *media.File) *media.File {
	t.Helper()

	if file.ModTime.IsZero() {
		file.ModTime = time.Now().UTC()
	}
	if err := st.InsertFile(context.Background(), file); err != nil {
		t.Fatalf("store.InsertFile: %v", err)
	}
	return file
}
