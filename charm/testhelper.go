// ABOUTME: Test utilities for creating isolated draft stores
// ABOUTME: Uses in-memory BadgerDB so tests never touch disk or a charm server

package charm

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// NewTestClient creates a client over an in-memory BadgerDB, closed when the test ends.
func NewTestClient(t testing.TB) *Client {
	t.Helper()

	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil) // Suppress badger logs in tests

	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}

	c := newLocalClient(db, &Config{Host: "localhost"})
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return c
}
