// ABOUTME: Key-value client behind the draft store
// ABOUTME: Wraps either a local BadgerDB or Charm KV, syncing after writes when enabled

package charm

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// store is the subset of charm/kv.KV the client needs. localKV implements it over badger.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
}

// Client is a thread-safe key-value client.
type Client struct {
	kv     store
	config *Config
	close  func() error
	mu     sync.RWMutex
}

// Open opens the store described by cfg.
func Open(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("draft store config is required")
	}
	cfg.applyDefaults()

	if cfg.Sync {
		// Set charm host before opening KV
		_ = os.Setenv("CHARM_HOST", cfg.Host)

		db, err := kv.OpenWithDefaults(AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to open charm kv: %w", err)
		}
		c := &Client{kv: db, config: cfg, close: func() error { return nil }}

		// Sync on startup to pull remote changes
		if cfg.AutoSync {
			_ = db.Sync()
		}
		return c, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create draft dir: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(cfg.Dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	return newLocalClient(db, cfg), nil
}

func newLocalClient(db *badger.DB, cfg *Config) *Client {
	return &Client{kv: &localKV{db: db}, config: cfg, close: db.Close}
}

// Close releases the local database. Charm KV is cleaned up on process exit.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

// Config returns the client's config.
func (c *Client) Config() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// Sync performs a manual sync with the charm server. A no-op for local stores.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Get retrieves a value by key.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get(key)
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.config.Sync && c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}

	if c.config.Sync && c.config.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// KeysWithPrefix returns all keys starting with the given prefix.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	c.mu.RLock()
	allKeys, err := c.kv.Keys()
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range allKeys {
		if bytes.HasPrefix(k, prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// localKV gives BadgerDB the same surface as charm/kv.KV.
type localKV struct {
	db *badger.DB
}

func (l *localKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (l *localKV) Set(key, value []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (l *localKV) Delete(key []byte) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (l *localKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (l *localKV) Sync() error {
	return nil
}
