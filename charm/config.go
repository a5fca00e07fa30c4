// ABOUTME: Configuration for the draft store backend
// ABOUTME: Chooses between a local badger directory and Charm KV with auto-sync

package charm

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName is the application name for Charm KV database.
	AppName = "engage"
)

// Config holds draft store settings.
type Config struct {
	// Dir is the local badger directory used when Sync is off.
	Dir string

	// Sync stores drafts in Charm KV so they follow the operator across devices.
	Sync bool

	// Host is the charm server hostname (default: charm.2389.dev)
	Host string

	// AutoSync pushes after every write when Sync is on.
	AutoSync bool
}

// DefaultConfig returns a local-only config rooted at dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:      dir,
		Host:     DefaultCharmHost,
		AutoSync: true,
	}
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultCharmHost
	}
}
