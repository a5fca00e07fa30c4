// ABOUTME: Runtime configuration loaded from .env and ENGAGE_* environment variables
// ABOUTME: Fills XDG-based defaults for local paths and validates the loaded values
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const appName = "engage"

type Config struct {
	BackendURL   string        `envconfig:"backend_url" default:"http://localhost:8787"`
	APIToken     string        `envconfig:"api_token"`
	JWTSecret    string        `envconfig:"jwt_secret"`
	DBPath       string        `envconfig:"db_path"`
	Port         int           `envconfig:"port" default:"8787"`
	PollInterval time.Duration `envconfig:"poll_interval" default:"5s"`
	AICooldown   time.Duration `envconfig:"ai_cooldown" default:"10m"`
	Timezone     string        `envconfig:"timezone" default:"Local"`
	DraftDir     string        `envconfig:"draft_dir"`
	CharmSync    bool          `envconfig:"charm_sync" default:"false"`
	CharmHost    string        `envconfig:"charm_host"`
}

// Load reads .env (if present) and ENGAGE_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var c Config
	if err := envconfig.Process(appName, &c); err != nil {
		return nil, errors.WithStack(err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath()
	}
	if c.DraftDir == "" {
		c.DraftDir = DefaultDraftDir()
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("port %d is out of range", c.Port)
	}
	if c.PollInterval < time.Second || c.PollInterval > time.Minute {
		return errors.Errorf("poll interval %s must be between 1s and 1m", c.PollInterval)
	}
	if c.AICooldown < 0 {
		return errors.Errorf("ai cooldown %s must not be negative", c.AICooldown)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown timezone %q", c.Timezone)
	}
	return loc, nil
}

// DataDir is where engage keeps its local files.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// DefaultDBPath is the reference backend database location.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "engage.db")
}

// DefaultDraftDir is where unsaved editor sessions are kept between runs.
func DefaultDraftDir() string {
	return filepath.Join(DataDir(), "drafts")
}

// GoogleCredentialsPath is where the Google OAuth token is cached.
func GoogleCredentialsPath() string {
	return filepath.Join(DataDir(), "google-credentials.json")
}
