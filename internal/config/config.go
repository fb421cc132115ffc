// Package config loads the hook's runtime configuration once at startup.
// The resulting struct is passed by reference to every operation and never
// mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/certhook/certhook/internal/creds"
	"github.com/certhook/certhook/internal/ui"
)

// Propagation controls the post-write DNS propagation wait.
type Propagation struct {
	// Disabled skips the wait entirely and leaves propagation handling to
	// the driving client.
	Disabled bool `env:"DNS_PROPAGATION_DISABLED"`

	// Settle is slept after every record write before polling begins.
	Settle time.Duration `env:"DNS_SETTLE_INTERVAL" envDefault:"10s"`

	// Poll is the delay between propagation checks.
	Poll time.Duration `env:"DNS_POLL_INTERVAL" envDefault:"30s"`

	// Sightings is how many times the record must be observed before the
	// wait is considered satisfied.
	Sightings int `env:"DNS_REQUIRED_SIGHTINGS" envDefault:"3"`

	// Timeout bounds the whole wait, settle included.
	Timeout time.Duration `env:"DNS_PROPAGATION_TIMEOUT" envDefault:"10m"`

	// Nameservers override the resolvers read from /etc/resolv.conf.
	// Entries without a port get :53 appended.
	Nameservers []string `env:"DNS_NAMESERVERS"`
}

// Config is the hook's full runtime configuration.
type Config struct {
	// APIKey authenticates against the DNS provider API. Required for the
	// challenge events; checked before any network call is attempted.
	APIKey string `env:"DREAMHOST_API_KEY"`

	// APIURL is the provider API endpoint.
	APIURL string `env:"DREAMHOST_API_URL" envDefault:"https://api.dreamhost.com"`

	// APITimeout bounds each provider API request.
	APITimeout time.Duration `env:"DREAMHOST_API_TIMEOUT" envDefault:"30s"`

	// Provider selects the DNS provider implementation from the registry.
	Provider string `env:"DNS_PROVIDER" envDefault:"dreamhost"`

	// DeployConfig is the path to the YAML deployment config read on
	// deploy_cert. Defaults to ~/.config/dehydrated/deploy.conf.
	DeployConfig string `env:"DEPLOY_CONFIG"`

	// CertsRoot is where dehydrated writes issued certificate material;
	// used by the standalone deploy command to locate sources.
	CertsRoot string `env:"CERTS_ROOT" envDefault:"/etc/dehydrated/certs"`

	// PostActionTimeout bounds each configured post-deploy action.
	PostActionTimeout time.Duration `env:"POST_ACTION_TIMEOUT" envDefault:"1m"`

	Propagation Propagation
}

// ErrMissingAPIKey is returned when a DNS operation is attempted without a
// provider credential in the environment.
var ErrMissingAPIKey = errors.New("unable to locate DreamHost API key in environment (set DREAMHOST_API_KEY)")

// Load reads configuration from the environment. When envFile is non-empty
// it is loaded first (without overriding variables already present), so a
// root-owned credentials file can carry the API key.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
		warnLoosePermissions(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DeployConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			ui.Warning("cannot derive deployment config path (%v); set DEPLOY_CONFIG or --deploy-config before deploy_cert", err)
		} else {
			cfg.DeployConfig = filepath.Join(home, ".config", "dehydrated", "deploy.conf")
		}
	}
	if cfg.Propagation.Sightings < 1 {
		cfg.Propagation.Sightings = 1
	}
	return cfg, nil
}

// RequireAPIKey fails fast when the provider credential is absent. Called
// before any network action on the challenge events.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func warnLoosePermissions(path string) {
	if err := creds.AssertPermissions(path); err != nil {
		ui.Warning("%v", err)
	}
}
