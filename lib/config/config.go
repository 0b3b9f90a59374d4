// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for MassaChat
// commands.
//
// Configuration is loaded from a single YAML file specified by:
//   - MASSACHAT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. Environment variables
// do not override file values; the only expansion performed is
// ${HOME}-style path variables for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anikeaty08/MassaChat/lib/ref"
)

// Default durations used when the file leaves them unset.
const (
	defaultCallTimeout  = 10 * time.Second
	defaultPollInterval = 2 * time.Second
)

// Config is the master configuration for MassaChat.
type Config struct {
	// Account identifies the local account.
	Account AccountConfig `yaml:"account"`

	// Ledger configures the chain gateway the ledger adapter talks to.
	Ledger LedgerConfig `yaml:"ledger"`

	// Pinning configures the pinning service and retrieval gateway.
	Pinning PinningConfig `yaml:"pinning"`

	// Paths configures local state locations.
	Paths PathsConfig `yaml:"paths"`

	// Exchange configures message exchange timings.
	Exchange ExchangeConfig `yaml:"exchange"`
}

// AccountConfig identifies the local account.
type AccountConfig struct {
	// Address is the local chain account address. Commands that seal,
	// anchor, or register require it; read-only commands do not.
	Address string `yaml:"address"`

	// ScryptWorkFactor overrides the passphrase KDF cost (log2 of the
	// scrypt iteration count) used to seal the account key at rest.
	// Zero selects the keyring default.
	ScryptWorkFactor int `yaml:"scrypt_work_factor"`
}

// LedgerConfig configures the chain gateway.
type LedgerConfig struct {
	// GatewayURL is the base URL of the ledger gateway.
	GatewayURL string `yaml:"gateway_url"`
}

// PinningConfig configures content pinning and retrieval.
type PinningConfig struct {
	// PinURL is the base URL of the pinning service.
	PinURL string `yaml:"pin_url"`

	// GatewayURL is the base URL payloads are retrieved from. Empty
	// means retrieve from the pinning service itself.
	GatewayURL string `yaml:"gateway_url"`
}

// PathsConfig configures local state locations. Everything lives
// under State unless overridden.
type PathsConfig struct {
	// State is the base directory for MassaChat data.
	State string `yaml:"state"`

	// Keys is the keyring directory. Default: {state}/keys.
	Keys string `yaml:"keys"`

	// Cache is the conversation snapshot directory.
	// Default: {state}/cache.
	Cache string `yaml:"cache"`

	// Contacts is the contact book file. Default:
	// {state}/contacts.jsonc.
	Contacts string `yaml:"contacts"`
}

// ExchangeConfig configures message exchange timings. Durations are
// Go duration strings ("10s", "1m30s").
type ExchangeConfig struct {
	// CallTimeout bounds each gateway call issued during send and
	// fetch. Default: 10s.
	CallTimeout string `yaml:"call_timeout"`

	// PollInterval is how often the watcher polls the conversation
	// tail. Default: 2s.
	PollInterval string `yaml:"poll_interval"`
}

// Default returns the default configuration. The config file is still
// required for the gateway URLs; defaults exist so local paths and
// timings have sensible values without being spelled out.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultState := filepath.Join(homeDir, ".massachat")

	return &Config{
		Paths: PathsConfig{
			State:    defaultState,
			Keys:     filepath.Join(defaultState, "keys"),
			Cache:    filepath.Join(defaultState, "cache"),
			Contacts: filepath.Join(defaultState, "contacts.jsonc"),
		},
		Exchange: ExchangeConfig{
			CallTimeout:  defaultCallTimeout.String(),
			PollInterval: defaultPollInterval.String(),
		},
	}
}

// Load loads configuration from the MASSACHAT_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, this
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("MASSACHAT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("MASSACHAT_CONFIG environment variable not set; " +
			"set it to the path of your massachat.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults and expanding ${VAR} path variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths. MASSACHAT_STATE refers to the configured state directory so
// overridden sub-paths can stay relative to it.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"MASSACHAT_STATE": c.Paths.State,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["MASSACHAT_STATE"] = c.Paths.State

	c.Paths.Keys = expandVars(c.Paths.Keys, vars)
	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
	c.Paths.Contacts = expandVars(c.Paths.Contacts, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors and reports all of
// them at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Ledger.GatewayURL == "" {
		errs = append(errs, fmt.Errorf("ledger.gateway_url is required"))
	}
	if c.Pinning.PinURL == "" {
		errs = append(errs, fmt.Errorf("pinning.pin_url is required"))
	}
	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}

	if c.Account.Address != "" {
		if _, err := ref.ParseAddress(c.Account.Address); err != nil {
			errs = append(errs, fmt.Errorf("account.address: %w", err))
		}
	}
	if f := c.Account.ScryptWorkFactor; f != 0 && (f < 1 || f > 30) {
		errs = append(errs, fmt.Errorf("account.scrypt_work_factor %d out of range [1, 30]", f))
	}

	if c.Exchange.CallTimeout != "" {
		if _, err := time.ParseDuration(c.Exchange.CallTimeout); err != nil {
			errs = append(errs, fmt.Errorf("exchange.call_timeout: %w", err))
		}
	}
	if c.Exchange.PollInterval != "" {
		if _, err := time.ParseDuration(c.Exchange.PollInterval); err != nil {
			errs = append(errs, fmt.Errorf("exchange.poll_interval: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Address returns the parsed local account address, or an error if
// the config does not carry one.
func (c *Config) Address() (ref.Address, error) {
	if c.Account.Address == "" {
		return ref.Address{}, fmt.Errorf("account.address is not configured")
	}
	return ref.ParseAddress(c.Account.Address)
}

// CallTimeout returns the parsed exchange.call_timeout. An absent or
// unparseable value (Validate reports the latter) yields the default.
func (c *Config) CallTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Exchange.CallTimeout); err == nil && d > 0 {
		return d
	}
	return defaultCallTimeout
}

// PollInterval returns the parsed exchange.poll_interval with the
// same fallback behavior as CallTimeout.
func (c *Config) PollInterval() time.Duration {
	if d, err := time.ParseDuration(c.Exchange.PollInterval); err == nil && d > 0 {
		return d
	}
	return defaultPollInterval
}

// EnsurePaths creates the state, keys, and cache directories if they
// do not exist. Key material lives under them, so they are private to
// the owner.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.State, c.Paths.Keys, c.Paths.Cache} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
