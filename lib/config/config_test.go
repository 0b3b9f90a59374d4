// Copyright 2026 The MassaChat Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Paths.State == "" {
		t.Error("expected a default state directory")
	}
	if filepath.Base(cfg.Paths.State) != ".massachat" {
		t.Errorf("expected state dir to end in .massachat, got %s", cfg.Paths.State)
	}
	if cfg.Paths.Keys != filepath.Join(cfg.Paths.State, "keys") {
		t.Errorf("expected keys under state, got %s", cfg.Paths.Keys)
	}
	if cfg.CallTimeout() != 10*time.Second {
		t.Errorf("expected call timeout 10s, got %s", cfg.CallTimeout())
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("expected poll interval 2s, got %s", cfg.PollInterval())
	}
}

func TestLoad_RequiresMassachatConfig(t *testing.T) {
	origConfig := os.Getenv("MASSACHAT_CONFIG")
	defer os.Setenv("MASSACHAT_CONFIG", origConfig)

	os.Unsetenv("MASSACHAT_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when MASSACHAT_CONFIG not set, got nil")
	}

	expectedMsg := "MASSACHAT_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithMassachatConfig(t *testing.T) {
	origConfig := os.Getenv("MASSACHAT_CONFIG")
	defer os.Setenv("MASSACHAT_CONFIG", origConfig)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "massachat.yaml")

	configContent := `
account:
  address: AU1alice
ledger:
  gateway_url: http://localhost:33037
pinning:
  pin_url: http://localhost:33038
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	os.Setenv("MASSACHAT_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Ledger.GatewayURL != "http://localhost:33037" {
		t.Errorf("expected gateway_url=http://localhost:33037, got %s", cfg.Ledger.GatewayURL)
	}
	address, err := cfg.Address()
	if err != nil {
		t.Fatalf("Address() failed: %v", err)
	}
	if address.String() != "AU1alice" {
		t.Errorf("expected address=AU1alice, got %s", address)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "massachat.yaml")

	configContent := `
account:
  address: AU1alice

ledger:
  gateway_url: http://ledger.test

pinning:
  pin_url: http://pins.test
  gateway_url: http://ipfs.test

paths:
  state: /custom/state

exchange:
  call_timeout: 30s
  poll_interval: 500ms
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Pinning.GatewayURL != "http://ipfs.test" {
		t.Errorf("expected pinning gateway_url=http://ipfs.test, got %s", cfg.Pinning.GatewayURL)
	}
	if cfg.Paths.State != "/custom/state" {
		t.Errorf("expected state=/custom/state, got %s", cfg.Paths.State)
	}
	if cfg.CallTimeout() != 30*time.Second {
		t.Errorf("expected call timeout 30s, got %s", cfg.CallTimeout())
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %s", cfg.PollInterval())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed on a complete config: %v", err)
	}
}

func TestStateRelativePaths(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "massachat.yaml")

	// Overridden sub-paths can anchor to the configured state dir.
	configContent := `
ledger:
  gateway_url: http://ledger.test
pinning:
  pin_url: http://pins.test
paths:
  state: /var/lib/massachat
  keys: ${MASSACHAT_STATE}/secrets
  contacts: ${MASSACHAT_STATE}/book.jsonc
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Keys != "/var/lib/massachat/secrets" {
		t.Errorf("expected keys=/var/lib/massachat/secrets, got %s", cfg.Paths.Keys)
	}
	if cfg.Paths.Contacts != "/var/lib/massachat/book.jsonc" {
		t.Errorf("expected contacts=/var/lib/massachat/book.jsonc, got %s", cfg.Paths.Contacts)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/massachat",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/massachat",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	complete := func(c *Config) {
		c.Ledger.GatewayURL = "http://ledger.test"
		c.Pinning.PinURL = "http://pins.test"
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "complete config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "missing ledger gateway",
			modify: func(c *Config) {
				c.Ledger.GatewayURL = ""
			},
			wantErr: true,
		},
		{
			name: "missing pin url",
			modify: func(c *Config) {
				c.Pinning.PinURL = ""
			},
			wantErr: true,
		},
		{
			name: "empty state path",
			modify: func(c *Config) {
				c.Paths.State = ""
			},
			wantErr: true,
		},
		{
			name: "malformed address",
			modify: func(c *Config) {
				c.Account.Address = "AU1:bad"
			},
			wantErr: true,
		},
		{
			name: "malformed call timeout",
			modify: func(c *Config) {
				c.Exchange.CallTimeout = "soon"
			},
			wantErr: true,
		},
		{
			name: "malformed poll interval",
			modify: func(c *Config) {
				c.Exchange.PollInterval = "whenever"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			complete(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.State = filepath.Join(tmpDir, "massachat")
	cfg.Paths.Keys = filepath.Join(cfg.Paths.State, "keys")
	cfg.Paths.Cache = filepath.Join(cfg.Paths.State, "cache")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.State, cfg.Paths.Keys, cfg.Paths.Cache} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			t.Errorf("path %s has mode %v, want owner-only", path, perm)
		}
	}
}
