// Package config loads mcp-fusion server configuration from a TOML file
// layered with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for an mcp-fusion server process.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
	Sandbox   SandboxConfig   `toml:"sandbox"`
	Lockfile  LockfileConfig  `toml:"lockfile"`
	Cursor    CursorConfig    `toml:"cursor"`
}

// ServerConfig holds MCP server identity.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TransportConfig holds transport-related settings.
type TransportConfig struct {
	// Mode selects the transport: "stdio" (default) or "http".
	Mode string `toml:"mode"`
	// Port is the HTTP listen port. Only used when Mode is "http".
	Port string `toml:"port"`
	// Host is the HTTP listen address. Only used when Mode is "http".
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins.
	CORSOrigins string `toml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// SandboxConfig bounds the Sandbox Engine (spec §4.6).
type SandboxConfig struct {
	TimeoutMS     int `toml:"timeout_ms"`
	MemoryMB      int `toml:"memory_mb"`
	MaxOutputByte int `toml:"max_output_bytes"`
}

// LockfileConfig controls where the capability lockfile lives.
type LockfileConfig struct {
	Path string `toml:"path"`
}

// CursorConfig holds the keys used to sign or encrypt pagination cursors.
// Keys are hex-encoded 32-byte values. They are loaded into the config, but
// nothing in the server reads them: no listing handler issues cursors.
type CursorConfig struct {
	SigningKeyHex    string `toml:"signing_key_hex"`
	EncryptionKeyHex string `toml:"encryption_key_hex"`
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. FUSION_CONFIG environment variable
//  3. ./mcp-fusion.toml (current directory)
//  4. ~/.config/mcp-fusion/mcp-fusion.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Name:    "mcp-fusion",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:        "stdio",
			Port:        "21453",
			Host:        "0.0.0.0",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
		Sandbox: SandboxConfig{
			TimeoutMS:     2000,
			MemoryMB:      64,
			MaxOutputByte: 1 << 20,
		},
		Lockfile: LockfileConfig{
			Path: "mcp-fusion.lock",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty
// string if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if p := os.Getenv("FUSION_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("mcp-fusion.toml"); err == nil {
		return "mcp-fusion.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/mcp-fusion/mcp-fusion.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	envOverride("FUSION_TRANSPORT", &c.Transport.Mode)
	envOverride("FUSION_PORT", &c.Transport.Port)
	envOverride("FUSION_HOST", &c.Transport.Host)
	envOverride("FUSION_CORS_ORIGINS", &c.Transport.CORSOrigins)
	envOverride("FUSION_LOG_LEVEL", &c.Log.Level)
	envOverride("FUSION_LOCKFILE_PATH", &c.Lockfile.Path)
	envOverride("FUSION_CURSOR_SIGNING_KEY", &c.Cursor.SigningKeyHex)
	envOverride("FUSION_CURSOR_ENCRYPTION_KEY", &c.Cursor.EncryptionKeyHex)

	if v := os.Getenv("FUSION_SANDBOX_TIMEOUT_MS"); v != "" {
		var ms int
		if _, err := fmt.Sscanf(v, "%d", &ms); err == nil && ms > 0 {
			c.Sandbox.TimeoutMS = ms
		}
	}
	if v := os.Getenv("FUSION_SANDBOX_MEMORY_MB"); v != "" {
		var mb int
		if _, err := fmt.Sscanf(v, "%d", &mb); err == nil && mb > 0 {
			c.Sandbox.MemoryMB = mb
		}
	}
}

// Validate checks that required fields are present and well-formed.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"stdio\" or \"http\")", c.Transport.Mode)
	}

	if c.Sandbox.TimeoutMS <= 0 {
		return fmt.Errorf("sandbox.timeout_ms must be positive")
	}
	if c.Sandbox.MaxOutputByte <= 0 {
		return fmt.Errorf("sandbox.max_output_bytes must be positive")
	}

	return nil
}

// envOverride sets *dst to the value of the named env var, if it is non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
