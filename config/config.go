// Package config holds the registry settings shared by every call: where the
// registry lives, who is calling, and how to authenticate.
//
// A process-wide default is initialized from [Default] and may be replaced
// with [Set], mutated with [Update], or restored with [Reset]. Clients take a
// copy of a [Config] when they are built, so later changes to the process-wide
// value never reach an existing client.
//
// Values are not validated when they are set. [Config.Validate] runs when a
// request is built, so a bad host surfaces as an error from the call that
// tried to use it.
package config

import (
	"fmt"
	"sync"
)

// Version is the library version reported in the default User-Agent.
const Version = "1.0.0"

const (
	// DefaultHost is the canonical registry origin.
	DefaultHost = "https://rubygems.org"
	// DefaultBasePath prefixes every API path.
	DefaultBasePath = "/api/v1"
)

// DefaultUserAgent identifies this library to the registry.
var DefaultUserAgent = fmt.Sprintf("gems/%s (+https://github.com/adamwoolhether/gems)", Version)

// Format is the preferred representation requested from endpoints that
// serve more than one.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Config is the set of recognized registry options.
//
// Exactly one authentication mode is used per request: Key when set,
// otherwise Username and Password when both are set, otherwise none.
// An empty UserAgent sends [DefaultUserAgent].
type Config struct {
	Host      string `json:"host" validate:"required,http_url"`
	BasePath  string `json:"base_path" validate:"omitempty,startswith=/"`
	UserAgent string `json:"user_agent"`
	Key       string `json:"key"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Format    Format `json:"format" validate:"omitempty,oneof=json yaml"`
}

// Default returns the documented defaults. No credentials are set.
func Default() Config {
	return Config{
		Host:      DefaultHost,
		BasePath:  DefaultBasePath,
		UserAgent: DefaultUserAgent,
		Format:    FormatJSON,
	}
}

// Merge returns a copy of c with every non-zero field of overrides applied.
func (c Config) Merge(overrides Config) Config {
	if overrides.Host != "" {
		c.Host = overrides.Host
	}
	if overrides.BasePath != "" {
		c.BasePath = overrides.BasePath
	}
	if overrides.UserAgent != "" {
		c.UserAgent = overrides.UserAgent
	}
	if overrides.Key != "" {
		c.Key = overrides.Key
	}
	if overrides.Username != "" {
		c.Username = overrides.Username
	}
	if overrides.Password != "" {
		c.Password = overrides.Password
	}
	if overrides.Format != "" {
		c.Format = overrides.Format
	}

	return c
}

// HasBasicAuth reports whether both basic-auth credentials are present.
func (c Config) HasBasicAuth() bool {
	return c.Username != "" && c.Password != ""
}

// Agent returns UserAgent, falling back to [DefaultUserAgent] when unset.
func (c Config) Agent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}

// PreferredFormat returns Format, falling back to JSON when unset.
func (c Config) PreferredFormat() Format {
	if c.Format == "" {
		return FormatJSON
	}
	return c.Format
}

// String renders the config with credentials masked, for logging.
func (c Config) String() string {
	return fmt.Sprintf("host=%s base_path=%s user_agent=%q key=%s username=%s password=%s format=%s",
		c.Host, c.BasePath, c.UserAgent, mask(c.Key), c.Username, mask(c.Password), c.Format)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// /////////////////////////////////////////////////////////////////
// Process-wide default

var (
	mu      sync.RWMutex
	current = Default()
)

// Current returns a copy of the process-wide configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()

	return current
}

// Set replaces the process-wide configuration wholesale.
func Set(c Config) {
	mu.Lock()
	defer mu.Unlock()

	current = c
}

// Update mutates the process-wide configuration field by field.
func Update(fn func(*Config)) {
	mu.Lock()
	defer mu.Unlock()

	fn(&current)
}

// Reset restores the process-wide configuration to [Default].
func Reset() {
	Set(Default())
}
