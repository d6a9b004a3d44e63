// Package config loads the lens TOML configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/lens/pkg/envelope"
	"github.com/papercomputeco/lens/pkg/image"
)

// Config is the top level configuration file.
type Config struct {
	Proxy    ProxyConfig    `toml:"proxy"`
	Images   ImagesConfig   `toml:"images"`
	Profiles ProfilesConfig `toml:"profiles"`
}

// ProxyConfig configures the HTTP proxy and its upstream.
type ProxyConfig struct {
	Listen     string `toml:"listen"`
	Upstream   string `toml:"upstream"`
	DB         string `toml:"db"`
	Model      string `toml:"model"`
	MaxTokens  int    `toml:"max_tokens"`
	MaxRetries int    `toml:"max_retries"`
}

// ImagesConfig configures image validation and the failure policy.
type ImagesConfig struct {
	MaxSize   int64    `toml:"max_size"`
	Formats   []string `toml:"formats"`
	OnInvalid string   `toml:"on_invalid"`

	// Root is the directory proxy requests may name image files under.
	// Empty means file images come only from agent profiles.
	Root string `toml:"root"`
}

// ProfilesConfig points at the agent profile file.
type ProfilesConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Proxy: ProxyConfig{
			Listen:     ":8080",
			Upstream:   "https://api.anthropic.com",
			Model:      "claude-sonnet-4-5",
			MaxTokens:  1024,
			MaxRetries: 2,
		},
		Images: ImagesConfig{
			MaxSize:   image.DefaultMaxSize,
			Formats:   append([]string(nil), image.DefaultFormats...),
			OnInvalid: string(envelope.ImagePolicyDrop),
		},
		Profiles: ProfilesConfig{
			Watch: true,
		},
	}
}

// Load reads path over the defaults. Keys the file sets override the
// defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not decode config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that decode fine but cannot be used.
func (c *Config) Validate() error {
	if c.Images.MaxSize <= 0 {
		return fmt.Errorf("images.max_size must be positive")
	}
	if _, err := envelope.ParseImagePolicy(c.Images.OnInvalid); err != nil {
		return fmt.Errorf("images.on_invalid: %w", err)
	}
	for _, f := range c.Images.Formats {
		if f = strings.TrimPrefix(strings.ToLower(f), "."); !isKnownFormat(f) {
			return fmt.Errorf("images.formats: unsupported format %q", f)
		}
	}
	if c.Images.Root != "" {
		info, err := os.Stat(c.Images.Root)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("images.root: %s is not a directory", c.Images.Root)
		}
	}
	if c.Proxy.MaxTokens <= 0 {
		return fmt.Errorf("proxy.max_tokens must be positive")
	}
	if c.Proxy.MaxRetries < 0 {
		return fmt.Errorf("proxy.max_retries must not be negative")
	}
	return nil
}

// Validator builds the image validator described by the [images] section.
func (c *Config) Validator() *image.Validator {
	return image.NewValidator(
		image.WithMaxSize(c.Images.MaxSize),
		image.WithFormats(c.Images.Formats...),
	)
}

// ImagePolicy returns the parsed images.on_invalid policy.
func (c *Config) ImagePolicy() envelope.ImagePolicy {
	policy, err := envelope.ParseImagePolicy(c.Images.OnInvalid)
	if err != nil {
		return envelope.ImagePolicyDrop
	}
	return policy
}

func isKnownFormat(f string) bool {
	for _, known := range image.DefaultFormats {
		if f == known {
			return true
		}
	}
	return false
}
