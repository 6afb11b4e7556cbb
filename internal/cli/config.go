// Package cli provides shared configuration and utilities for the catauthz
// CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/pthm/catauthz/providers"
)

const maxWalkDepth = 25

// Config is the catauthz CLI's configuration, loaded from catauthz.yaml plus
// CATAUTHZ_-prefixed environment variables.
type Config struct {
	// Settings holds the engine-wide settings block.
	Settings SettingsConfig `mapstructure:"settings"`

	// RootEnabled mirrors datasette.root_enabled: whether the root-user
	// provider has any effect.
	RootEnabled bool `mapstructure:"root_enabled"`

	// Catalog is the SQLite DSN the engine opens its catalog store against.
	Catalog string `mapstructure:"catalog"`

	// Permissions/Databases are the authorization-relevant config document,
	// unmarshalled separately into providers.ConfigDocument (see Document).
	Permissions map[string]providers.AllowBlock     `mapstructure:"permissions"`
	Databases   map[string]providers.DatabaseConfig `mapstructure:"databases"`
}

// SettingsConfig holds the engine-wide toggles read from the "settings" key.
type SettingsConfig struct {
	DefaultAllowSQL    bool  `mapstructure:"default_allow_sql"`
	AllowSignedTokens  bool  `mapstructure:"allow_signed_tokens"`
	MaxSignedTokensTTL int64 `mapstructure:"max_signed_tokens_ttl"`
	DefaultDeny        bool  `mapstructure:"default_deny"`
}

// Document returns the authorization-relevant subset as a
// providers.ConfigDocument, ready to hand to providers.NewConfig.
func (c *Config) Document() *providers.ConfigDocument {
	return &providers.ConfigDocument{
		Permissions: c.Permissions,
		Databases:   c.Databases,
	}
}

// LoadConfig discovers and loads configuration with precedence env > config
// file > defaults.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CATAUTHZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
		jsonBytes, err := yaml.YAMLToJSON(raw)
		if err != nil {
			return nil, configPath, fmt.Errorf("parsing config file: %w", err)
		}
		v.SetConfigType("json")
		if err := v.MergeConfig(strings.NewReader(string(jsonBytes))); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog", ":memory:")
	v.SetDefault("root_enabled", false)
	v.SetDefault("settings.default_allow_sql", false)
	v.SetDefault("settings.allow_signed_tokens", true)
	v.SetDefault("settings.max_signed_tokens_ttl", 0)
	v.SetDefault("settings.default_deny", false)
}

// findConfigFile finds the config file to use, walking up from cwd looking
// for catauthz.yaml/.yml, stopping at a .git directory or maxWalkDepth.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"catauthz.yaml", "catauthz.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}
