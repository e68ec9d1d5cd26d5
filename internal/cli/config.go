package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/adamwoolhether/gems/config"
)

// EnvHost and EnvKey match the variables read by the gem command.
const (
	EnvHost = "GEM_HOST"
	EnvKey  = "GEM_HOST_API_KEY"
)

// credentialsKey is the entry the gem command writes for the default host.
const credentialsKey = ":rubygems_api_key"

// LoadConfig resolves a [config.Config] from, in increasing precedence:
// defaults, the config file, the environment and flags bound to v.
// When that yields neither a key nor basic-auth credentials, it falls back
// to the credentials file.
//
// An empty cfgFile searches ./gems.yaml and ~/.gem/gems.yaml and tolerates
// neither existing. An empty credFile means ~/.gem/credentials.
func LoadConfig(v *viper.Viper, cfgFile, credFile string) (config.Config, error) {
	def := config.Default()
	v.SetDefault("host", def.Host)
	v.SetDefault("base_path", def.BasePath)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("format", string(config.FormatJSON))

	if err := v.BindEnv("host", EnvHost); err != nil {
		return config.Config{}, fmt.Errorf("binding env: %w", err)
	}
	if err := v.BindEnv("key", EnvKey); err != nil {
		return config.Config{}, fmt.Errorf("binding env: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("gems")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gem"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return config.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := def.Merge(config.Config{
		Host:      v.GetString("host"),
		BasePath:  v.GetString("base_path"),
		UserAgent: v.GetString("user_agent"),
		Key:       v.GetString("key"),
		Username:  v.GetString("username"),
		Password:  v.GetString("password"),
		Format:    config.Format(v.GetString("format")),
	})

	// The file's key would outrank basic auth, so it only fills a config
	// with no credentials at all.
	if cfg.Key == "" && cfg.Username == "" && cfg.Password == "" {
		key, err := readCredentials(credFile, cfg.Host)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Key = key
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// readCredentials returns the key stored for host in the gem command's
// credentials file, or the default key when host has none. A missing file
// yields no key.
func readCredentials(path, host string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", nil
		}
		path = filepath.Join(home, ".gem", "credentials")
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	// Host entries are URLs, so the usual "." delimiter would split them.
	c := viper.NewWithOptions(viper.KeyDelimiter("::"))
	c.SetConfigFile(path)
	c.SetConfigType("yaml")
	if err := c.ReadInConfig(); err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}

	if host != config.DefaultHost {
		if key := c.GetString(host); key != "" {
			return key, nil
		}
	}

	return c.GetString(credentialsKey), nil
}
