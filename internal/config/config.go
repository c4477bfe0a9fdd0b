// Package config manages application configuration from files and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Engine struct {
		Mode               string `mapstructure:"mode"`
		CountryCode        string `mapstructure:"country_code"`
		ContactPlaceholder string `mapstructure:"contact_placeholder"`
	} `mapstructure:"engine"`
	Store struct {
		Path    string `mapstructure:"path"`
		Enabled bool   `mapstructure:"enabled"`
	} `mapstructure:"store"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Output struct {
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
	Export struct {
		ChunkSize int `mapstructure:"chunk_size"`
	} `mapstructure:"export"`
	Audit struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"audit"`
}

// EnvPrefix prefixes every environment override, e.g. SHEETKIT_ENGINE_MODE.
const EnvPrefix = "SHEETKIT"

// Load reads the configuration from ~/.sheetkit/config.yaml and environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path falls back
// to the default location; a named file that cannot be read is an error.
func LoadFile(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
	}

	SetDefaults()

	// Environment variable overrides
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (non-fatal if the default one is missing)
	if err := viper.ReadInConfig(); err != nil && path != "" {
		return nil, fmt.Errorf("could not read config %s: %w", path, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers the default value of every known key.
func SetDefaults() {
	for key, val := range defaults() {
		viper.SetDefault(key, val)
	}
}

func defaults() map[string]any {
	return map[string]any{
		"engine.mode":                "advanced",
		"engine.country_code":        "55",
		"engine.contact_placeholder": "Contato",
		"store.path":                 filepath.Join(configDir(), "sheetkit.db"),
		"store.enabled":              true,
		"server.addr":                ":8000",
		"log.level":                  "info",
		"log.format":                 "console",
		"output.color":               true,
		"output.format":              "text",
		"export.chunk_size":          49,
		"audit.enabled":              false,
		"audit.path":                 filepath.Join(configDir(), "audit.log"),
	}
}

// Keys lists the known configuration keys in display order.
var Keys = []string{
	"engine.mode", "engine.country_code", "engine.contact_placeholder",
	"store.path", "store.enabled",
	"server.addr",
	"log.level", "log.format",
	"output.format", "output.color",
	"export.chunk_size",
	"audit.enabled", "audit.path",
}

func configDir() string {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetkit"
	}
	return filepath.Join(home, ".sheetkit")
}

// Dir returns the sheetkit home directory holding the config file, the
// store and the watcher's PID file.
func Dir() string {
	return configDir()
}
