package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort          = "8080"
	defaultLang          = "en"
	defaultExcerptLength = 30
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port", defaultPort)
}

func (c *Config) GetLogLevel() string {
	return c.getString("LOG_LEVEL", "log.level", "info")
}

// GetAllowedOrigins returns the CORS origins; empty means any origin.
func (c *Config) GetAllowedOrigins() []string {
	if origins := c.config.GetString("ALLOWED_ORIGINS"); len(origins) > 0 {
		return splitAndTrim(origins)
	}
	return c.config.GetStringSlice("server.allowed_origins")
}

func (c *Config) GetKVDBPath() string {
	return c.withStorageRoot(c.getString("KVDB_PATH", "database.kvdb_path", "kv.db"))
}

func (c *Config) GetIndexPath() string {
	return c.withStorageRoot(c.getString("INDEX_PATH", "database.index_path", "index.bleve"))
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path", "")
}

// GetBadgesPath returns the location of the props file describing the
// configured filter badges. Relative paths resolve against the project root.
func (c *Config) GetBadgesPath() string {
	badgesPath := c.getString("BADGES_PATH", "badges.path", "")
	if len(badgesPath) == 0 || filepath.IsAbs(badgesPath) {
		return badgesPath
	}
	if projectRoot, err := getProjectRoot(); err == nil {
		return filepath.Join(projectRoot, badgesPath)
	}
	return badgesPath
}

func (c *Config) GetDefaultLang() string {
	return c.getString("DEFAULT_LANG", "badges.default_lang", defaultLang)
}

func (c *Config) GetExcerptLength() int {
	if length := c.config.GetInt("EXCERPT_LENGTH"); length > 0 {
		return length
	}
	if length := c.config.GetInt("search.excerpt_length"); length > 0 {
		return length
	}
	return defaultExcerptLength
}

func (c *Config) GetBaseURL() string {
	return c.getString("BASE_URL", "search.base_url", "/")
}

// GetFilterKey is the page filter category that badges select on.
func (c *Config) GetFilterKey() string {
	return c.getString("FILTER_KEY", "search.filter_key", "type")
}

func (c *Config) getString(envKey string, fileKey string, fallback string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(fileKey)
	}
	if len(value) == 0 {
		value = fallback
	}

	return value
}

func (c *Config) withStorageRoot(path string) string {
	storagePath := c.GetStoragePath()
	if len(storagePath) == 0 || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(storagePath, path)
}

func splitAndTrim(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); len(part) > 0 {
			parts = append(parts, part)
		}
	}
	return parts
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
