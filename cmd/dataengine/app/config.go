package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/dataengine/pkg/constants"
	"github.com/agentstation/dataengine/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Identity every repository call is made as
	User string

	// Repository configuration
	Driver       string
	Path         string
	AllowedUsers []string

	// Engine configuration
	SourceCache bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (DATAENGINE_*)
// 3. .env files
// 4. Config file (~/.dataengine.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file. An empty path
// falls back to DATAENGINE_CONFIG and then the standard locations.
func LoadConfigFile(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("user", constants.DefaultUser)
	v.SetDefault("repository.driver", constants.DriverMemory)
	v.SetDefault("source_cache", true)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("." + constants.AppName)
		// Read config file (ignore error if not found)
		_ = v.ReadInConfig()
	}

	return &Config{
		Format:       v.GetString("format"),
		ConfigFile:   v.ConfigFileUsed(),
		User:         v.GetString("user"),
		Driver:       v.GetString("repository.driver"),
		Path:         v.GetString("repository.path"),
		AllowedUsers: splitList(v.GetStringSlice("repository.allowed_users")),
		SourceCache:  v.GetBool("source_cache"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		LogOutput:    v.GetString("log_output"),
	}, nil
}

// RepositoryPath returns the configured path or the default for the driver.
func (c *Config) RepositoryPath() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Driver == constants.DriverSQLite {
		return constants.DefaultSQLitePath
	}
	return constants.DefaultSnapshotPath
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars. Empty strings
// leave the loaded value in place.
func (c *Config) UpdateFromFlags(verbose, quiet bool, format, logLevel, user, driver, path string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if user != "" {
		c.User = user
	}
	if driver != "" {
		c.Driver = driver
	}
	if path != "" {
		c.Path = path
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local does not override values already set by .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// splitList flattens comma separated entries, as environment variables
// carry lists as a single value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
