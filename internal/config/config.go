// Package config loads server settings.
//
// LAYERS (later wins):
//  1. Built-in defaults (setDefaults)
//  2. An optional YAML file passed with --config
//  3. Environment variables: SNIPPETS_SERVER_PORT, SNIPPETS_DATABASE_PATH, ...
//     plus the short legacy names PORT, DB_PATH, JWT_SECRET and GITHUB_*.
//  4. Command-line flags (see RegisterFlags), when set.
//
// Every key has a default, which matters: viper only consults the
// environment for keys it already knows about when unmarshalling.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SNIPPETS"

// Config is the full set of settings for both binaries.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	GitHub     GitHubConfig     `mapstructure:"github"`
	Executor   ExecutorConfig   `mapstructure:"executor"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Path is a file path, or ":memory:" for a throwaway database.
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	// JWTSecret signs tokens. When empty the server makes up a random one at
	// startup, so tokens stop working after a restart.
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// GitHubConfig enables "Sign in with GitHub" when ClientID is set.
type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
	// AfterLogin is where the browser lands once the callback succeeds.
	AfterLogin string `mapstructure:"after_login"`
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type ExecutorConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Languages []string      `mapstructure:"languages"`
	PoolSize  int           `mapstructure:"pool_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type PaginationConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// legacyEnv maps keys to the unprefixed variable names older deployments use.
var legacyEnv = map[string]string{
	"server.port":          "PORT",
	"database.path":        "DB_PATH",
	"auth.jwt_secret":      "JWT_SECRET",
	"github.client_id":     "GITHUB_CLIENT_ID",
	"github.client_secret": "GITHUB_CLIENT_SECRET",
	"github.callback_url":  "GITHUB_CALLBACK_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/snippets.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.callback_url", "")
	v.SetDefault("github.after_login", "/auth/me")

	v.SetDefault("executor.enabled", false)
	v.SetDefault("executor.languages", []string{"python", "javascript", "ruby", "bash", "perl"})
	v.SetDefault("executor.pool_size", 2)
	v.SetDefault("executor.timeout", 5*time.Second)

	v.SetDefault("pagination.page_size", 10)
	v.SetDefault("pagination.max_page_size", 100)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load builds a Config. path may be empty; a named file that can't be read
// is an error.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, bind func(*viper.Viper) error) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// BindEnv with explicit names skips the prefix, so the prefixed name is
	// listed first to keep it winning over the legacy one.
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("config: binding %s: %w", key, err)
		}
	}

	if bind != nil {
		if err := bind(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server can't run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is empty"))
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Pagination.PageSize < 1 {
		errs = append(errs, errors.New("pagination.page_size must be at least 1"))
	}
	if c.Pagination.MaxPageSize < c.Pagination.PageSize {
		errs = append(errs, errors.New("pagination.max_page_size is below pagination.page_size"))
	}
	if c.Executor.Enabled && c.Executor.PoolSize < 1 {
		errs = append(errs, errors.New("executor.pool_size must be at least 1"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
