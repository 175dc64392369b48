package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultUserAgent identifies the service to the Discogs API when none is configured.
const DefaultUserAgent = "Bookshelf/0.1.0"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Discogs  DiscogsConfig  `toml:"discogs"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// AuthConfig contains bearer token verification settings.
//
// JWTSecret is the HS256 secret shared with the identity provider.
// When ProvisionUsers is set, a users row is created the first time a valid token is seen.
type AuthConfig struct {
	JWTSecret      string `toml:"jwt_secret"`
	ProvisionUsers bool   `toml:"provision_users"`
}

// DiscogsConfig contains Discogs OAuth 1.0a consumer credentials and client settings.
type DiscogsConfig struct {
	ConsumerKey        string        `toml:"consumer_key"`
	ConsumerSecret     string        `toml:"consumer_secret"`
	UserAgent          string        `toml:"user_agent"`
	StateEncryptionKey string        `toml:"state_encryption_key"`
	BaseURL            string        `toml:"base_url"`
	AuthorizeURL       string        `toml:"authorize_url"`
	RequestTimeout     time.Duration `toml:"request_timeout"`
	RequestsPerSecond  float64       `toml:"requests_per_second"`
	Burst              int           `toml:"burst"`
}

// CacheConfig contains TTL and capacity settings for the search and release detail caches.
type CacheConfig struct {
	SearchTTL   time.Duration `toml:"search_ttl"`
	SearchSize  int           `toml:"search_size"`
	ReleaseTTL  time.Duration `toml:"release_ttl"`
	ReleaseSize int           `toml:"release_size"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DiscogsConfigured reports whether every value needed for the OAuth flow is present.
func (c *Config) DiscogsConfigured() bool {
	return c.Discogs.ConsumerKey != "" && c.Discogs.ConsumerSecret != "" && c.Discogs.StateEncryptionKey != ""
}

// DiscogsPartiallyConfigured reports whether some, but not all, Discogs values are set.
func (c *Config) DiscogsPartiallyConfigured() bool {
	set := c.Discogs.ConsumerKey != "" || c.Discogs.ConsumerSecret != "" || c.Discogs.StateEncryptionKey != ""
	return set && !c.DiscogsConfigured()
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from the given .env files into the process environment.
//
// Missing files are ignored, existing environment variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with environment variables when they are set.
func ApplyEnv(c *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("DISCOGS_CONSUMER_KEY", &c.Discogs.ConsumerKey)
	setString("DISCOGS_CONSUMER_SECRET", &c.Discogs.ConsumerSecret)
	setString("DISCOGS_USER_AGENT", &c.Discogs.UserAgent)
	setString("STATE_ENCRYPTION_KEY", &c.Discogs.StateEncryptionKey)
	setString("JWT_SECRET", &c.Auth.JWTSecret)
	setString("DATABASE_PATH", &c.Database.Path)
	setString("LOG_LEVEL", &c.Log.Level)

	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT must be an integer: %q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok && v != "" {
		origins := []string{}
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}

	if c.Discogs.UserAgent == "" {
		c.Discogs.UserAgent = DefaultUserAgent
	}

	return nil
}
