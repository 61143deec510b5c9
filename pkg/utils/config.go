package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix      = "RECIPEHUB"
	minSecretBytes = 32
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Blog      BlogConfig      `mapstructure:"blog"`
	Events    EventsConfig    `mapstructure:"events"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer"`
	JWTDuration time.Duration `mapstructure:"jwt_ttl"`
	UsersFile   string        `mapstructure:"users_file"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	JSONPath      string `mapstructure:"json_path"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
}

type BlogConfig struct {
	Dir string `mapstructure:"dir"`
}

type EventsConfig struct {
	TCPAddr string `mapstructure:"tcp_addr"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LoadConfig is Load followed by a full Validate, for the API server.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads recipehub.{yaml,json,toml} from the working directory if
// present, then overlays RECIPEHUB_* environment variables
// (RECIPEHUB_AUTH_JWT_SECRET for auth.jwt_secret). Nothing is validated.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("recipehub")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.max_body_bytes", 2<<20)

	// no default secret: the server refuses to start without one
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "recipehub")
	v.SetDefault("auth.jwt_ttl", "24h")
	v.SetDefault("auth.users_file", "data/admins.yaml")

	v.SetDefault("storage.driver", "json")
	v.SetDefault("storage.json_path", "data/recipes.json")
	v.SetDefault("storage.sqlite_path", "data/recipes.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", "recipehub")

	v.SetDefault("blog.dir", "data/blog")
	v.SetDefault("events.tcp_addr", "")

	v.SetDefault("rate_limit.rps", 1.0)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required (set %s_AUTH_JWT_SECRET)", envPrefix)
	}
	if len(c.Auth.JWTSecret) < minSecretBytes {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretBytes)
	}
	if c.Auth.JWTDuration <= 0 {
		return fmt.Errorf("auth.jwt_ttl must be positive")
	}
	if c.Auth.UsersFile == "" {
		return fmt.Errorf("auth.users_file is required")
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Blog.Dir == "" {
		return fmt.Errorf("blog.dir is required")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}

// Validate checks only the storage section; the CSV tools need nothing else.
func (c StorageConfig) Validate() error {
	switch c.Driver {
	case "json":
		if c.JSONPath == "" {
			return fmt.Errorf("storage.json_path is required for the json driver")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Driver)
	}
	return nil
}
