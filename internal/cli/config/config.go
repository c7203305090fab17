package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ONTOGATE_SERVER_PORT
const EnvPrefix = "ONTOGATE"

// Config represents the ontogate configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Triplestore TriplestoreConfig `mapstructure:"triplestore"`
	API         APIConfig         `mapstructure:"api"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Events      EventsConfig      `mapstructure:"events"`
	StoredQuery StoredQueryConfig `mapstructure:"storedquery"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TriplestoreConfig represents the SPARQL endpoint configuration
type TriplestoreConfig struct {
	URL        string        `mapstructure:"url"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RulesetURI string        `mapstructure:"ruleset_uri"`
}

// APIConfig holds the request defaults
type APIConfig struct {
	URIPrefix      string `mapstructure:"uri_prefix"`
	DefaultLang    string `mapstructure:"default_lang"`
	DefaultPerPage int    `mapstructure:"default_per_page"`
	MaxPerPage     int    `mapstructure:"max_per_page"`
	PrefixesFile   string `mapstructure:"prefixes_file"`
}

// CacheConfig represents response cache configuration
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	Redis     RedisConfig   `mapstructure:"redis"`
}

// RedisConfig represents the redis backend of the cache
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EventsConfig represents the purge broadcast configuration
type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	NatsURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

// StoredQueryConfig represents the stored query database
type StoredQueryConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("triplestore.url", "http://localhost:8890/sparql-auth")
	v.SetDefault("triplestore.username", "")
	v.SetDefault("triplestore.password", "")
	v.SetDefault("triplestore.timeout", 30*time.Second)
	v.SetDefault("triplestore.ruleset_uri", "http://semantica.globo.com/ruleset")

	v.SetDefault("api.uri_prefix", "http://semantica.globo.com/")
	v.SetDefault("api.default_lang", "")
	v.SetDefault("api.default_per_page", 10)
	v.SetDefault("api.max_per_page", 100)
	v.SetDefault("api.prefixes_file", "")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.key_prefix", "ontogate:")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.nats_url", "nats://localhost:4222")
	v.SetDefault("events.subject", "ontogate.cache.purge")

	v.SetDefault("storedquery.driver", "")
	v.SetDefault("storedquery.dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load loads the configuration from path, or from ontogate.yaml in the
// working directory when path is empty. Environment variables override the
// file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ontogate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}

	u, err := url.Parse(cfg.Triplestore.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("triplestore.url must be an absolute URL, got: %s", cfg.Triplestore.URL)
	}

	if !strings.HasSuffix(cfg.API.URIPrefix, "/") {
		return fmt.Errorf("api.uri_prefix must end with '/', got: %s", cfg.API.URIPrefix)
	}
	if cfg.API.DefaultPerPage < 1 {
		return fmt.Errorf("api.default_per_page must be positive, got: %d", cfg.API.DefaultPerPage)
	}
	if cfg.API.MaxPerPage < cfg.API.DefaultPerPage {
		return fmt.Errorf("api.max_per_page (%d) must not be lower than api.default_per_page (%d)",
			cfg.API.MaxPerPage, cfg.API.DefaultPerPage)
	}

	if cfg.Cache.Enabled {
		switch cfg.Cache.Backend {
		case BackendMemory, BackendRedis:
		default:
			return fmt.Errorf("cache.backend must be %q or %q, got: %s", BackendMemory, BackendRedis, cfg.Cache.Backend)
		}
	}

	if cfg.Events.Enabled && cfg.Events.Subject == "" {
		return fmt.Errorf("events.subject must be set when events are enabled")
	}

	switch cfg.StoredQuery.Driver {
	case "":
	case "sqlite3", "postgres":
		if cfg.StoredQuery.DSN == "" {
			return fmt.Errorf("storedquery.dsn must be set for driver %s", cfg.StoredQuery.Driver)
		}
	default:
		return fmt.Errorf("storedquery.driver must be sqlite3 or postgres, got: %s", cfg.StoredQuery.Driver)
	}

	switch cfg.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got: %s", cfg.Log.Format)
	}
	return nil
}
