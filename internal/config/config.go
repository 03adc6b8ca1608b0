package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("navguard version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	API        APIConfig     `mapstructure:"api"`
	Server     ServerConfig  `mapstructure:"server"`
	Logging    LoggingConfig `mapstructure:"logging"`
	Cache      CacheConfig   `mapstructure:"cache"`
	OAuth      OAuthConfig   `mapstructure:"oauth"`
	RoutesFile string        `mapstructure:"routes_file"`
	PagesFile  string        `mapstructure:"pages_file"`
}

// APIConfig describes how to reach the remote JobVyne API.
type APIConfig struct {
	BaseURL    string            `json:"base_url" mapstructure:"base_url"`
	Timeout    time.Duration     `json:"timeout" mapstructure:"timeout"`
	Headers    map[string]string `json:"headers" mapstructure:"headers"`
	CSRFCookie string            `json:"csrf_cookie" mapstructure:"csrf_cookie"`
	CSRFHeader string            `json:"csrf_header" mapstructure:"csrf_header"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	PageViewTimeout time.Duration `mapstructure:"page_view_timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	// OutputPath is a file to append logs to. Empty means stderr.
	OutputPath string `mapstructure:"output_path"`
}

// CacheBackend selects where memoized API responses live.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

type CacheConfig struct {
	Backend   CacheBackend `mapstructure:"backend"`
	RedisAddr string       `mapstructure:"redis_addr"`
	RedisDB   int          `mapstructure:"redis_db"`
	Prefix    string       `mapstructure:"prefix"`
}

// OAuthConfig holds the social login settings. Client ids are usually
// served by the API (social-credentials/); entries here override them.
type OAuthConfig struct {
	FrontendURL string            `mapstructure:"frontend_url"`
	ClientIDs   map[string]string `mapstructure:"client_ids"`
}

// Default returns a configuration usable without any config file.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api/v1/",
			Timeout:    30 * time.Second,
			CSRFCookie: "csrftoken",
			CSRFHeader: "X-CSRFTOKEN",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			PageViewTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			Prefix:  "navguard",
		},
		OAuth: OAuthConfig{
			FrontendURL: "http://localhost:9000/",
		},
	}
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("api-url", "", "Base URL of the JobVyne API")
	flags.String("routes-file", "", "Path to a YAML route table")
	flags.String("pages-file", "", "Path to a YAML page permission table")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout", def.API.Timeout)
	v.SetDefault("api.csrf_cookie", def.API.CSRFCookie)
	v.SetDefault("api.csrf_header", def.API.CSRFHeader)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.page_view_timeout", def.Server.PageViewTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("cache.backend", string(def.Cache.Backend))
	v.SetDefault("cache.prefix", def.Cache.Prefix)
	v.SetDefault("oauth.frontend_url", def.OAuth.FrontendURL)
}

// Load reads configuration from ./config.yaml or /etc/navguard/config.yaml,
// NAVGUARD_* environment variables and the given flags. A missing config
// file is not an error.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("NAVGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/navguard")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	//Loading additionals config files
	if _, err := os.Stat("/config/config.yaml"); err == nil {
		v.SetConfigFile("/config/config.yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge /config/config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if apiURL := v.GetString("api-url"); apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if routesFile := v.GetString("routes-file"); routesFile != "" {
		cfg.RoutesFile = routesFile
	}
	if pagesFile := v.GetString("pages-file"); pagesFile != "" {
		cfg.PagesFile = pagesFile
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required, please adjust the config or pass --api-url or NAVGUARD_API_BASE_URL environment variable")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, "":
	case CacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	return nil
}
