package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1/", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "X-CSRFTOKEN", cfg.API.CSRFHeader)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NAVGUARD_API_BASE_URL", "https://api.jobvyne.test/")
	t.Setenv("NAVGUARD_SERVER_PORT", "9090")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.jobvyne.test/", cfg.API.BaseURL)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_FlagOverrides(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(flags)
	require.NoError(t, flags.Parse([]string{"--api-url", "https://flag.test/", "--log-level", "debug"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	assert.Equal(t, "https://flag.test/", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: "api.base_url is required",
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Cache.Backend = CacheBackendRedis },
			wantErr: "cache.redis_addr is required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			wantErr: "unsupported cache backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
