package config

import "go.uber.org/fx"

// Module exposes the sections of a *Config to the components that need only
// one of them. The *Config itself is supplied by the caller.
var Module = fx.Options(
	fx.Provide(
		func(c *Config) *APIConfig { return &c.API },
		func(c *Config) *ServerConfig { return &c.Server },
		func(c *Config) *CacheConfig { return &c.Cache },
		func(c *Config) *OAuthConfig { return &c.OAuth },
		func(c *Config) *LoggingConfig { return &c.Logging },
	),
)
