package store

import (
	"context"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/requester"
	"go.uber.org/fx"
)

// Module provides the entity stores and their cache
var Module = fx.Options(
	fx.Provide(
		func(api requester.API) Getter { return api },
		func(lc fx.Lifecycle, cfg *config.CacheConfig) (*Cache, error) {
			c, err := NewCache(cfg)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error { return c.Ping(ctx) },
				OnStop:  func(context.Context) error { return c.Close() },
			})
			return c, nil
		},
		NewEmployerStore,
		NewJobsStore,
		NewCommunityStore,
		NewJobSubscriptionStore,
		NewKarmaStore,
		NewBillingStore,
		NewSocialStore,
	),
)
