package guard

import (
	"context"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/permission"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/jobvyne/navguard/internal/route"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LoadRoutes returns the route table from cfg.RoutesFile, or the built-in
// table when no file is configured.
func LoadRoutes(cfg *config.Config) (*route.Table, error) {
	if cfg.RoutesFile == "" {
		return route.DefaultTable(), nil
	}
	logger.Info("loading route table", zap.String("file", cfg.RoutesFile))
	return route.LoadTable(cfg.RoutesFile)
}

// LoadPages returns the page table from cfg.PagesFile, or the built-in
// table when no file is configured.
func LoadPages(cfg *config.Config) (*permission.Table, error) {
	if cfg.PagesFile == "" {
		return permission.DefaultTable(), nil
	}
	logger.Info("loading page table", zap.String("file", cfg.PagesFile))
	return permission.LoadTable(cfg.PagesFile)
}

type guardParams struct {
	fx.In

	API     requester.API
	Pages   *permission.Table
	Routes  *route.Table
	Tracker Tracker
}

func newGuard(p guardParams) (*Guard, error) {
	return New(Deps{
		API:     p.API,
		Pages:   p.Pages,
		Routes:  p.Routes,
		Tracker: p.Tracker,
	})
}

func newTracker(lc fx.Lifecycle, cfg *config.Config) *PageViewTracker {
	t := NewPageViewTracker(cfg.Server.PageViewTimeout)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := t.Flush(ctx); err != nil {
				logger.Warn("pending page views dropped", zap.Error(err))
			}
			return nil
		},
	})
	return t
}

// Module provides the guard, its tables and the page view tracker
var Module = fx.Module("guard",
	fx.Provide(
		LoadRoutes,
		LoadPages,
		newTracker,
		fx.Annotate(
			func(t *PageViewTracker) *PageViewTracker { return t },
			fx.As(new(Tracker)),
		),
		newGuard,
	),
)
