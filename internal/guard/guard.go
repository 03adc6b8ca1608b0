// Package guard decides, for every attempted navigation, whether the visitor
// may proceed or must be sent somewhere else. It resolves the visitor's
// session against the API on every run.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/oauthstate"
	"github.com/jobvyne/navguard/internal/permission"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/jobvyne/navguard/internal/route"
	"github.com/jobvyne/navguard/internal/session"
	"github.com/jobvyne/navguard/internal/usertype"
	"go.uber.org/zap"
)

// API paths the guard calls besides check-auth.
const (
	SocialExchangePath = "social/%s/"
	DonationPath       = "karma/user-donation/"
)

type socialExchange struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	UserTypeBit *int   `json:"userTypeBit"`
	IsLogin     *bool  `json:"isLogin"`
}

type donationConfirm struct {
	DonationID string `json:"donation_id"`
}

// Deps are the collaborators of a guard.
type Deps struct {
	API     requester.API
	Session *session.Store
	Pages   *permission.Table
	Routes  *route.Table
	Tracker Tracker
	Deploy  *session.DeployWatcher
}

// Guard resolves navigations for one visitor.
type Guard struct {
	api     requester.API
	session *session.Store
	pages   *permission.Table
	routes  *route.Table
	tracker Tracker
	deploy  *session.DeployWatcher
}

// New validates deps and builds a guard. A nil Session gets a fresh store on
// API; a nil Deploy gets a default watcher.
func New(d Deps) (*Guard, error) {
	switch {
	case d.API == nil:
		return nil, errors.New("guard: API is required")
	case d.Pages == nil:
		return nil, errors.New("guard: page table is required")
	case d.Routes == nil:
		return nil, errors.New("guard: route table is required")
	case d.Tracker == nil:
		return nil, errors.New("guard: tracker is required")
	}
	if d.Session == nil {
		d.Session = session.NewStore(d.API)
	}
	if d.Deploy == nil {
		d.Deploy = session.NewDeployWatcher(0)
	}
	return &Guard{
		api:     d.API,
		session: d.Session,
		pages:   d.Pages,
		routes:  d.Routes,
		tracker: d.Tracker,
		deploy:  d.Deploy,
	}, nil
}

// versionReporter is implemented by APIs that surface the jv-version
// response header.
type versionReporter interface {
	OnVersion(fn func(string))
}

// ForVisitor returns a guard that talks to the API as another visitor. The
// tables and tracker are shared; the session store and deploy watcher are
// fresh. When api reports jv-version headers they feed the new watcher, so
// api should not be shared with another visitor's guard.
func (g *Guard) ForVisitor(api requester.API, knownDeploy string) *Guard {
	deploy := session.NewDeployWatcher(0)
	deploy.Seed(knownDeploy)
	if vr, ok := api.(versionReporter); ok {
		vr.OnVersion(func(v string) { deploy.Observe(v) })
	}
	return &Guard{
		api:     api,
		session: session.NewStore(api),
		pages:   g.pages,
		routes:  g.routes,
		tracker: g.tracker,
		deploy:  deploy,
	}
}

// Session returns the visitor's session store.
func (g *Guard) Session() *session.Store { return g.session }

// Routes returns the route table the guard matches against.
func (g *Guard) Routes() *route.Table { return g.routes }

// Pages returns the page permission table.
func (g *Guard) Pages() *permission.Table { return g.pages }

// Navigate matches rawURL against the route table and resolves it.
func (g *Guard) Navigate(ctx context.Context, rawURL string) (Outcome, error) {
	target, err := g.routes.Match(rawURL)
	if err != nil {
		return Outcome{}, err
	}
	return g.Resolve(ctx, target)
}

// Resolve runs the guard for target. HTTP failures become RedirectError
// outcomes; the returned error is reserved for invalid targets and route
// tables that cannot render a redirect.
func (g *Guard) Resolve(ctx context.Context, target route.Target) (Outcome, error) {
	if target.Route == nil {
		return Outcome{}, errors.New("guard: target has no route")
	}
	log := logger.With(
		zap.String("route", target.Route.Name),
		zap.String("path", target.Location.Path),
	)

	var (
		out Outcome
		err error
	)
	if target.Route.Name == route.NameAuthCallback {
		out, err = g.oauthCallback(ctx, target, log)
	} else {
		out, err = g.resolveSession(ctx, target, log)
	}
	if err != nil {
		return Outcome{}, err
	}

	out.Reload = g.deploy.TakeReload()
	if known := g.deploy.Known(); !known.IsZero() {
		out.DeployTS = known.Format(time.RFC3339)
	}
	log.Debug("navigation resolved",
		zap.String("outcome", out.Kind.String()),
		zap.String("to", out.Location.URL()),
		zap.String("reason", out.Reason),
	)
	return out, nil
}

func (g *Guard) oauthCallback(ctx context.Context, target route.Target, log *zap.Logger) (Outcome, error) {
	provider := target.Location.Param(route.ParamProvider)
	payload, err := oauthstate.Deserialize(target.Location.Query.Get(route.QueryState))
	if err != nil {
		log.Warn("oauth state rejected", zap.Error(err))
		return g.errorOutcome("malformed oauth state")
	}

	path := fmt.Sprintf(SocialExchangePath, url.PathEscape(provider))
	if _, err := g.api.PostForm(ctx, path, socialExchange{
		Code:        target.Location.Query.Get(route.QueryCode),
		State:       payload.State,
		UserTypeBit: payload.UserTypeBit,
		IsLogin:     payload.IsLogin,
	}); err != nil {
		log.Warn("social sign-in failed", zap.String("provider", provider), zap.Error(err))
		return g.errorOutcome("social exchange failed")
	}

	if loc, ok := redirectLocation(payload); ok {
		return Outcome{Kind: Proceed, Location: loc, Reason: "oauth callback"}, nil
	}
	if payload.RedirectPageURL != "" {
		log.Warn("ignoring non-relative oauth redirect", zap.String("redirect", payload.RedirectPageURL))
	}

	resp, err := g.session.CheckAuth(ctx)
	if err != nil {
		log.Warn("check-auth failed after social sign-in", zap.Error(err))
		return g.errorOutcome("check-auth failed")
	}
	g.deploy.Observe(resp.DeployTS)

	role := usertype.None
	if payload.UserTypeBit != nil {
		role = usertype.Bits(*payload.UserTypeBit)
	}
	loc, err := g.routes.Resolve(g.pages.DefaultLandingPage(resp.User, role))
	if err != nil {
		return Outcome{}, fmt.Errorf("landing page: %w", err)
	}
	if len(payload.RedirectParams) > 0 {
		loc = loc.Clone()
		if loc.Query == nil {
			loc.Query = url.Values{}
		}
		for k, v := range payload.RedirectParams {
			loc.Query.Set(k, v)
		}
	}
	return Outcome{Kind: Proceed, Location: loc, Reason: "oauth callback"}, nil
}

// redirectLocation turns the decoded redirect into a location. Only
// same-site paths are accepted.
func redirectLocation(p oauthstate.Payload) (route.Location, bool) {
	raw := p.RedirectPageURL
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return route.Location{}, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" {
		return route.Location{}, false
	}
	q := u.Query()
	for k, v := range p.RedirectParams {
		q.Set(k, v)
	}
	if len(q) == 0 {
		q = nil
	}
	return route.Location{Path: u.Path, Query: q}, true
}

func (g *Guard) resolveSession(ctx context.Context, target route.Target, log *zap.Logger) (Outcome, error) {
	r := target.Route
	meta := r.Meta

	if meta.TrackRoute {
		g.tracker.Track(ctx, g.api, PageViewFor(target.Location))
	}

	resp, err := g.session.CheckAuth(ctx)
	if err != nil {
		log.Warn("check-auth failed", zap.Error(err))
		return g.errorOutcome("check-auth failed")
	}
	g.deploy.Observe(resp.DeployTS)
	user := resp.User

	if !session.IsAuthenticated(user) {
		if !meta.IsNoAuth {
			return g.redirect(RedirectAuth, route.Location{
				Name:  route.NameLogin,
				Query: url.Values{route.QueryRedirectPageURL: {target.Location.Path}},
			}, "authentication required")
		}
		meta.CanEdit = g.pages.UserPagePermissions(nil, r.PageKey()).CanEdit
		return Outcome{Kind: Proceed, Location: target.Location, Meta: meta}, nil
	}

	if user.UserTypeBits == usertype.None && usertype.IsMainNamespace(target.Namespace()) {
		return g.redirect(RedirectOnboard, route.Location{Name: route.NameOnboard}, "no role assigned")
	}

	if r.Name == route.NameHome || r.Name == route.NameLogin {
		return g.redirect(RedirectLanding, g.pages.DefaultLandingPage(user, usertype.None), "already signed in")
	}

	decision := g.pages.UserPagePermissions(user, r.PageKey())
	if meta.UserTypeBits != usertype.None && !meta.UserTypeBits.Has(user.UserTypeBits) {
		decision = permission.Decision{}
	}
	if !decision.CanView {
		return g.redirect(RedirectPermissionDenied, route.Location{
			Name: route.NameSettings,
			Params: map[string]string{
				route.ParamNamespace: "account",
				route.ParamKey:       "settings",
			},
			Query: url.Values{route.QueryTab: {"security"}},
		}, "page not viewable")
	}
	meta.CanEdit = decision.CanEdit

	if r.Name == route.NameDonationConfirm {
		donationID := target.Location.Query.Get(route.QueryDonationID)
		if _, err := g.api.PutForm(ctx, DonationPath, donationConfirm{DonationID: donationID}); err != nil {
			log.Warn("donation confirmation failed", zap.String("donation_id", donationID), zap.Error(err))
			return g.errorOutcome("donation confirmation failed")
		}
		loc, err := g.routes.Resolve(route.Location{Name: route.NameKarmaHome})
		if err != nil {
			return Outcome{}, fmt.Errorf("karma home: %w", err)
		}
		return Outcome{Kind: Proceed, Location: loc, Meta: meta, Reason: "donation confirmed"}, nil
	}

	return Outcome{Kind: Proceed, Location: target.Location, Meta: meta}, nil
}

func (g *Guard) redirect(kind Kind, loc route.Location, reason string) (Outcome, error) {
	resolved, err := g.routes.Resolve(loc)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s redirect: %w", kind, err)
	}
	return Outcome{Kind: kind, Location: resolved, Reason: reason}, nil
}

func (g *Guard) errorOutcome(reason string) (Outcome, error) {
	return g.redirect(RedirectError, route.Location{Name: route.NameError}, reason)
}
