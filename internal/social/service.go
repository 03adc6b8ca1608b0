package social

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/memo"
	"github.com/jobvyne/navguard/internal/oauthstate"
	"github.com/jobvyne/navguard/internal/requester"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// CredentialsPath lists the provider client settings.
const CredentialsPath = "social-credentials/"

// Credential is the client configuration the API publishes for a provider.
type Credential struct {
	AuthURL    string            `json:"auth_url"`
	AuthParams map[string]string `json:"auth_params"`
}

// Redirect is where the visitor should end up after signing in.
type Redirect struct {
	Page        string
	Params      map[string]string
	UserTypeBit *int
	IsLogin     *bool
}

// Service builds provider consent URLs.
type Service struct {
	api   requester.API
	cfg   *config.OAuthConfig
	creds *memo.Memo[map[string]Credential]
}

// NewService creates a service that reads credentials through api.
func NewService(api requester.API, cfg *config.OAuthConfig) *Service {
	return &Service{
		api:   api,
		cfg:   cfg,
		creds: memo.NewMemory[map[string]Credential]("social-credentials"),
	}
}

// Credentials fetches the provider credentials once per service.
func (s *Service) Credentials(ctx context.Context, force bool) (map[string]Credential, error) {
	key := memo.NewKey()
	err := s.creds.Set(ctx, key, force, func(ctx context.Context) (map[string]Credential, error) {
		resp, err := s.api.Get(ctx, CredentialsPath, nil)
		if err != nil {
			return nil, err
		}
		var out map[string]Credential
		if err := resp.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("social credentials: %w", err)
	}
	return s.creds.GetOr(ctx, key, map[string]Credential{}), nil
}

// CallbackURL is the client route the provider redirects back to.
func (s *Service) CallbackURL(provider string) string {
	base := "/"
	if s.cfg != nil && s.cfg.FrontendURL != "" {
		base = s.cfg.FrontendURL
	}
	return strings.TrimRight(base, "/") + "/auth/" + url.PathEscape(provider) + "/callback"
}

// AuthURL returns the consent URL for provider. The redirect travels in the
// provider's state parameter, alongside the state token the API issued.
func (s *Service) AuthURL(ctx context.Context, provider string, r Redirect) (string, error) {
	platform, err := Lookup(provider)
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, provider)
	}

	creds, err := s.Credentials(ctx, false)
	if err != nil {
		return "", err
	}
	cred := creds[provider]

	params := make(map[string]string, len(cred.AuthParams))
	for k, v := range cred.AuthParams {
		params[k] = v
	}

	oc := &oauth2.Config{
		ClientID:    params["client_id"],
		Endpoint:    platform.Endpoint,
		RedirectURL: params["redirect_uri"],
		Scopes:      platform.Scopes,
	}
	if cred.AuthURL != "" {
		oc.Endpoint.AuthURL = cred.AuthURL
	}
	if oc.ClientID == "" && s.cfg != nil {
		oc.ClientID = s.cfg.ClientIDs[provider]
	}
	if oc.ClientID == "" {
		return "", fmt.Errorf("no client id configured for %s", provider)
	}
	if oc.RedirectURL == "" {
		oc.RedirectURL = s.CallbackURL(provider)
	}
	if scope := params["scope"]; scope != "" {
		oc.Scopes = strings.Fields(strings.ReplaceAll(scope, ",", " "))
	}

	state := oauthstate.Serialize(oauthstate.Payload{
		State:           params["state"],
		RedirectPageURL: r.Page,
		RedirectParams:  r.Params,
		UserTypeBit:     r.UserTypeBit,
		IsLogin:         r.IsLogin,
	})

	for _, k := range []string{"client_id", "redirect_uri", "scope", "state", "response_type"} {
		delete(params, k)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	opts := make([]oauth2.AuthCodeOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, oauth2.SetAuthURLParam(k, params[k]))
	}

	logger.Debug("built oauth url",
		zap.String("provider", provider),
		zap.String("redirect_page", r.Page),
	)
	return oc.AuthCodeURL(state, opts...), nil
}
