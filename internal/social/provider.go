// Package social builds the consent URLs for social sign-in. The provider
// sends the visitor back to the client's callback route, where the guard
// finishes the exchange.
package social

import (
	"errors"
	"sort"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Provider keys as the API names them.
const (
	Google   = "google-oauth2"
	Facebook = "facebook"
	LinkedIn = "linkedin-oauth2"
	Slack    = "slack"
)

// ErrUnknownProvider is returned for provider keys outside the registry.
var ErrUnknownProvider = errors.New("unknown social provider")

// Platform describes one sign-in provider.
type Platform struct {
	Key      string
	Name     string
	Logo     string
	Icon     string
	Endpoint oauth2.Endpoint
	Scopes   []string
}

var platforms = map[string]Platform{
	Google: {
		Key:      Google,
		Name:     "Google",
		Logo:     "/logos/google_logo.png",
		Icon:     "fa-google",
		Endpoint: endpoints.Google,
		Scopes:   []string{"openid", "email", "profile"},
	},
	Facebook: {
		Key:      Facebook,
		Name:     "Facebook",
		Icon:     "fa-facebook-f",
		Endpoint: endpoints.Facebook,
		Scopes:   []string{"email"},
	},
	LinkedIn: {
		Key:      LinkedIn,
		Name:     "LinkedIn",
		Logo:     "/logos/linkedIn_logo.png",
		Icon:     "fa-linkedin-in",
		Endpoint: endpoints.LinkedIn,
		Scopes:   []string{"openid", "profile", "email"},
	},
	Slack: {
		Key:      Slack,
		Name:     "Slack",
		Logo:     "/logos/slack_logo.png",
		Icon:     "fa-slack",
		Endpoint: endpoints.Slack,
		Scopes:   []string{"openid", "email", "profile"},
	},
}

// Lookup returns the platform registered under key.
func Lookup(key string) (Platform, error) {
	p, ok := platforms[key]
	if !ok {
		return Platform{}, ErrUnknownProvider
	}
	return p, nil
}

// Logo returns the logo path of a provider. Some providers have none.
func Logo(key string) (string, bool) {
	p, ok := platforms[key]
	if !ok || p.Logo == "" {
		return "", false
	}
	return p.Logo, true
}

// Keys lists the provider keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(platforms))
	for k := range platforms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
