// Package route declares the navigable views of the client and matches
// concrete URLs against them.
package route

import (
	"net/url"
	"sort"
	"strings"

	"github.com/jobvyne/navguard/internal/usertype"
)

// Well-known route names the guard redirects to or special-cases.
const (
	NameHome            = "home"
	NameLogin           = "login"
	NameOnboard         = "onboard"
	NameError           = "error"
	NameNotFound        = "not-found"
	NameAuthCallback    = "auth-callback"
	NameDonationConfirm = "donation-confirm"
	NameKarmaHome       = "karma-home"
	NameSettings        = "settings"
	NameProfile         = "profile"
)

// Param and query keys shared between routes and the guard.
const (
	ParamNamespace   = "namespace"
	ParamKey         = "key"
	ParamProvider    = "provider"
	ParamFilterID    = "filterId"
	ParamEmployerKey = "employerKey"

	QueryRedirectPageURL = "redirectPageUrl"
	QueryDonationID      = "donationId"
	QueryCode            = "code"
	QueryState           = "state"
	QueryTab             = "tab"
)

// Meta is the static capability description of a route. CanEdit is the
// only field written at navigation time.
type Meta struct {
	IsNoAuth     bool          `yaml:"is_no_auth" json:"isNoAuth"`
	TrackRoute   bool          `yaml:"track_route" json:"trackRoute"`
	UserTypeBits usertype.Bits `yaml:"user_type_bits" json:"userTypeBits"`
	PageKey      string        `yaml:"page_key" json:"pageKey,omitempty"`
	CanEdit      bool          `yaml:"-" json:"canEdit"`
}

// Route is a named navigation target. Path segments starting with ':' are
// parameters.
type Route struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Meta      Meta   `yaml:"meta"`
}

// PageKey returns the key used for permission lookups, defaulting to the
// route name.
func (r *Route) PageKey() string {
	if r.Meta.PageKey != "" {
		return r.Meta.PageKey
	}
	return r.Name
}

// Location is a concrete navigation: a route name with params and query.
type Location struct {
	Name   string            `json:"name,omitempty"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
	Query  url.Values        `json:"query,omitempty"`
}

// URL renders path and query.
func (l Location) URL() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Param returns a route param or "".
func (l Location) Param(key string) string {
	return l.Params[key]
}

// Clone returns a deep copy of l.
func (l Location) Clone() Location {
	out := Location{Name: l.Name, Path: l.Path}
	if l.Params != nil {
		out.Params = make(map[string]string, len(l.Params))
		for k, v := range l.Params {
			out.Params[k] = v
		}
	}
	if l.Query != nil {
		out.Query = make(url.Values, len(l.Query))
		for k, v := range l.Query {
			out.Query[k] = append([]string(nil), v...)
		}
	}
	return out
}

// QueryMap flattens the query to its first values, the shape the API
// expects for page-view tracking.
func (l Location) QueryMap() map[string]string {
	if len(l.Query) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(l.Query))
	keys := make([]string, 0, len(l.Query))
	for k := range l.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = l.Query.Get(k)
	}
	return out
}

// Target is the result of matching a URL: the declared route plus the
// concrete location.
type Target struct {
	Route    *Route
	Location Location
}

// Namespace returns the namespace param of the target.
func (t Target) Namespace() string {
	return t.Location.Param(ParamNamespace)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
