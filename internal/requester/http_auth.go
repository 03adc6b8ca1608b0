package requester

import (
	"net/http"

	"github.com/jobvyne/navguard/internal/config"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// NoAuthManager sends requests as an anonymous visitor.
type NoAuthManager struct{}

// ApplyAuth implements AuthManager.
func (NoAuthManager) ApplyAuth(*http.Request) error { return nil }

// SessionAuthManager authenticates the way the browser client does: the
// visitor's session cookies travel with every request and the CSRF cookie
// value is echoed in the CSRF header.
type SessionAuthManager struct {
	cookies    []*http.Cookie
	csrfCookie string
	csrfHeader string
}

// NewSessionAuthManager creates a SessionAuthManager for the given cookies.
func NewSessionAuthManager(apiCfg *config.APIConfig, cookies []*http.Cookie) *SessionAuthManager {
	return &SessionAuthManager{
		cookies:    cookies,
		csrfCookie: apiCfg.CSRFCookie,
		csrfHeader: apiCfg.CSRFHeader,
	}
}

// NewAuthManager is the fx constructor: a session manager with no cookies yet.
func NewAuthManager(apiCfg *config.APIConfig) AuthManager {
	return NewSessionAuthManager(apiCfg, nil)
}

// ApplyAuth adds cookies and the CSRF header to the request
func (a *SessionAuthManager) ApplyAuth(req *http.Request) error {
	for _, c := range a.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	if token := a.CSRFToken(); token != "" && a.csrfHeader != "" {
		req.Header.Set(a.csrfHeader, token)
	}
	return nil
}

// CSRFToken returns the CSRF cookie value, or "" when it is not set.
func (a *SessionAuthManager) CSRFToken() string {
	if a.csrfCookie == "" {
		return ""
	}
	for _, c := range a.cookies {
		if c.Name == a.csrfCookie {
			return c.Value
		}
	}
	return ""
}
