package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/oauthstate"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const credentialsBody = `{
	"linkedin-oauth2": {
		"auth_url": "https://www.linkedin.com/oauth/v2/authorization",
		"auth_params": {
			"client_id": "li-client",
			"redirect_uri": "https://app.jobvyne.test/auth/linkedin-oauth2/callback",
			"scope": "openid profile email",
			"state": "srv-state",
			"response_type": "code",
			"prompt": "consent"
		}
	},
	"google-oauth2": {
		"auth_params": {}
	}
}`

func newService(t *testing.T, calls *int32, status int) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/social-credentials/", r.URL.Path)
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(credentialsBody))
		}
	}))
	t.Cleanup(srv.Close)

	api := requester.NewHTTPRequester(requester.HTTPRequesterParams{
		APIConfig: &config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
	})
	return NewService(api, &config.OAuthConfig{
		FrontendURL: "https://app.jobvyne.test/",
		ClientIDs:   map[string]string{Google: "google-client"},
	})
}

func TestAuthURL_CarriesSerializedState(t *testing.T) {
	var calls int32
	svc := newService(t, &calls, http.StatusOK)

	raw, err := svc.AuthURL(context.Background(), LinkedIn, Redirect{
		Page:        "/employer/jobs",
		Params:      map[string]string{"tab": "open"},
		UserTypeBit: oauthstate.Int(16),
		IsLogin:     oauthstate.Bool(true),
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.linkedin.com", u.Host)

	q := u.Query()
	assert.Equal(t, "li-client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://app.jobvyne.test/auth/linkedin-oauth2/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "consent", q.Get("prompt"))

	state, err := oauthstate.Deserialize(q.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "srv-state", state.State)
	assert.Equal(t, "/employer/jobs", state.RedirectPageURL)
	assert.Equal(t, map[string]string{"tab": "open"}, state.RedirectParams)
	assert.Equal(t, 16, *state.UserTypeBit)
	assert.True(t, *state.IsLogin)
}

func TestAuthURL_FallsBackToConfig(t *testing.T) {
	var calls int32
	svc := newService(t, &calls, http.StatusOK)

	raw, err := svc.AuthURL(context.Background(), Google, Redirect{})
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "google-client", u.Query().Get("client_id"))
	assert.Equal(t, "https://app.jobvyne.test/auth/google-oauth2/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "", u.Query().Get("state"))

	_, err = svc.AuthURL(context.Background(), Slack, Redirect{})
	assert.Error(t, err, "slack has no client id")

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "credentials are fetched once")
}

func TestAuthURL_UnknownProvider(t *testing.T) {
	var calls int32
	svc := newService(t, &calls, http.StatusOK)
	_, err := svc.AuthURL(context.Background(), "myspace", Redirect{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestCredentials_FailureIsNotCached(t *testing.T) {
	var calls int32
	svc := newService(t, &calls, http.StatusInternalServerError)

	_, err := svc.Credentials(context.Background(), false)
	require.Error(t, err)
	_, err = svc.Credentials(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLogoAndKeys(t *testing.T) {
	logo, ok := Logo(LinkedIn)
	assert.True(t, ok)
	assert.Equal(t, "/logos/linkedIn_logo.png", logo)

	_, ok = Logo(Facebook)
	assert.False(t, ok)
	_, ok = Logo("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{Facebook, Google, LinkedIn, Slack}, Keys())
}
