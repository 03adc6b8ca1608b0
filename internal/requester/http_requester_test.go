package requester

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequester(t *testing.T, handler http.HandlerFunc) (*HTTPRequester, *config.APIConfig) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	apiCfg := &config.APIConfig{
		BaseURL:    srv.URL + "/api/v1/",
		Timeout:    5 * time.Second,
		Headers:    map[string]string{"X-Client": "navguard"},
		CSRFCookie: "csrftoken",
		CSRFHeader: "X-CSRFTOKEN",
	}
	return NewHTTPRequester(HTTPRequesterParams{APIConfig: apiCfg, AuthManager: NoAuthManager{}}), apiCfg
}

func TestHTTPRequester_Get(t *testing.T) {
	r, _ := newTestRequester(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/api/v1/employer/job/", req.URL.Path)
		assert.Equal(t, "5", req.URL.Query().Get("employer_id"))
		assert.Equal(t, "navguard", req.Header.Get("X-Client"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"job_title":"Engineer"}]`))
	})

	resp, err := r.Get(context.Background(), "employer/job/", url.Values{"employer_id": {"5"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var jobs []map[string]any
	require.NoError(t, resp.Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Engineer", jobs[0]["job_title"])
}

func TestHTTPRequester_PostFormSendsJSONDataField(t *testing.T) {
	r, _ := newTestRequester(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/v1/social/google-oauth2/", req.URL.Path)
		require.NoError(t, req.ParseMultipartForm(1<<20))

		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(req.FormValue("data")), &data))
		assert.Equal(t, "abc", data["code"])
		assert.Equal(t, true, data["isLogin"])
		w.WriteHeader(http.StatusCreated)
	})

	resp, err := r.PostForm(context.Background(), "/social/google-oauth2/", map[string]any{
		"code":    "abc",
		"isLogin": true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHTTPRequester_StatusErrors(t *testing.T) {
	r, _ := newTestRequester(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"CSRF Failed"}`))
	})

	_, err := r.PutForm(context.Background(), "karma/user-donation/", map[string]any{"donation_id": 7})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "CSRF Failed", apiErr.Detail)
	assert.Equal(t, "PUT karma/user-donation/: 403 Forbidden: CSRF Failed", apiErr.Error())
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.False(t, IsTransport(err))
}

func TestHTTPRequester_TransportError(t *testing.T) {
	apiCfg := &config.APIConfig{BaseURL: "http://127.0.0.1:1/", Timeout: time.Second}
	r := NewHTTPRequester(HTTPRequesterParams{APIConfig: apiCfg})

	_, err := r.Get(context.Background(), "auth/check-auth/", nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestHTTPRequester_WithCookiesAppliesSessionAndCSRF(t *testing.T) {
	r, _ := newTestRequester(t, func(w http.ResponseWriter, req *http.Request) {
		sid, err := req.Cookie("sessionid")
		require.NoError(t, err)
		assert.Equal(t, "s-1", sid.Value)
		assert.Equal(t, "tok", req.Header.Get("X-CSRFTOKEN"))
		_, _ = w.Write([]byte(`{}`))
	})

	scoped := r.WithCookies([]*http.Cookie{
		{Name: "sessionid", Value: "s-1"},
		{Name: "csrftoken", Value: "tok"},
	})
	_, err := scoped.Get(context.Background(), "auth/check-auth/", nil)
	require.NoError(t, err)
}

func TestHTTPRequester_VersionObserver(t *testing.T) {
	r, _ := newTestRequester(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set(VersionHeader, "2026-10-16T10:00:00Z")
		_, _ = w.Write([]byte(`{}`))
	})

	var seen string
	r.OnVersion(func(v string) { seen = v })
	_, err := r.Get(context.Background(), "auth/check-auth/", nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16T10:00:00Z", seen)
}

func TestHTTPRequester_DeduplicatesInFlightRequests(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	r, _ := newTestRequester(t, func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write([]byte(`[]`))
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Get(context.Background(), "billing/product/", nil)
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPRequestBuilder_BuildURL(t *testing.T) {
	b := NewHTTPRequestBuilder(&config.APIConfig{BaseURL: "https://api.test/api/v1/"}, NoAuthManager{})

	tests := []struct {
		path  string
		query url.Values
		want  string
	}{
		{path: "auth/check-auth/", want: "https://api.test/api/v1/auth/check-auth/"},
		{path: "/page-view/", want: "https://api.test/api/v1/page-view/"},
		{path: "jobs/", query: url.Values{"page": {"2"}}, want: "https://api.test/api/v1/jobs/?page=2"},
		{path: "https://other.test/x", want: "https://other.test/x"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := b.buildURL(tt.path, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
