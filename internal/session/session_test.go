package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobvyne/navguard/internal/config"
	"github.com/jobvyne/navguard/internal/requester"
	"github.com/jobvyne/navguard/internal/usertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, handler http.HandlerFunc) requester.API {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return requester.NewHTTPRequester(requester.HTTPRequesterParams{
		APIConfig: &config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
	})
}

func TestUser_Decode(t *testing.T) {
	raw := `{
		"user": {
			"id": 12,
			"email": "pat@acme.test",
			"user_type_bits": 20,
			"is_email_verified": true,
			"is_employer_verified": true,
			"permissions_by_employer": {"3": ["Manage users", "Manage employer jobs"], "9": ["Manage users"]},
			"permission_groups_by_employer": {
				"3": [{"id": 1, "name": "Admin", "user_type_bit": 16, "is_approved": true}],
				"9": [{"id": 2, "name": "Employee", "user_type_bit": 4, "is_approved": false}]
			},
			"employer_id": 3,
			"employer_org_type": 1
		},
		"deploy_ts": "2026-10-16T10:00:00Z"
	}`

	var body CheckAuthResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	u := body.User
	require.NotNil(t, u)

	assert.True(t, IsAuthenticated(u))
	assert.Equal(t, usertype.Employee|usertype.Employer, u.UserTypeBits)
	assert.Equal(t, []string{"Manage employer jobs", "Manage users"}, u.AllPermissions())
	require.Len(t, u.ApprovedGroups(), 1)
	assert.Equal(t, "Admin", u.ApprovedGroups()[0].Name)
	assert.True(t, u.HasPermission("Manage users"))
	assert.False(t, u.HasPermission("Manage billing settings"))
	assert.Equal(t, int64(3), *u.EmployerID)
	assert.True(t, u.EmployerOrgType.IsEmployer())
}

func TestIsAuthenticated(t *testing.T) {
	assert.False(t, IsAuthenticated(nil))
	assert.False(t, IsAuthenticated(&User{}))
	assert.True(t, IsAuthenticated(&User{ID: 1}))
}

func TestStore_SetUserMemoizes(t *testing.T) {
	var calls int32
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"user":{"id":4,"email":"a@b.test","user_type_bits":2}}`))
	})
	store := NewStore(api)

	require.NoError(t, store.SetUser(context.Background(), false))
	require.NoError(t, store.SetUser(context.Background(), false))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	require.NoError(t, store.SetUser(context.Background(), true))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(4), store.User().ID)
}

func TestStore_AnonymousUserIsRefetched(t *testing.T) {
	var calls int32
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"user":{}}`))
	})
	store := NewStore(api)

	require.NoError(t, store.SetUser(context.Background(), false))
	require.NoError(t, store.SetUser(context.Background(), false))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.False(t, store.IsAuthenticated())
}

func TestStore_Logout(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/check-auth/":
			_, _ = w.Write([]byte(`{"user":{"id":4,"email":"a@b.test"}}`))
		case "/auth/logout/":
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	store := NewStore(api)
	require.NoError(t, store.SetUser(context.Background(), false))
	require.True(t, store.IsAuthenticated())

	require.NoError(t, store.Logout(context.Background()))
	assert.Nil(t, store.User())
}

func TestStore_CheckAuthFailure(t *testing.T) {
	api := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	store := NewStore(api)
	store.Replace(&User{ID: 9})

	_, err := store.CheckAuth(context.Background())
	require.Error(t, err)
	assert.True(t, requester.IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, int64(9), store.User().ID)
}

func TestDeployWatcher(t *testing.T) {
	w := NewDeployWatcher(5 * time.Minute)

	assert.False(t, w.Observe(""))
	assert.False(t, w.Observe("default"))
	assert.False(t, w.Observe("2026-10-16T10:00:00Z"))
	assert.False(t, w.Observe("2026-10-16T10:04:00Z"))
	assert.True(t, w.Observe("2026-10-16T10:06:00Z"))
	assert.Equal(t, time.Date(2026, 10, 16, 10, 6, 0, 0, time.UTC), w.Known())
	assert.False(t, w.Observe("2026-10-16T10:07:00Z"))

	assert.True(t, w.TakeReload())
	assert.False(t, w.TakeReload())

	seeded := NewDeployWatcher(0)
	seeded.Seed("not a date")
	assert.True(t, seeded.Known().IsZero())
	seeded.Seed("2026-10-16T10:00:00Z")
	assert.True(t, seeded.Observe("2026-10-16T11:00:00Z"))

	unix := NewDeployWatcher(0)
	assert.False(t, unix.Observe("1760608800"))
	assert.True(t, unix.Observe("1760609200"))
}
