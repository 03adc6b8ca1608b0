package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jobvyne/navguard/internal/logger"
	"github.com/jobvyne/navguard/internal/requester"
	"go.uber.org/zap"
)

const (
	CheckAuthPath = "auth/check-auth/"
	LogoutPath    = "auth/logout/"
)

// Store keeps the current user for one visitor session. It replaces the
// client's global auth store; create one per visitor.
type Store struct {
	api requester.API

	mu   sync.RWMutex
	user *User
}

// NewStore creates an empty session store backed by api.
func NewStore(api requester.API) *Store {
	return &Store{api: api}
}

// User returns the cached user, or nil when none has been fetched.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated reports whether the cached user is signed in.
func (s *Store) IsAuthenticated() bool {
	return IsAuthenticated(s.User())
}

// Replace stores u as the current user.
func (s *Store) Replace(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// CheckAuth always fetches auth/check-auth/ and replaces the cached user
// with the result. The guard calls this on every navigation.
func (s *Store) CheckAuth(ctx context.Context) (*CheckAuthResponse, error) {
	resp, err := s.api.Get(ctx, CheckAuthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("check auth: %w", err)
	}
	var body CheckAuthResponse
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("check auth: %w", err)
	}
	s.Replace(body.User)
	return &body, nil
}

// SetUser fetches the user unless one is already cached and force is false.
func (s *Store) SetUser(ctx context.Context, force bool) error {
	if !force && IsAuthenticated(s.User()) {
		return nil
	}
	_, err := s.CheckAuth(ctx)
	return err
}

// Logout signs the visitor out and clears the cached user. The user is
// kept when the API call fails.
func (s *Store) Logout(ctx context.Context) error {
	if _, err := s.api.PostForm(ctx, LogoutPath, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	u := s.User()
	s.Replace(nil)
	if u != nil {
		logger.Info("user logged out", zap.Int64("user_id", u.ID))
	}
	return nil
}
