// Package session holds the current authenticated identity for the
// process. It is the single source of truth for the acting user: written
// only by login/logout, read by everything else.
package session

import (
	"sync"

	"github.com/Uzal123/unibolx-ecommerce-frontend/internal/domain"
)

// Store is the process-wide identity holder. The zero value is a logged-out
// store. It is owned by the application root and passed by reference; state
// lives only for the process lifetime.
type Store struct {
	mu   sync.RWMutex
	user *domain.User
}

func NewStore() *Store {
	return &Store{}
}

// SetUser installs the authenticated user. Passing nil is equivalent to
// Logout. Never fails.
func (s *Store) SetUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	copied := *u
	s.user = &copied
}

// Logout discards the current identity. Never fails.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// Current returns the logged-in user, if any.
func (s *Store) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsAdmin reports whether the logged-in user has the admin flag.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}
