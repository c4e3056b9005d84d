// Package session holds the authenticated user's state for the lifetime of
// the client process: proxy access token, user id and the master key that
// encrypts the remote config.
package session

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/common"
)

type EventKind int

const (
	Started EventKind = iota + 1
	Ended
)

// Event is delivered to OnSessionChanged listeners.
type Event struct {
	Kind   EventKind
	UserID string
	Login  string
}

type Session struct {
	mu        sync.RWMutex
	login     string
	userID    string
	token     string
	expiresAt time.Time
	masterKey []byte
	listeners []func(Event)
	now       func() time.Time
}

func New() *Session {
	return &Session{now: time.Now}
}

// Start replaces any current session. The master key is copied.
func (s *Session) Start(login, userID, accessToken string, expiresAt time.Time, masterKey []byte) {
	s.mu.Lock()
	common.WipeByteArray(s.masterKey)
	s.login = login
	s.userID = userID
	s.token = accessToken
	s.expiresAt = expiresAt
	s.masterKey = append([]byte(nil), masterKey...)
	listeners := append(([]func(Event))(nil), s.listeners...)
	s.mu.Unlock()

	notify(listeners, Event{Kind: Started, UserID: userID, Login: login})
}

// End wipes the session and notifies listeners. Ending an empty session is
// a no-op.
func (s *Session) End() {
	s.mu.Lock()
	if s.userID == "" && s.token == "" {
		s.mu.Unlock()
		return
	}
	ev := Event{Kind: Ended, UserID: s.userID, Login: s.login}
	common.WipeByteArray(s.masterKey)
	s.login, s.userID, s.token = "", "", ""
	s.expiresAt = time.Time{}
	s.masterKey = nil
	listeners := append(([]func(Event))(nil), s.listeners...)
	s.mu.Unlock()

	notify(listeners, ev)
}

// AccessToken returns the proxy token unless absent or expired.
func (s *Session) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

func (s *Session) Login() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.login
}

// MasterKey returns a copy of the key, or ErrNoMasterKey.
func (s *Session) MasterKey() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.masterKey) == 0 {
		return nil, common.ErrNoMasterKey
	}
	return append([]byte(nil), s.masterKey...), nil
}

// OnSessionChanged registers fn for every Start and End.
func (s *Session) OnSessionChanged(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func notify(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
