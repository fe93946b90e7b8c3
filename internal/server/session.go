// Package server provides sessions, the WebSocket upgrader and the command
// handler of the web monitor.
package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "ledsync_session"
	sessionIdle       = 12 * time.Hour
	csrfTokenDuration = 10 * time.Minute

	maxLoginFailures = 5
	loginLockout     = time.Minute
)

// tokenStore is a set of random tokens that expire after a fixed time.
// Expired tokens are swept whenever a new one is issued.
type tokenStore struct {
	ttl    time.Duration
	expiry map[string]time.Time
}

func newTokenStore(ttl time.Duration) *tokenStore {
	return &tokenStore{ttl: ttl, expiry: make(map[string]time.Time)}
}

func (s *tokenStore) issue(now time.Time) string {
	for token, exp := range s.expiry {
		if now.After(exp) {
			delete(s.expiry, token)
		}
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	token := hex.EncodeToString(b)
	s.expiry[token] = now.Add(s.ttl)
	return token
}

// touch reports whether token is live and, if so, extends it.
func (s *tokenStore) touch(token string, now time.Time) bool {
	exp, ok := s.expiry[token]
	if !ok || token == "" {
		return false
	}
	if now.After(exp) {
		delete(s.expiry, token)
		return false
	}
	s.expiry[token] = now.Add(s.ttl)
	return true
}

// consume reports whether token is live and removes it.
func (s *tokenStore) consume(token string, now time.Time) bool {
	exp, ok := s.expiry[token]
	if !ok || token == "" {
		return false
	}
	delete(s.expiry, token)
	return !now.After(exp)
}

type loginFailures struct {
	count int
	last  time.Time
}

// SessionManager handles logins, session cookies and login-form CSRF
// tokens for the web monitor.
type SessionManager struct {
	mu       sync.Mutex
	sessions *tokenStore
	csrf     *tokenStore
	failures map[string]*loginFailures
	now      func() time.Time
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: newTokenStore(sessionIdle),
		csrf:     newTokenStore(csrfTokenDuration),
		failures: make(map[string]*loginFailures),
		now:      time.Now,
	}
}

// Validate reports whether a session token is valid. Every successful
// check extends the session.
func (sm *SessionManager) Validate(token string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sessions.touch(token, sm.now())
}

// RequireSession wraps next so that it only runs with a valid session
// cookie. Page requests are redirected to /login, API and WebSocket
// requests get 401.
func (sm *SessionManager) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && sm.Validate(cookie.Value) {
			next(w, r)
			return
		}

		if r.URL.Path == "/ws" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

// Login checks the submitted credentials against the configured ones in
// constant time and sets a session cookie on success. A host that fails
// maxLoginFailures times in a row is refused until loginLockout has passed
// since its last attempt.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, username, password, configUser, configPass string) bool {
	host := remoteHost(r)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := sm.now()
	f := sm.failures[host]
	if f != nil && f.count >= maxLoginFailures && now.Sub(f.last) < loginLockout {
		f.last = now
		return false
	}

	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(configUser)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(configPass)) == 1
	if !userMatch || !passMatch {
		if f == nil || now.Sub(f.last) >= loginLockout {
			f = &loginFailures{}
			sm.failures[host] = f
		}
		f.count++
		f.last = now
		return false
	}
	delete(sm.failures, host)

	token := sm.sessions.issue(now)
	if token == "" {
		return false
	}
	setSessionCookie(w, r, token, int(sessionIdle.Seconds()))
	return true
}

// Logout clears the session cookie and deletes the session.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		sm.mu.Lock()
		sm.sessions.consume(cookie.Value, sm.now())
		sm.mu.Unlock()
	}
	setSessionCookie(w, r, "", -1)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// CreateCSRFToken issues a single-use token for the login form.
func (sm *SessionManager) CreateCSRFToken() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.csrf.issue(sm.now())
}

// ValidateCSRFToken checks a login-form token and invalidates it.
func (sm *SessionManager) ValidateCSRFToken(token string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.csrf.consume(token, sm.now())
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
