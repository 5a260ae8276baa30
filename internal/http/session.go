package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "cashflow_session"

type session struct {
	username  string
	expiresAt time.Time
	flash     string
}

// sessionStore keeps login sessions in memory. Tokens are random UUIDs;
// a background sweep drops expired entries.
type sessionStore struct {
	mu           sync.Mutex
	ttl          time.Duration
	sessions     map[string]*session
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func newSessionStore(ttl time.Duration) *sessionStore {
	st := &sessionStore{
		ttl:         ttl,
		sessions:    make(map[string]*session),
		stopCleanup: make(chan struct{}),
	}
	go st.startCleanup()
	return st
}

func (st *sessionStore) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanupExpired()
		case <-st.stopCleanup:
			return
		}
	}
}

func (st *sessionStore) cleanupExpired() {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	for token, s := range st.sessions {
		if s.expiresAt.Before(now) {
			delete(st.sessions, token)
		}
	}
}

func (st *sessionStore) stop() {
	st.shutdownOnce.Do(func() {
		close(st.stopCleanup)
	})
}

// create issues a fresh session token for the user.
func (st *sessionStore) create(username string) string {
	token := uuid.NewString()
	st.mu.Lock()
	st.sessions[token] = &session{
		username:  username,
		expiresAt: time.Now().Add(st.ttl),
	}
	st.mu.Unlock()
	return token
}

// resolve returns the username behind a token, refreshing the expiry on
// each hit so active users stay logged in.
func (st *sessionStore) resolve(token string) (string, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[token]
	if !ok {
		return "", false
	}
	if s.expiresAt.Before(time.Now()) {
		delete(st.sessions, token)
		return "", false
	}
	s.expiresAt = time.Now().Add(st.ttl)
	return s.username, true
}

func (st *sessionStore) destroy(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}

// setFlash stores a one-shot message shown on the next page render.
func (st *sessionStore) setFlash(token, msg string) {
	st.mu.Lock()
	if s, ok := st.sessions[token]; ok {
		s.flash = msg
	}
	st.mu.Unlock()
}

// takeFlash returns and clears the pending flash message.
func (st *sessionStore) takeFlash(token string) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[token]
	if !ok || s.flash == "" {
		return ""
	}
	msg := s.flash
	s.flash = ""
	return msg
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
