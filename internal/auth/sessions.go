package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/solucal/solucal/internal/utils"
)

// SessionTTL is how long a login stays valid without re-authenticating.
const SessionTTL = 24 * time.Hour

// Sessions is an in-memory store of active session tokens. Tokens expire
// after SessionTTL and expired entries are pruned lazily on access.
type Sessions struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token -> expiry
	clock  utils.Clock
}

func NewSessions(clock utils.Clock) *Sessions {
	return &Sessions{
		tokens: make(map[string]time.Time),
		clock:  clock,
	}
}

// Start creates a new session and returns its token.
func (s *Sessions) Start() string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = s.clock.Now().Add(SessionTTL)
	return token
}

// Valid reports whether token identifies a live session.
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.clock.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// End terminates the session identified by token, if any.
func (s *Sessions) End(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
