package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/solucal/solucal/internal/config"
	"github.com/solucal/solucal/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuthConfig(t *testing.T, password string) config.Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return config.Auth{Username: "admin", PasswordHash: string(hash)}
}

func TestHandler_LoginIssuesSession(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sessions := NewSessions(clock)
	handler := NewHandler(testAuthConfig(t, "s3cret"), sessions, "http://localhost:3000")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, sessions.Valid(cookies[0].Value))
}

func TestHandler_LoginRejectsBadPassword(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Now()}
	handler := NewHandler(testAuthConfig(t, "s3cret"), NewSessions(clock), "http://localhost:3000")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandler_GateBlocksUnauthenticatedMutations(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Now()}
	sessions := NewSessions(clock)
	handler := NewHandler(testAuthConfig(t, "s3cret"), sessions, "http://localhost:3000")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	gate := handler.Gate(next)

	// Reads pass through without a session.
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/event/occurrences", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	// Mutations without a session are rejected.
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/event", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Mutations with a live session pass.
	token := sessions.Start()
	req := httptest.NewRequest(http.MethodDelete, "/api/event/some-id", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSessions_Expiry(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sessions := NewSessions(clock)

	token := sessions.Start()
	assert.True(t, sessions.Valid(token))

	clock.SetNow(clock.FixedNow.Add(SessionTTL + time.Minute))
	assert.False(t, sessions.Valid(token))
}

func TestHandler_GateDisabledWithoutCredentials(t *testing.T) {
	clock := &utils.MockClock{FixedNow: time.Now()}
	handler := NewHandler(config.Auth{}, NewSessions(clock), "http://localhost:3000")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	handler.Gate(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/event", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
