// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/scout-tui/internal/model"
)

type redirectRecorder struct {
	reasons []error
}

func (r *redirectRecorder) RedirectToLogin(reason error) {
	r.reasons = append(r.reasons, reason)
}

func newServer(t *testing.T, status int, hits *int32, seen *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if seen != nil {
			*seen = r.Header.Clone()
		}
		w.WriteHeader(status)
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGatekeeper_NoCredentialMakesNoNetworkCall(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusOK, &hits, nil)
	rec := &redirectRecorder{}
	g := NewGatekeeper(NewMemoryStore(model.Credential{}), rec)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/sessions", nil)
	require.NoError(t, err)

	resp, err := g.Do(req)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.ErrorIs(t, err, ErrAuth)
	assert.True(t, IsAuthError(err))

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	require.Len(t, rec.reasons, 1)
	assert.ErrorIs(t, rec.reasons[0], ErrNoCredential)
}

func TestGatekeeper_InjectsBearerAndKeepsHeaders(t *testing.T) {
	var hits int32
	var seen http.Header
	srv := newServer(t, http.StatusOK, &hits, &seen)
	g := NewGatekeeper(NewMemoryStore(model.Credential{Token: "tok-123"}), nil)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "r1")

	resp, err := g.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok-123", seen.Get("Authorization"))
	assert.Equal(t, "application/json", seen.Get("Content-Type"))
	assert.Equal(t, "r1", seen.Get("X-Request-Id"))
	assert.Empty(t, req.Header.Get("Authorization"), "caller's request must not be modified")
}

func TestGatekeeper_UnauthorizedClearsCredential(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusUnauthorized, &hits, nil)
	store := NewMemoryStore(model.Credential{Token: "expired"})
	rec := &redirectRecorder{}
	g := NewGatekeeper(store, rec)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/sessions", nil)
	_, err := g.Do(req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, ok, _ := store.Get()
	assert.False(t, ok, "credential should be cleared after 401")

	// The next request is refused locally.
	req2, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/sessions", nil)
	_, err = g.Do(req2)
	assert.ErrorIs(t, err, ErrNoCredential)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retry, no second network call")
	require.Len(t, rec.reasons, 2)
	assert.ErrorIs(t, rec.reasons[0], ErrUnauthorized)
	assert.ErrorIs(t, rec.reasons[1], ErrNoCredential)
}

func TestGatekeeper_ForbiddenPassesThrough(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusForbidden, &hits, nil)
	store := NewMemoryStore(model.Credential{Token: "tok"})
	g := NewGatekeeper(store, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := g.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, ok, _ := store.Get()
	assert.True(t, ok)
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Get() (model.Credential, bool, error) {
	return model.Credential{}, false, errors.New("disk gone")
}

func TestGatekeeper_StoreErrorIsNotAuthError(t *testing.T) {
	rec := &redirectRecorder{}
	g := NewGatekeeper(&failingStore{}, rec)

	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	_, err := g.Do(req)
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
	assert.Empty(t, rec.reasons)
}

func TestGatekeeper_LoginLogout(t *testing.T) {
	store := NewMemoryStore(model.Credential{})
	g := NewGatekeeper(store, nil)

	assert.Error(t, g.Login("   ", false))

	require.NoError(t, g.Login(" tok ", true))
	cred, ok := g.Credential()
	require.True(t, ok)
	assert.Equal(t, model.Credential{Token: "tok", IsAdmin: true}, cred)

	require.NoError(t, g.Logout())
	_, ok = g.Credential()
	assert.False(t, ok)
}

func TestGatekeeper_SetRedirector(t *testing.T) {
	var got error
	g := NewGatekeeper(NewMemoryStore(model.Credential{}), nil)
	g.SetRedirector(RedirectFunc(func(reason error) { got = reason }))

	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	_, _ = g.RoundTrip(req)
	assert.ErrorIs(t, got, ErrNoCredential)
}

func TestAuthError_Is(t *testing.T) {
	assert.True(t, errors.Is(ErrUnauthorized, ErrAuth))
	assert.False(t, errors.Is(ErrUnauthorized, ErrNoCredential))
	assert.Equal(t, "auth: unauthorized", ErrUnauthorized.Error())
}

func TestGatekeeper_NilLoggerOption(t *testing.T) {
	var hits int32
	srv := newServer(t, http.StatusUnauthorized, &hits, nil)
	g := NewGatekeeper(NewMemoryStore(model.Credential{Token: "tok"}), nil, WithLogger(nil))

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, err = g.Do(req)
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
