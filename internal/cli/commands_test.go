package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellar-market/wine-marketplace/internal/domain"
	"github.com/cellar-market/wine-marketplace/internal/session"
)

type mockAPI struct {
	mu          sync.Mutex
	role        domain.Role
	profileHits int
	revoked     []string
}

func (m *mockAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "Cabernet#1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
			return
		}
		m.mu.Lock()
		role := m.role
		m.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "jwt-1",
			"user":        domain.AdminUser{ID: "admin-1", Email: req.Email, FirstName: "Ana", LastName: "Souza", Role: role},
		})
	})
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.profileHits++
		if r.Header.Get("Authorization") != "Bearer jwt-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(domain.AdminUser{ID: "admin-1", Email: "admin@winemarket.com", FirstName: "Ana", LastName: "Souza", Role: m.role})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.revoked = append(m.revoked, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (m *mockAPI) setRole(role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role = role
}

func (m *mockAPI) hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileHits
}

func (m *mockAPI) revokedTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.revoked...)
}

type harness struct {
	t           *testing.T
	api         *mockAPI
	url         string
	sessionFile string
	vars        map[string]string
}

func newHarness(t *testing.T) *harness {
	api := &mockAPI{role: domain.RoleAdmin}
	return &harness{
		t:           t,
		api:         api,
		url:         api.server(t).URL,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
		vars:        map[string]string{},
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	env := Env{
		Out:    &out,
		Err:    &out,
		Getenv: func(k string) string { return h.vars[k] },
		NewAuthenticator: func(apiURL string, timeout time.Duration) session.Authenticator {
			return session.NewClient(apiURL, timeout)
		},
	}
	cmd := NewRootCmd(env)
	cmd.SetArgs(append([]string{"--api-url", h.url, "--session-file", h.sessionFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) stored() *session.Record {
	h.t.Helper()
	rec, err := session.NewFileStore(h.sessionFile).Load(context.Background())
	require.NoError(h.t, err)
	return rec
}

func TestLogin_PersistsSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("login", "--email", "admin@winemarket.com", "--password", "Cabernet#1")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "Ana Souza (admin@winemarket.com)")
	assert.Contains(t, out, "Role: ADMIN")

	rec := h.stored()
	require.NotNil(t, rec)
	assert.Equal(t, "jwt-1", rec.Token)
	assert.Equal(t, "admin-1", rec.User.ID)
}

func TestLogin_UsesEnvironment(t *testing.T) {
	h := newHarness(t)
	h.vars["WINE_ADMIN_EMAIL"] = "admin@winemarket.com"
	h.vars["WINE_ADMIN_PASSWORD"] = "Cabernet#1"

	_, err := h.run("login")
	require.NoError(t, err)
	assert.NotNil(t, h.stored())
}

func TestLogin_Failures(t *testing.T) {
	t.Run("missing email", func(t *testing.T) {
		_, err := newHarness(t).run("login", "--password", "x")
		assert.ErrorContains(t, err, "email is required")
	})

	t.Run("no password and no prompt", func(t *testing.T) {
		_, err := newHarness(t).run("login", "--email", "admin@winemarket.com")
		assert.ErrorContains(t, err, "password is required")
	})

	t.Run("bad credentials", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run("login", "--email", "admin@winemarket.com", "--password", "wrong")
		assert.ErrorContains(t, err, "Invalid email or password")
		assert.Nil(t, h.stored())
	})

	t.Run("non-admin account", func(t *testing.T) {
		h := newHarness(t)
		h.api.setRole(domain.RoleUser)
		_, err := h.run("login", "--email", "customer@example.com", "--password", "Cabernet#1")
		assert.ErrorIs(t, err, session.ErrAccessDenied)
		_, statErr := os.Stat(h.sessionFile)
		assert.True(t, os.IsNotExist(statErr), "nothing written")
	})
}

func TestWhoami(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("whoami")
	assert.ErrorContains(t, err, "not logged in")
	assert.Zero(t, h.api.hits(), "no stored session means no request")

	_, err = h.run("login", "--email", "admin@winemarket.com", "--password", "Cabernet#1")
	require.NoError(t, err)

	out, err := h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Souza")
	assert.Equal(t, 1, h.api.hits())

	h.api.setRole(domain.RoleUser)
	_, err = h.run("whoami")
	assert.ErrorContains(t, err, "not logged in")
	assert.Nil(t, h.stored(), "demoted account is forgotten")
}

func TestStatus_NeverCallsAPI(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	_, err = h.run("login", "--email", "admin@winemarket.com", "--password", "Cabernet#1")
	require.NoError(t, err)

	out, err = h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "not verified")
	assert.Contains(t, out, "admin@winemarket.com")
	assert.Zero(t, h.api.hits())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "--email", "admin@winemarket.com", "--password", "Cabernet#1")
	require.NoError(t, err)

	out, err := h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	assert.Nil(t, h.stored())
	assert.Equal(t, []string{"Bearer jwt-1"}, h.api.revokedTokens())

	out, err = h.run("logout")
	require.NoError(t, err, "logging out twice is harmless")
	assert.Contains(t, out, "Logged out")
}

func TestUnknownStore(t *testing.T) {
	_, err := newHarness(t).run("status", "--store", "cookie")
	assert.ErrorContains(t, err, "unknown session store")
}
