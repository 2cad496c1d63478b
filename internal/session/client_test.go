package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellar-market/wine-marketplace/internal/domain"
)

// fakeAPI mimics the marketplace auth endpoints.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch req.Email {
		case "admin@winemarket.com":
			if req.Password != "right-pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"statusCode":401,"message":"Invalid email or password","error":"UNAUTHORIZED"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "jwt-admin", "user": adminRecord().User})
		case "customer@example.com":
			_ = json.NewEncoder(w).Encode(map[string]any{"accessToken": "jwt-user", "user": domain.AdminUser{ID: "user-1", Email: req.Email, Role: domain.RoleUser}})
		case "broken@winemarket.com":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		default:
			_, _ = w.Write([]byte(`{"user":{}}`))
		}
	})
	mux.HandleFunc("/api/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer jwt-admin":
			_ = json.NewEncoder(w).Encode(adminRecord().User)
		case "Bearer jwt-garbled":
			_, _ = w.Write([]byte("{"))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-admin" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token revoked"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Login(t *testing.T) {
	srv := fakeAPI(t)
	c := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	res, err := c.Login(ctx, "admin@winemarket.com", "right-pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt-admin", res.Token)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)

	res, err = c.Login(ctx, "customer@example.com", "whatever")
	require.NoError(t, err, "role checks belong to the manager")
	assert.Equal(t, domain.RoleUser, res.User.Role)

	t.Run("server message surfaced", func(t *testing.T) {
		_, err := c.Login(ctx, "admin@winemarket.com", "wrong")
		var loginErr *LoginError
		require.ErrorAs(t, err, &loginErr)
		assert.Equal(t, http.StatusUnauthorized, loginErr.Status)
		assert.Equal(t, "Invalid email or password", loginErr.Message)
	})

	t.Run("generic message without a body", func(t *testing.T) {
		_, err := c.Login(ctx, "broken@winemarket.com", "x")
		var loginErr *LoginError
		require.ErrorAs(t, err, &loginErr)
		assert.Equal(t, "Login failed", loginErr.Message)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := c.Login(ctx, "odd@winemarket.com", "x")
		var loginErr *LoginError
		require.ErrorAs(t, err, &loginErr)
		assert.Equal(t, "Login failed", loginErr.Message)
	})
}

func TestClient_LoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Login(context.Background(), "a@b.c", "pw")
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, "Login failed", loginErr.Message)
	assert.Zero(t, loginErr.Status)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestClient_Profile(t *testing.T) {
	c := NewClient(fakeAPI(t).URL, time.Second)
	ctx := context.Background()

	user, err := c.Profile(ctx, "jwt-admin")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", user.ID)

	_, err = c.Profile(ctx, "expired")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = c.Profile(ctx, "jwt-garbled")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}

func TestClient_Revoke(t *testing.T) {
	c := NewClient(fakeAPI(t).URL, time.Second)
	require.NoError(t, c.Revoke(context.Background(), "jwt-admin"))

	err := c.Revoke(context.Background(), "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token revoked")
}
