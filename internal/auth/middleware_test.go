package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellar-market/wine-marketplace/internal/domain"
	apperrors "github.com/cellar-market/wine-marketplace/pkg/util"
)

type stubUsers struct {
	byID map[string]*domain.User
}

func (s *stubUsers) Create(context.Context, *domain.User) error { return nil }
func (s *stubUsers) Update(context.Context, *domain.User) error { return nil }
func (s *stubUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}
func (s *stubUsers) TouchLastLogin(context.Context, string) error { return nil }
func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testApp(mw *AuthMiddleware, gates ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	handlers := append([]fiber.Handler{mw.Handle}, gates...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.User.Email)
	})
	app.Get("/me", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 10)
	users := &stubUsers{byID: map[string]*domain.User{
		"admin":    {ID: "admin", Email: "admin@winemarket.com", Role: domain.RoleAdmin, IsActive: true},
		"shopper":  {ID: "shopper", Email: "shopper@example.com", Role: domain.RoleUser, IsActive: true},
		"disabled": {ID: "disabled", Email: "old@winemarket.com", Role: domain.RoleAdmin, IsActive: false},
	}}
	revoked := NewRedisRevocationList(newRedis(t))
	app := testApp(NewAuthMiddleware(tm, users, revoked), RequireAdmin())

	adminToken, adminMeta, err := tm.GenerateToken("admin", domain.RoleAdmin)
	require.NoError(t, err)
	shopperToken, _, err := tm.GenerateToken("shopper", domain.RoleUser)
	require.NoError(t, err)
	disabledToken, _, err := tm.GenerateToken("disabled", domain.RoleAdmin)
	require.NoError(t, err)
	ghostToken, _, err := tm.GenerateToken("ghost", domain.RoleAdmin)
	require.NoError(t, err)

	call := func(header string) int {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call("Bearer "+adminToken))
	assert.Equal(t, fiber.StatusOK, call("bearer "+adminToken))
	assert.Equal(t, fiber.StatusUnauthorized, call(""))
	assert.Equal(t, fiber.StatusUnauthorized, call("Token "+adminToken))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer nope"))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer "+disabledToken))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer "+ghostToken))
	assert.Equal(t, fiber.StatusForbidden, call("Bearer "+shopperToken))

	require.NoError(t, revoked.Revoke(context.Background(), adminMeta.ID, adminMeta.ExpiresAt))
	assert.Equal(t, fiber.StatusUnauthorized, call("Bearer "+adminToken))
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	for _, bad := range []string{"", "Bearer", "Bearer   ", "Basic abc"} {
		_, err := BearerToken(bad)
		assert.Error(t, err, bad)
	}
}

func TestRevocation_SkipsExpiredTokens(t *testing.T) {
	list := NewRedisRevocationList(newRedis(t))
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	revoked, err := list.IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
