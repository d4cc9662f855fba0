package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/repository"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	cred, err := tm.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), cred.ExpiresAt, 2*time.Second)

	claims, err := tm.ParseToken(cred.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	cred, err := NewTokenManager("secret", 5).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other", 5).ParseToken(cred.Token)
	assert.Error(t, err)

	late := NewTokenManager("secret", 5)
	late.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = late.ParseToken(cred.Token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.Error(t, ComparePassword(hash, "hunter23"))
}

type fixture struct {
	app    *fiber.App
	tokens *TokenManager
	user   *domain.User
	admin  *domain.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	users := store.Users()
	user := &domain.User{Name: "U", Email: "u@example.com", Role: domain.RoleUser}
	admin := &domain.User{Name: "A", Email: "a@example.com", Role: domain.RoleAdmin}
	require.NoError(t, users.Create(context.Background(), user))
	require.NoError(t, users.Create(context.Background(), admin))

	tokens := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tokens, users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Message)
	}})
	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Caller().UserID)
	})
	app.Get("/admin", mw.Handle, RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return fixture{app: app, tokens: tokens, user: user, admin: admin}
}

func (f fixture) token(t *testing.T, id string) string {
	cred, err := f.tokens.Issue(id)
	require.NoError(t, err)
	return cred.Token
}

func TestMiddlewareBearerWinsOverCookie(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, f.admin.ID))
	req.AddCookie(&http.Cookie{Name: CookieName, Value: f.token(t, f.user.ID)})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, f.admin.ID, string(body[:n]))
}

func TestMiddlewareFallsBackToCookie(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: f.token(t, f.user.ID)})
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejections(t *testing.T) {
	f := newFixture(t)

	cases := map[string]func(*http.Request){
		"missing":      func(*http.Request) {},
		"malformed":    func(r *http.Request) { r.Header.Set("Authorization", "Token abc") },
		"garbage":      func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") },
		"deleted user": func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+f.token(t, "gone")) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			mutate(req)
			resp, err := f.app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, f.user.ID))
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, f.admin.ID))
	resp, err = f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
