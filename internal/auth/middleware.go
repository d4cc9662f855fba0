package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/repository"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// CookieName is the httpOnly cookie carrying the credential.
	CookieName = "token"
)

// Principal represents the authenticated caller.
type Principal struct {
	User *domain.User
}

// Caller reduces the principal to the identity the services authorize against.
func (p *Principal) Caller() domain.Caller {
	if p == nil || p.User == nil {
		return domain.Caller{}
	}
	return domain.Caller{UserID: p.User.ID, Role: p.User.Role}
}

// AuthMiddleware validates tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The Authorization
// header wins over the cookie when both are present.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := tokenFromRequest(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("Not authorized, token failed")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("Not authorized, user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

func tokenFromRequest(c *fiber.Ctx) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("Not authorized, invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie := c.Cookies(CookieName); cookie != "" {
		return cookie, nil
	}
	return "", apperrors.NewUnauthorized("Not authorized, no token")
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}
