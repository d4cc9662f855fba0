package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/support-desk/internal/api/dto"
	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/service"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

// AuthHandler exposes register, login and session endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
}

// NewAuthHandler constructs handler. secureCookie marks the session cookie Secure.
func NewAuthHandler(authService *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: authService, secureCookie: secureCookie}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}

	user, cred, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     dto.SanitizeText(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusCreated, user, cred)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}

	user, cred, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, user, cred)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Not authorized")
	}
	return c.JSON(dto.DataResponse{Success: true, Data: principal.User})
}

// Logout handles POST /auth/logout by expiring the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(dto.MessageResponse{Success: true, Message: "Logged out"})
}

func (h *AuthHandler) sendToken(c *fiber.Ctx, status int, user *domain.User, cred domain.Credential) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    cred.Token,
		Expires:  cred.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(status).JSON(dto.AuthResponse{
		Success: true,
		Token:   cred.Token,
		User:    dto.NewUserResponse(user),
	})
}
