package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/domain"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

// callerFrom returns the authenticated caller attached by the auth middleware.
func callerFrom(c *fiber.Ctx) (domain.Caller, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthorized("Not authorized")
	}
	return principal.Caller(), nil
}
