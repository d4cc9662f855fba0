package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk/support-desk/internal/auth"
	"github.com/helpdesk/support-desk/internal/config"
	"github.com/helpdesk/support-desk/internal/domain"
	"github.com/helpdesk/support-desk/internal/repository"
	apperrors "github.com/helpdesk/support-desk/pkg/util/errorutil"
)

const (
	minPasswordLength = 6
	maxNameLength     = 100
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users            repository.UserRepository
	tokenMgr         *auth.TokenManager
	bcryptCost       int
	allowAdminSignup bool
	logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:            users,
		tokenMgr:         tokens,
		bcryptCost:       cfg.BcryptCost,
		allowAdminSignup: cfg.AllowAdminSignup,
		logger:           logger,
	}
}

// RegisterInput is the self-service signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates an account and signs a credential for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, domain.Credential, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)

	details := map[string]any{}
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		details["name"] = "Please add a name"
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		details["email"] = "Please add a valid email"
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		details["password"] = "Password must be at least 6 characters"
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		details["role"] = "Invalid role value"
	} else if role == domain.RoleAdmin && !s.allowAdminSignup {
		details["role"] = "Admin accounts cannot be self-registered"
	}
	if len(details) > 0 {
		return nil, domain.Credential{}, apperrors.NewValidationError(firstDetail(details), details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, domain.Credential{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, domain.Credential{}, apperrors.NewValidationError("User already exists", map[string]any{"email": "already registered"})
		}
		return nil, domain.Credential{}, apperrors.MapError(err)
	}

	cred, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, domain.Credential{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, cred, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Credential, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Credential{}, apperrors.NewValidationError("Please enter an email and password", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Credential{}, apperrors.NewInvalidCredentials()
		}
		return nil, domain.Credential{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.Credential{}, apperrors.NewInvalidCredentials()
	}

	cred, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, domain.Credential{}, apperrors.NewInternalError(err)
	}
	return user, cred, nil
}

// CurrentUser resolves a raw token to its account.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewUnauthorized("Not authorized, no token")
	}
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("Not authorized, token failed")
	}
	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("Not authorized, user not found")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// PromoteByEmail grants a role outside the HTTP surface. It is used to
// bootstrap the first admin.
func (s *AuthService) PromoteByEmail(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role value", nil)
	}
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("User", nil)
		}
		return nil, apperrors.MapError(err)
	}
	updated, err := s.users.UpdateRole(ctx, user.ID, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user role changed", zap.String("user_id", updated.ID), zap.String("role", string(role)))
	return updated, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// firstDetail picks a stable message for the envelope out of field errors.
func firstDetail(details map[string]any) string {
	for _, key := range []string{"name", "email", "password", "role"} {
		if msg, ok := details[key].(string); ok {
			return msg
		}
	}
	return "Validation failed"
}
