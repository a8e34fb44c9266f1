package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refurbstock/internal/logger"
	"refurbstock/internal/model"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *Identity `json:"user"`
}

type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*Session, error)
	ResolveSession(ctx context.Context, token string) (*Identity, error)
}

type authService struct {
	users          repository.UserRepository
	perms          repository.PermissionRepository
	tokens         *TokenManager
	privilegedRole string
	dummyHash      []byte
	log            *logger.Logger
}

// NewAuthService wires login and session resolution. bcryptCost must match the cost used for stored hashes
// so the unknown-user path spends the same time as a wrong password.
func NewAuthService(users repository.UserRepository, perms repository.PermissionRepository, tokens *TokenManager, privilegedRole string, bcryptCost int, log *logger.Logger) (AuthService, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("refurbstock-unknown-user"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &authService{
		users:          users,
		perms:          perms,
		tokens:         tokens,
		privilegedRole: privilegedRole,
		dummyHash:      dummy,
		log:            log.With("service", "AuthService"),
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.log.Debug("Login rejected", "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.Debug("Login rejected", "reason", "bad password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	identity, err := s.identityFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if !identity.Privileged && !identity.PermissionsConfigured {
		s.log.Info("Login refused, role has no permission matrix", "user_id", user.ID, "role", identity.RoleName)
		return nil, ErrPermissionsNotConfigured
	}

	token, exp, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", "user_id", user.ID, "role", identity.RoleName)
	return &Session{Token: token, ExpiresAt: exp, User: identity}, nil
}

func (s *authService) ResolveSession(ctx context.Context, token string) (*Identity, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidOrExpiredToken)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.identityFor(ctx, user)
}

// identityFor loads the role's current matrix. The privileged role always resolves to a full grant.
func (s *authService) identityFor(ctx context.Context, user *model.User) (*Identity, error) {
	id := &Identity{
		UserID:     user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		EmployeeID: user.EmployeeID,
		ImageURL:   user.ImageURL,
		RoleID:     user.RoleID,
		RoleName:   user.Role.Name,
	}

	if user.Role.Name == s.privilegedRole {
		id.Privileged = true
		id.Permissions = permission.All(true)
		id.PermissionsConfigured = true
		return id, nil
	}

	rp, err := s.perms.FindByRoleID(ctx, user.RoleID)
	switch {
	case err == nil:
		id.Permissions = rp.Matrix()
		id.PermissionsConfigured = true
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	return id, nil
}
