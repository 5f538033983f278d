package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService coordinates login and account management.
type AuthService struct {
	users      repository.UserRepository
	requests   repository.RequestRepository
	tokenMgr   *auth.TokenManager
	cache      *cache.Cache
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
// Cache is optional; account changes bump its generation so cached
// ratings and workload figures see the new roster.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	RequestRepo repository.RequestRepository
	Cache       *cache.Cache
}

// UserInput carries the editable account fields.
type UserInput struct {
	Login       string      `json:"login" validate:"required,min=3,max=100"`
	DisplayName string      `json:"display_name" validate:"required,max=150"`
	Role        domain.Role `json:"role" validate:"required,oneof=admin tech user"`
}

func (in UserInput) normalized() UserInput {
	return UserInput{
		Login:       NormalizeLogin(in.Login),
		DisplayName: strings.TrimSpace(in.DisplayName),
		Role:        in.Role,
	}
}

// NormalizeLogin trims and lowercases a login.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		requests:   deps.RequestRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		cache:      deps.Cache,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate verifies credentials and returns the account.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	normalized := NormalizeLogin(login)
	user, err := s.users.GetByLogin(ctx, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("login failed: unknown user", zap.String("login", normalized))
			return nil, errUserNotFound(http.StatusUnauthorized)
		}
		return nil, err
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("login failed: invalid password", zap.String("login", normalized))
		} else {
			s.logger.Error("stored password hash unusable", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		return nil, errInvalidCredentials()
	}
	if auth.NeedsRehash(user.PasswordHash, s.bcryptCost) {
		if err := s.setPassword(ctx, user, password); err != nil {
			s.logger.Warn("password rehash failed", zap.Int64("user_id", user.ID), zap.Error(err))
		} else {
			s.logger.Info("password rehashed", zap.Int64("user_id", user.ID))
		}
	}
	s.logger.Info("user authenticated", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates and issues an access token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.User, string, time.Time, error) {
	user, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// CreateUser validates and stores a new account.
func (s *AuthService) CreateUser(ctx context.Context, input UserInput, password string) (*domain.User, error) {
	if strings.TrimSpace(password) == "" {
		return nil, errPasswordRequired()
	}
	input = input.normalized()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	taken, err := s.users.LoginTaken(ctx, input.Login, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		s.logger.Warn("create user rejected: login taken", zap.String("login", input.Login))
		return nil, errUserAlreadyExists(input.Login)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Login:        input.Login,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Role:         input.Role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("login", user.Login), zap.String("role", string(user.Role)))
	s.invalidateCache(ctx)
	return user, nil
}

// RegisterUser self-registers a requester account and issues a token.
func (s *AuthService) RegisterUser(ctx context.Context, login, displayName, password string) (*domain.User, string, time.Time, error) {
	user, err := s.CreateUser(ctx, UserInput{Login: login, DisplayName: displayName, Role: domain.RoleUser}, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// UserExists reports whether the normalized login is registered.
func (s *AuthService) UserExists(ctx context.Context, login string) (bool, error) {
	normalized := NormalizeLogin(login)
	if normalized == "" {
		return false, nil
	}
	return s.users.LoginTaken(ctx, normalized, 0)
}

// ListUsers returns every account ordered by display name, then login.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetUser loads one account.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errUserNotFound(http.StatusNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser edits login, display name and role. An administrator cannot
// change their own role, and the last administrator cannot be demoted.
func (s *AuthService) UpdateUser(ctx context.Context, actorID, id int64, input UserInput) (*domain.User, error) {
	input = input.normalized()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	taken, err := s.users.LoginTaken(ctx, input.Login, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errUserAlreadyExists(input.Login)
	}

	if user.Role != input.Role {
		if actorID == id {
			return nil, apperrors.NewDomainError(CodeSelfRoleChange, "cannot change your own role", http.StatusConflict, nil)
		}
		if user.Role == domain.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx, "cannot demote the last administrator"); err != nil {
				return nil, err
			}
		}
	}

	user.Login = input.Login
	user.DisplayName = input.DisplayName
	user.Role = input.Role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", zap.Int64("user_id", user.ID), zap.Int64("actor_id", actorID))
	s.invalidateCache(ctx)
	return user, nil
}

// ResetPassword sets a new password without checking the current one.
func (s *AuthService) ResetPassword(ctx context.Context, id int64, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return errPasswordRequired()
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.Int64("user_id", id))
	return nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return errPasswordRequired()
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		s.logger.Warn("password change rejected", zap.Int64("user_id", id))
		return errInvalidCredentials()
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// DeleteUser removes an account. Administrators cannot delete themselves or
// the last administrator, and accounts referenced by requests are kept.
func (s *AuthService) DeleteUser(ctx context.Context, actorID, id int64) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if actorID == id {
		return apperrors.NewDomainError(CodeSelfDelete, "cannot delete your own account", http.StatusConflict, nil)
	}
	if user.Role == domain.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, "cannot delete the last administrator"); err != nil {
			return err
		}
	}
	count, err := s.requests.CountForUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewDomainError(CodeUserHasRequests, "user has requests", http.StatusConflict, map[string]any{"requests": count})
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.Int64("actor_id", actorID))
	s.invalidateCache(ctx)
	return nil
}

func (s *AuthService) ensureAnotherAdmin(ctx context.Context, message string) error {
	admins, err := s.users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperrors.NewDomainError(CodeLastAdmin, message, http.StatusConflict, nil)
	}
	return nil
}

// invalidateCache is best effort; a stale entry expires with its TTL.
func (s *AuthService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
