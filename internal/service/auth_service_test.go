package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})

	user, err := env.auth.Authenticate(ctx, "  ADMIN ", testutil.SeedPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	_, err = env.auth.Authenticate(ctx, "ghost", testutil.SeedPassword)
	assert.True(t, apperrors.HasCode(err, CodeUserNotFound))

	_, err = env.auth.Authenticate(ctx, "admin", "wrong")
	assert.True(t, apperrors.HasCode(err, CodeInvalidCredentials))
}

func TestLoginIssuesToken(t *testing.T) {
	env := newTestEnv(t, config.NotificationConfig{})

	user, token, exp, err := env.auth.Login(context.Background(), "tech", testutil.SeedPassword)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := env.auth.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleTech, claims.Role)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})

	t.Run("normalizes and stores", func(t *testing.T) {
		user, err := env.auth.CreateUser(ctx, UserInput{Login: " NewTech ", DisplayName: "  New Tech ", Role: domain.RoleTech}, "pw")
		require.NoError(t, err)
		assert.Equal(t, "newtech", user.Login)
		assert.Equal(t, "New Tech", user.DisplayName)
		assert.NotEqual(t, "pw", user.PasswordHash)
		assert.Equal(t, time.UTC, user.CreatedAt.Location())

		_, err = env.auth.Authenticate(ctx, "newtech", "pw")
		assert.NoError(t, err)
	})

	t.Run("password required", func(t *testing.T) {
		_, err := env.auth.CreateUser(ctx, UserInput{Login: "someone", DisplayName: "Someone", Role: domain.RoleUser}, "   ")
		assert.True(t, apperrors.HasCode(err, CodePasswordRequired))
	})

	t.Run("duplicate login", func(t *testing.T) {
		_, err := env.auth.CreateUser(ctx, UserInput{Login: "Admin", DisplayName: "Second", Role: domain.RoleUser}, "pw")
		assert.True(t, apperrors.HasCode(err, CodeUserAlreadyExists))
	})

	t.Run("validation details", func(t *testing.T) {
		_, err := env.auth.CreateUser(ctx, UserInput{Login: "ab", DisplayName: " ", Role: "root"}, "pw")
		require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
		details := apperrors.ToDomainError(err).Details
		assert.Equal(t, "min=3", details["login"])
		assert.Equal(t, "required", details["display_name"])
		assert.Contains(t, details, "role")
	})
}

func TestRegisterAndExists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})

	exists, err := env.auth.UserExists(ctx, "Carol")
	require.NoError(t, err)
	assert.False(t, exists)

	user, token, _, err := env.auth.RegisterUser(ctx, "Carol", "Carol C", "secret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, token)

	exists, err = env.auth.UserExists(ctx, " CAROL ")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateUserAndPasswords(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})

	updated, err := env.auth.UpdateUser(ctx, env.adminID, env.userID, UserInput{Login: "requester", DisplayName: "Requester", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "requester", updated.Login)

	_, err = env.auth.UpdateUser(ctx, env.adminID, env.userID, UserInput{Login: "tech", DisplayName: "Requester", Role: domain.RoleUser})
	assert.True(t, apperrors.HasCode(err, CodeUserAlreadyExists))

	_, err = env.auth.UpdateUser(ctx, env.adminID, 9999, UserInput{Login: "nobody", DisplayName: "Nobody", Role: domain.RoleUser})
	assert.True(t, apperrors.HasCode(err, CodeUserNotFound))

	err = env.auth.ChangePassword(ctx, env.userID, "wrong", "next")
	assert.True(t, apperrors.HasCode(err, CodeInvalidCredentials))
	require.NoError(t, env.auth.ChangePassword(ctx, env.userID, testutil.SeedPassword, "next"))
	_, err = env.auth.Authenticate(ctx, "requester", "next")
	require.NoError(t, err)

	assert.True(t, apperrors.HasCode(env.auth.ResetPassword(ctx, env.userID, ""), CodePasswordRequired))
	assert.True(t, apperrors.HasCode(env.auth.ResetPassword(ctx, 9999, "x"), CodeUserNotFound))
	require.NoError(t, env.auth.ResetPassword(ctx, env.userID, "reset"))
	_, err = env.auth.Authenticate(ctx, "requester", "reset")
	require.NoError(t, err)
}

func TestDeleteUserGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})

	err := env.auth.DeleteUser(ctx, env.adminID, env.adminID)
	assert.True(t, apperrors.HasCode(err, CodeSelfDelete))

	other, err := env.auth.CreateUser(ctx, UserInput{Login: "boss", DisplayName: "Boss", Role: domain.RoleAdmin}, "pw")
	require.NoError(t, err)
	require.NoError(t, env.auth.DeleteUser(ctx, env.adminID, other.ID))

	err = env.auth.DeleteUser(ctx, env.techID, env.adminID)
	assert.True(t, apperrors.HasCode(err, CodeLastAdmin))

	_, err = env.requestSvc.Create(ctx, env.userID, RequestInput{Title: "t", Description: "d", CategoryID: env.software, Priority: domain.PriorityLow})
	require.NoError(t, err)
	err = env.auth.DeleteUser(ctx, env.adminID, env.userID)
	assert.True(t, apperrors.HasCode(err, CodeUserHasRequests))

	err = env.auth.DeleteUser(ctx, env.adminID, 9999)
	assert.True(t, apperrors.HasCode(err, CodeUserNotFound))

	require.NoError(t, env.auth.DeleteUser(ctx, env.adminID, env.techID))
	users, err := env.auth.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateUserRoleGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})
	admin := UserInput{Login: "admin", DisplayName: "Administrator", Role: domain.RoleUser}

	_, err := env.auth.UpdateUser(ctx, env.adminID, env.adminID, admin)
	assert.True(t, apperrors.HasCode(err, CodeSelfRoleChange))

	_, err = env.auth.UpdateUser(ctx, env.techID, env.adminID, admin)
	assert.True(t, apperrors.HasCode(err, CodeLastAdmin))
	stored, err := env.auth.GetUser(ctx, env.adminID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)

	renamed, err := env.auth.UpdateUser(ctx, env.adminID, env.adminID, UserInput{Login: "root", DisplayName: "Root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "root", renamed.Login)

	boss, err := env.auth.CreateUser(ctx, UserInput{Login: "boss", DisplayName: "Boss", Role: domain.RoleAdmin}, "pw")
	require.NoError(t, err)
	demoted, err := env.auth.UpdateUser(ctx, env.adminID, boss.ID, UserInput{Login: "boss", DisplayName: "Boss", Role: domain.RoleTech})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTech, demoted.Role)

	promoted, err := env.auth.UpdateUser(ctx, env.adminID, env.userID, UserInput{Login: "user", DisplayName: "User", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, promoted.Role)
}

func TestAuthenticateUpgradesPasswordCost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, config.NotificationConfig{})
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost + 1}}
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: env.users, RequestRepo: env.requests}, zaptest.NewLogger(t))

	_, err := svc.Authenticate(ctx, "user", testutil.SeedPassword)
	require.NoError(t, err)

	stored, err := env.users.GetByID(ctx, env.userID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	_, err = svc.Authenticate(ctx, "user", testutil.SeedPassword)
	require.NoError(t, err)
}
