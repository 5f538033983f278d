package service

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
)

type testEnv struct {
	db            *sqlx.DB
	users         repository.UserRepository
	requests      repository.RequestRepository
	lookups       repository.LookupRepository
	notifications repository.NotificationRepository
	settings      repository.SettingsRepository
	dispatcher    events.Dispatcher

	auth         *AuthService
	requestSvc   *RequestService
	notification *NotificationService

	adminID, techID, userID int64
	software                int64
}

func newTestEnv(t *testing.T, notifyCfg config.NotificationConfig) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	db := testutil.OpenDB(t)

	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		requests:      repository.NewRequestRepository(db),
		lookups:       repository.NewLookupRepository(db),
		notifications: repository.NewNotificationRepository(db),
		settings:      repository.NewSettingsRepository(db),
		dispatcher:    events.NewInMemoryDispatcher(logger, nil),
		adminID:       testutil.UserID(t, db, "admin"),
		techID:        testutil.UserID(t, db, "tech"),
		userID:        testutil.UserID(t, db, "user"),
		software:      testutil.CategoryID(t, db, "Software"),
	}

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}
	env.auth = NewAuthService(cfg, AuthDependencies{UserRepo: env.users, RequestRepo: env.requests}, logger)
	env.requestSvc = NewRequestService(RequestDependencies{
		RequestRepo: env.requests,
		UserRepo:    env.users,
		LookupRepo:  env.lookups,
		Dispatcher:  env.dispatcher,
	}, logger)
	env.notification = NewNotificationService(notifyCfg, NotificationDependencies{
		NotificationRepo: env.notifications,
		SettingsRepo:     env.settings,
		Dispatcher:       env.dispatcher,
	}, logger)
	env.notification.RegisterHandlers()
	return env
}

func disabledCache() *cache.Cache {
	return cache.New(nil, config.CacheConfig{}, nil, nil)
}

func ptr[T any](v T) *T { return &v }
