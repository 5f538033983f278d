package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/testutil"
)

func TestNotificationRepositoryRecent(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewNotificationRepository(db)
	userID := testutil.UserID(t, db, "tech")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		n := &domain.Notification{
			Text:      "entry",
			Type:      domain.NotificationCreated,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			UserID:    &userID,
		}
		require.NoError(t, repo.Create(ctx, n))
		require.NotZero(t, n.ID)
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
	assert.Equal(t, base.Add(2*time.Minute), recent[0].Timestamp)
	require.NotNil(t, recent[0].UserID)
	assert.Equal(t, userID, *recent[0].UserID)
	assert.Nil(t, recent[0].RequestID)
}

func TestNotificationRepositoryExistsForRequest(t *testing.T) {
	ctx := context.Background()
	f := newRequestFixture(t)
	repo := NewNotificationRepository(f.db)
	request := f.create(t, "Overdue one", time.Now().UTC(), nil)

	exists, err := repo.ExistsForRequest(ctx, domain.NotificationOverdue, request.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, &domain.Notification{
		Text:      "Request Overdue one is overdue",
		Type:      domain.NotificationOverdue,
		Timestamp: time.Now().UTC(),
		RequestID: &request.ID,
	}))

	exists, err = repo.ExistsForRequest(ctx, domain.NotificationOverdue, request.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNotificationRepositoryPropagatesErrors(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	repo := NewNotificationRepository(sqlx.NewDb(raw, "sqlite"))

	boom := errors.New("database is locked")
	mock.ExpectQuery("SELECT id, text, type, logged_at").WithArgs(5).WillReturnError(boom)

	_, err = repo.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewSettingsRepository(db)
	userID := testutil.UserID(t, db, "user")

	_, err := repo.Get(ctx, userID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	settings := domain.UserSettings{UserID: userID, Theme: domain.ThemeDark, AttachmentsPath: "/tmp/files", NotificationsEnabled: false}
	require.NoError(t, repo.Upsert(ctx, settings))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, settings, *got)

	settings.NotificationsEnabled = true
	settings.Theme = domain.ThemeLight
	require.NoError(t, repo.Upsert(ctx, settings))

	got, err = repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestLookupRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewLookupRepository(testutil.OpenDB(t))

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Hardware", "Network", "Other", "Software"}, names)

	statuses, err := repo.ListStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	assert.Equal(t, domain.StatusCancelled, statuses[0].Name)

	closed, err := repo.GetStatusByName(ctx, domain.StatusClosed)
	require.NoError(t, err)

	byID, err := repo.GetStatusByID(ctx, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, byID.Name)

	category, err := repo.GetCategoryByID(ctx, categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Hardware", category.Name)

	_, err = repo.GetStatusByName(ctx, "Archived")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
