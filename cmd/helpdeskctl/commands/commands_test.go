package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "helpdesk.db"))
	t.Setenv("AUTH_BCRYPT_COST", "4")
	t.Setenv("SEED_DEFAULT_PASSWORD", "123456")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootShowsHelp(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "helpdeskctl")
}

func TestMigrateAndSeed(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date (sqlite)")

	out, err = run(t, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seed complete")

	out, err = run(t, "user", "list")
	require.NoError(t, err)
	for _, login := range []string{"admin", "tech", "user"} {
		assert.Contains(t, out, login)
	}
}

func TestUserCreateAndRating(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "seed")
	require.NoError(t, err)

	out, err := run(t, "user", "create", "--login", "Helper", "--role", "tech", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "created helper")

	_, err = run(t, "user", "create", "--login", "helper", "--password", "pw")
	require.Error(t, err)

	_, err = run(t, "user", "create", "--login", "someone")
	require.Error(t, err, "password flag is required")

	out, err = run(t, "rating")
	require.NoError(t, err)
	assert.Contains(t, out, "helper")
	assert.Contains(t, out, "tech")

	out, err = run(t, "user", "reset-password", "HELPER", "--password", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "password updated for helper")
}

func TestExportWritesHeader(t *testing.T) {
	dir := setupEnv(t)
	_, err := run(t, "seed")
	require.NoError(t, err)

	target := filepath.Join(dir, "out.csv")
	_, err = run(t, "export", "--output", target)
	require.NoError(t, err)

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "Id;Title;Description;CategoryId;Priority;StatusId;CreatedById;AssignedToId;CreatedAt;ClosedAt", lines[0])
}
