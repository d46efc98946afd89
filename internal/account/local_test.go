package account

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "accounts.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sessionPath := filepath.Join(dir, "session.yaml")
	provider, err := NewLocalProvider(db, sessionPath)
	require.NoError(t, err)
	return provider, sessionPath
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	user, err := provider.Register(ctx, "alice", "correct horse battery", "")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice", user.DisplayName)

	// Registering does not log in
	_, err = provider.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	logged, err := provider.Login(ctx, "alice", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	current, err := provider.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", current.Username)
}

func TestRegisterWithDisplayName(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	user, err := provider.Register(ctx, "judy", "pw", "Judy J")
	require.NoError(t, err)
	assert.Equal(t, "Judy J", user.DisplayName)

	// Empty display name defaults to the username
	user, err = provider.Register(ctx, "ken", "pw", "")
	require.NoError(t, err)
	assert.Equal(t, "ken", user.DisplayName)
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	user, err := provider.Register(context.Background(), "bob", "hunter2", "")
	require.NoError(t, err)

	assert.NotEqual(t, "hunter2", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"), "password should be hashed with bcrypt")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.Register(ctx, "carol", "pw1", "")
	require.NoError(t, err)

	_, err = provider.Register(ctx, "carol", "pw2", "")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterRequiresCredentials(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.Register(ctx, "", "pw", "")
	assert.Error(t, err)
	_, err = provider.Register(ctx, "dave", "", "")
	assert.Error(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.Register(ctx, "erin", "secret", "")
	require.NoError(t, err)

	_, err = provider.Login(ctx, "erin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown usernames get the same error as a wrong password
	_, err = provider.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "accounts.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sessionPath := filepath.Join(dir, "session.yaml")
	ctx := context.Background()

	first, err := NewLocalProvider(db, sessionPath)
	require.NoError(t, err)
	_, err = first.Register(ctx, "frank", "pw", "")
	require.NoError(t, err)
	_, err = first.Login(ctx, "frank", "pw")
	require.NoError(t, err)

	// A fresh provider over the same files sees the same login
	second, err := NewLocalProvider(db, sessionPath)
	require.NoError(t, err)
	current, err := second.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "frank", current.Username)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.Register(ctx, "grace", "pw", "")
	require.NoError(t, err)
	_, err = provider.Login(ctx, "grace", "pw")
	require.NoError(t, err)

	require.NoError(t, provider.Logout(ctx))
	_, err = provider.CurrentUser(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	// Logging out again is not an error
	assert.NoError(t, provider.Logout(ctx))
}

func TestSubscribeReceivesAccountEvents(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := provider.Subscribe(ctx)

	_, err := provider.Register(ctx, "ivan", "pw", "")
	require.NoError(t, err)
	_, err = provider.Login(ctx, "ivan", "pw")
	require.NoError(t, err)
	require.NoError(t, provider.Logout(ctx))

	want := []EventType{EventRegistered, EventLoggedIn, EventLoggedOut}
	for _, expected := range want {
		select {
		case event := <-ch:
			assert.Equal(t, expected, event.Type)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", expected)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	provider, _ := newTestProvider(t)
	ctx := context.Background()

	_, err := provider.Register(ctx, "heidi", "pw", "")
	require.NoError(t, err)

	// Editing without a login is rejected
	name := "Heidi H"
	_, err = provider.UpdateProfile(ctx, ProfileUpdate{DisplayName: &name})
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = provider.Login(ctx, "heidi", "pw")
	require.NoError(t, err)

	avatar := "https://example.com/heidi.png"
	updated, err := provider.UpdateProfile(ctx, ProfileUpdate{DisplayName: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Heidi H", updated.DisplayName)
	assert.Equal(t, avatar, updated.AvatarURL)

	// Nil fields leave existing values in place
	updated, err = provider.UpdateProfile(ctx, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Heidi H", updated.DisplayName)
	assert.Equal(t, avatar, updated.AvatarURL)
}
