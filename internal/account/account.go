// Package account provides local user accounts for the application. Users
// are stored alongside the notes database; the active login is persisted to a
// session file so it survives restarts.
package account

import (
	"context"
	"time"

	"github.com/tphakala/voicenote-go/internal/errors"
)

// Sentinel errors for account operations
var (
	ErrInvalidCredentials = errors.Newf("invalid credentials").Component("account").Category(errors.CategoryAccount).Build()
	ErrUserExists         = errors.Newf("user already exists").Component("account").Category(errors.CategoryConflict).Build()
	ErrUserNotFound       = errors.Newf("user not found").Component("account").Category(errors.CategoryNotFound).Build()
	ErrNotLoggedIn        = errors.Newf("not logged in").Component("account").Category(errors.CategoryAccount).Build()
)

// User is one local account.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
}

// EventType identifies an account state change.
type EventType string

const (
	EventRegistered     EventType = "registered"
	EventLoggedIn       EventType = "logged-in"
	EventLoggedOut      EventType = "logged-out"
	EventProfileUpdated EventType = "profile-updated"
)

// Event is one account state change delivered to subscribers.
type Event struct {
	Type      EventType
	Username  string
	Timestamp time.Time
}

// Provider manages accounts and the active login.
type Provider interface {
	// Register creates a new account. An empty displayName defaults to the
	// username. The new account is not logged in.
	Register(ctx context.Context, username, password, displayName string) (*User, error)
	// Login verifies credentials and persists the session.
	Login(ctx context.Context, username, password string) (*User, error)
	// Logout clears the persisted session. Logging out while not logged in
	// is not an error.
	Logout(ctx context.Context) error
	// CurrentUser returns the logged-in user or ErrNotLoggedIn.
	CurrentUser(ctx context.Context) (*User, error)
	// UpdateProfile edits the logged-in user's profile.
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error)
	// Subscribe registers a delivery channel for account state changes,
	// bound to ctx. Delivery is non-blocking.
	Subscribe(ctx context.Context) <-chan Event
}
