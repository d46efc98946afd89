package account

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tphakala/voicenote-go/internal/errors"
)

// sessionFile is the persisted login state.
type sessionFile struct {
	Username   string    `yaml:"username"`
	LoggedInAt time.Time `yaml:"loggedinat"`
}

// subscriber holds one event delivery channel and its cancellation context.
type subscriber struct {
	ch  chan Event
	ctx context.Context
}

// LocalProvider stores accounts in the application database and the active
// session in a YAML file.
type LocalProvider struct {
	db          *gorm.DB
	sessionPath string

	mu          sync.Mutex
	subscribers []*subscriber
}

// NewLocalProvider migrates the users table and returns a provider that
// persists sessions at sessionPath.
func NewLocalProvider(db *gorm.DB, sessionPath string) (*LocalProvider, error) {
	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, errors.New(err).
			Component("account").
			Category(errors.CategoryDatabase).
			Context("operation", "migrate_users").
			Build()
	}
	return &LocalProvider{db: db, sessionPath: sessionPath}, nil
}

// Register creates a new account with a bcrypt password hash. An empty
// displayName defaults to the username.
func (p *LocalProvider) Register(ctx context.Context, username, password, displayName string) (*User, error) {
	if username == "" || password == "" {
		return nil, errors.Newf("username and password are required").
			Component("account").
			Category(errors.CategoryValidation).
			Build()
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, p.dbError("lookup_user", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New(err).
			Component("account").
			Category(errors.CategoryAccount).
			Context("operation", "hash_password").
			Build()
	}

	if displayName == "" {
		displayName = username
	}
	user := &User{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := p.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, p.dbError("create_user", err)
	}

	getLogger().Info("account registered", "username", username)
	p.publish(EventRegistered, username)
	return user, nil
}

// Subscribe registers a delivery channel bound to ctx. The channel is
// buffered; a subscriber that stops draining misses events rather than
// stalling account operations.
func (p *LocalProvider) Subscribe(ctx context.Context) <-chan Event {
	sub := &subscriber{
		ch:  make(chan Event, 16),
		ctx: ctx,
	}

	p.mu.Lock()
	p.subscribers = append(p.subscribers, sub)
	p.mu.Unlock()

	return sub.ch
}

func (p *LocalProvider) publish(eventType EventType, username string) {
	event := Event{Type: eventType, Username: username, Timestamp: time.Now()}

	p.mu.Lock()
	subs := slices.Clone(p.subscribers)
	p.mu.Unlock()

	for _, sub := range subs {
		select {
		case <-sub.ctx.Done():
		case sub.ch <- event:
		default:
		}
	}
}

// Login verifies the password and persists the session.
func (p *LocalProvider) Login(ctx context.Context, username, password string) (*User, error) {
	user, err := p.findUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Do not reveal whether the username exists
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := p.writeSession(sessionFile{Username: username, LoggedInAt: time.Now()}); err != nil {
		return nil, err
	}

	getLogger().Info("logged in", "username", username)
	p.publish(EventLoggedIn, username)
	return user, nil
}

// Logout removes the persisted session.
func (p *LocalProvider) Logout(ctx context.Context) error {
	if err := os.Remove(p.sessionPath); err != nil && !os.IsNotExist(err) {
		return errors.New(err).
			Component("account").
			Category(errors.CategoryFileIO).
			FileContext(p.sessionPath, 0).
			Context("operation", "remove_session").
			Build()
	}
	getLogger().Info("logged out")
	p.publish(EventLoggedOut, "")
	return nil
}

// CurrentUser resolves the persisted session to its user.
func (p *LocalProvider) CurrentUser(ctx context.Context) (*User, error) {
	session, err := p.readSession()
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotLoggedIn
	}

	user, err := p.findUser(ctx, session.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Stale session for a deleted account
			_ = os.Remove(p.sessionPath)
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile edits the logged-in user's display name and avatar.
func (p *LocalProvider) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	user, err := p.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}

	if err := p.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, p.dbError("update_profile", err)
	}

	getLogger().Info("profile updated", "username", user.Username)
	p.publish(EventProfileUpdated, user.Username)
	return user, nil
}

func (p *LocalProvider) findUser(ctx context.Context, username string) (*User, error) {
	var user User
	err := p.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, p.dbError("lookup_user", err)
	}
	return &user, nil
}

func (p *LocalProvider) readSession() (*sessionFile, error) {
	data, err := os.ReadFile(p.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.New(err).
			Component("account").
			Category(errors.CategoryFileIO).
			FileContext(p.sessionPath, 0).
			Context("operation", "read_session").
			Build()
	}

	var session sessionFile
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, errors.New(err).
			Component("account").
			Category(errors.CategoryFileIO).
			FileContext(p.sessionPath, int64(len(data))).
			Context("operation", "parse_session").
			Build()
	}
	if session.Username == "" {
		return nil, nil
	}
	return &session, nil
}

func (p *LocalProvider) writeSession(session sessionFile) error {
	data, err := yaml.Marshal(&session)
	if err != nil {
		return errors.New(err).
			Component("account").
			Category(errors.CategoryFileIO).
			Context("operation", "marshal_session").
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(p.sessionPath), 0o755); err != nil {
		return errors.New(err).
			Component("account").
			Category(errors.CategoryFileIO).
			FileContext(p.sessionPath, 0).
			Context("operation", "create_session_dir").
			Build()
	}

	// Session names the active user, keep it private to the owner
	if err := os.WriteFile(p.sessionPath, data, 0o600); err != nil {
		return errors.New(err).
			Component("account").
			Category(errors.CategoryFileIO).
			FileContext(p.sessionPath, int64(len(data))).
			Context("operation", "write_session").
			Build()
	}
	return nil
}

func (p *LocalProvider) dbError(operation string, err error) error {
	return errors.New(err).
		Component("account").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
