package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUsernameTaken indicates a registration against an existing username.
	ErrUsernameTaken = errors.New("users: username already exists")
	// ErrInvalidCredentials is returned for unknown users and wrong passwords
	// alike; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("users: invalid credentials")
	// ErrMissingCredentials indicates an empty username or password.
	ErrMissingCredentials = errors.New("users: username and password are required")
	// ErrUnknownUser indicates a profile lookup for an id with no account.
	ErrUnknownUser = errors.New("users: unknown user")
)

// dummyHash is compared against when the username is unknown so that a
// failed login costs one bcrypt comparison on every path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ServiceConfig describes the dependencies of the credential store.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service persists account identities and verifies login credentials.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the credential store.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Register creates a new account with a bcrypt-hashed password. The avatar
// is optional. Username matching is exact and case sensitive.
func (s *Service) Register(ctx context.Context, username, password, avatar string) (User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		Username:     username,
		PasswordHash: string(hash),
		Avatar:       avatar,
		CreatedAt:    s.clock().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing User
		lookupErr := tx.Where("username = ?", username).Take(&existing).Error
		if lookupErr == nil {
			return ErrUsernameTaken
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return lookupErr
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return User{}, err
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return user, nil
}

// Authenticate verifies the supplied credentials and returns the matching
// account. Unknown usernames and wrong passwords produce the identical
// ErrInvalidCredentials after comparable work.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// SetAvatar replaces the stored avatar blob for the account.
func (s *Service) SetAvatar(ctx context.Context, userID uint, avatar string) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("avatar", avatar)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUnknownUser
	}
	return nil
}

// Profile returns the account behind an authenticated identity.
func (s *Service) Profile(ctx context.Context, userID uint) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUnknownUser
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
