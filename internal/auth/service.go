package auth

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// UserStore defines the user persistence operations the service needs.
type UserStore interface {
	CreateUser(user *entities.User) error
	GetUserByID(id uint) (*entities.User, error)
	GetUserByUsername(username string) (*entities.User, error)
	GetUserByTokenHash(hash string) (*entities.User, error)
	SetTokenHash(userID uint, hash string) error
	CountUsers() (int64, error)
}

// Service handles authentication and user management.
type Service struct {
	users  UserStore
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(users UserStore, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		config: cfg,
	}
}

// IsAuthEnabled reports whether local authentication is configured.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// CreateUser creates a new user with password authentication. The email is
// optional; self-registered users get a placeholder derived from the
// username (see PlaceholderEmail).
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	if email == "" {
		email = PlaceholderEmail(username)
	}
	// RFC 5321 length limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	switch role {
	case entities.UserRoleAdmin, entities.UserRoleLibrarian:
	default:
		return nil, ErrInvalidRole
	}

	if _, err := s.users.GetUserByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidPassword
	}

	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a comparison anyway so missing users cost the same as a
			// wrong password.
			_ = CheckPassword(password, "$2a$12$invalidsaltinvalidsaltinvalidsaltinvalidsaltinvalids")
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// ValidateToken resolves an API token to its user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	return user, nil
}

// IssueToken generates and stores a new API token for the user, replacing
// any previous one. The plaintext is returned exactly once.
func (s *Service) IssueToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.users.SetTokenHash(userID, hash); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return plaintext, nil
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// HasUsers reports whether any user accounts exist yet.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.CountUsers()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PlaceholderEmail synthesizes the address given to self-registered members
// who did not supply one.
func PlaceholderEmail(username string) string {
	return username + "@members.local"
}
