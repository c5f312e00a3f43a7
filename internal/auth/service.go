package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kasirku/kasir/internal/access"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match an active user.
var ErrInvalidCredentials = errors.New("invalid username or password")

// godUsername is the login name of the bootstrapped superuser.
const godUsername = "god"

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Service provides authentication operations.
type Service struct {
	userRepo   UserRepository
	tokens     *Tokens
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, tokens *Tokens, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// HashPassword returns the bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the credentials and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if u.DisabledAt != nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(u)
}

// IssueFor issues a token for username without a password check. It backs the
// operator CLI.
func (s *Service) IssueFor(ctx context.Context, username string) (*LoginResult, error) {
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u.DisabledAt != nil {
		return nil, ErrUserDisabled
	}
	return s.issue(u)
}

// Authenticate validates a bearer token and returns its principal.
func (s *Service) Authenticate(_ context.Context, rawToken string) (access.Principal, error) {
	return s.tokens.Parse(rawToken)
}

// BootstrapGodUser creates the god user if the users table is empty.
// Returns the generated password (only displayed once). If users already
// exist, returns an empty string.
func (s *Service) BootstrapGodUser(ctx context.Context) (string, error) {
	count, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return "", nil
	}

	password, err := generatePassword()
	if err != nil {
		return "", fmt.Errorf("generating god password: %w", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return "", err
	}

	user := &User{
		Username:     godUsername,
		Name:         "Super Admin",
		PasswordHash: hash,
		Role:         access.RoleGod.String(),
		Level:        access.RoleGod.Level(),
		IsGod:        true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("creating god user: %w", err)
	}

	slog.Info("god user created", "username", godUsername, "password", password)

	return password, nil
}

func (s *Service) issue(u *User) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
