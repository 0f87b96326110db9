package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// UserStore is the persistence surface the account service needs.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AccountService handles registration and password login for both
// landlords and tenants.
type AccountService struct {
	users UserStore
}

// NewAccountService creates a new account service.
func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users}
}

// ValidateEmail checks that email is a plausible address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword checks a candidate password against the policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.ErrWeakPassword
	}
	return nil
}

// NewUser builds an unsaved user record with a hashed password. Shared
// by Register and by invite redemption, which creates the tenant
// account inside its own commit.
func NewUser(email, password, name string) (*domain.User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Register creates a new user account.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	user, err := NewUser(email, password, name)
	if err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies email and password, returning the user on
// success. Unknown emails and wrong passwords are indistinguishable.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
