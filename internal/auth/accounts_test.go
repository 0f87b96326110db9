package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/internal/memstore"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewAccountService(memstore.New().Users())
	ctx := context.Background()

	user, err := svc.Register(ctx, "  User@Example.COM ", "long-enough-password", "  Jordan  ")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.Name != "Jordan" {
		t.Errorf("expected trimmed name, got %q", user.Name)
	}
	if user.PasswordHash == "long-enough-password" {
		t.Error("password must be stored hashed")
	}

	got, err := svc.Authenticate(ctx, "user@example.com", "long-enough-password")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %v, got %v", user.ID, got.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := NewAccountService(memstore.New().Users())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "long-enough-password", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := svc.Register(ctx, "user@example.com", "another-password", "")
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	svc := NewAccountService(memstore.New().Users())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "long-enough-password", ""); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(ctx, "user@example.com", "short", ""); !errors.Is(err, domain.ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

// Unknown email and wrong password fail the same way.
func TestAuthenticate_InvalidCredentials(t *testing.T) {
	svc := NewAccountService(memstore.New().Users())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "long-enough-password", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "user@example.com", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "long-enough-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@b.co", "user+tag@example.com"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("expected %q to be valid, got %v", email, err)
		}
	}
	invalid := []string{"", "plain", "a b@example.com", "Display Name <a@b.co>"}
	for _, email := range invalid {
		if err := ValidateEmail(email); !errors.Is(err, domain.ErrInvalidEmail) {
			t.Errorf("expected %q to be invalid, got %v", email, err)
		}
	}
}
