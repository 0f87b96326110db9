package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Landlords and tenants share the same
// account type; the role is implied by the data they own (properties
// vs tenant property links).
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
