package domain

import (
	"time"

	"github.com/google/uuid"
)

// Property is a rental property owned by a landlord. The invite
// subsystem treats it as immutable: it only ever reads the owner for
// authorization and the name/address for the pre-signup preview.
type Property struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Address   string
	CreatedAt time.Time
}
