package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantPropertyLink attaches a tenant to a property. Exactly one is
// created per successful redemption. A tenant may accumulate inactive
// historical links for the same property (unlinked then re-invited),
// but at most one active link exists per (tenant, property) pair.
type TenantPropertyLink struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	PropertyID uuid.UUID
	UnitNumber *string
	IsActive   bool
	CreatedAt  time.Time
}
