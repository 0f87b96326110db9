package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is the persisted lifecycle state of an invite.
type InviteStatus string

const (
	InviteStatusActive   InviteStatus = "active"
	InviteStatusRedeemed InviteStatus = "redeemed"
	InviteStatusExpired  InviteStatus = "expired"
	InviteStatusRevoked  InviteStatus = "revoked"
)

// DeliveryMethod records how the raw token was handed to the tenant.
// It is carried as metadata only; delivery itself happens outside this
// service.
type DeliveryMethod string

const (
	DeliveryEmail DeliveryMethod = "email"
	DeliverySMS   DeliveryMethod = "sms"
	DeliveryLink  DeliveryMethod = "link"
)

// Invite is a single-use credential that lets an unauthenticated
// person join one specific property as a tenant. The raw token is
// returned to the issuer exactly once at creation; only its hash is
// stored. Invites are never deleted: terminal states are kept for
// audit.
type Invite struct {
	ID             uuid.UUID
	TokenHash      string
	PropertyID     uuid.UUID
	IssuerID       uuid.UUID
	IntendedEmail  *string
	DeliveryMethod DeliveryMethod
	Status         InviteStatus
	CreatedAt      time.Time
	ExpiresAt      time.Time
	RedeemedAt     *time.Time
	RedeemedBy     *uuid.UUID
}

// EffectiveStatus derives the status as of now. A stored-Active invite
// whose expiry has passed reads as Expired without requiring a sweep.
func (i *Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.Status == InviteStatusActive && !now.Before(i.ExpiresAt) {
		return InviteStatusExpired
	}
	return i.Status
}

// IsRedeemable reports whether the invite can still be claimed.
func (i *Invite) IsRedeemable(now time.Time) bool {
	return i.EffectiveStatus(now) == InviteStatusActive
}
