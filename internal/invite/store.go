package invite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// InviteStore is the durable record of invites and the single source
// of truth for concurrency control. Claim and ReleaseClaim must be
// atomic compare-and-set operations against the stored status, never
// read-then-write pairs.
type InviteStore interface {
	Create(ctx context.Context, invite *domain.Invite) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.Invite, error)

	// Claim transitions Active -> Redeemed iff the invite is still
	// Active and unexpired as of now. Returns false when the claim was
	// lost (already terminal, expired, or unknown).
	Claim(ctx context.Context, tokenHash string, tenantID uuid.UUID, now time.Time) (bool, error)

	// ReleaseClaim reverts Redeemed -> Active for the given claimant
	// only. Compensation for a failed post-claim commit; the sole
	// permitted transition out of Redeemed.
	ReleaseClaim(ctx context.Context, inviteID, tenantID uuid.UUID) (bool, error)

	// Revoke transitions Active -> Revoked. Fails on invites whose
	// expiry has passed; the derived Expired state is absorbing.
	Revoke(ctx context.Context, inviteID uuid.UUID, now time.Time) (bool, error)

	// MarkExpired persists Expired on long-dead Active rows. Hygiene
	// only; expiry is always derived live on reads.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

// PropertyStore provides read access to properties.
type PropertyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

// UserStore provides read access to user accounts.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// LinkStore provides read access to tenant property links.
type LinkStore interface {
	GetActive(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.TenantPropertyLink, error)
}

// RedemptionStore durably commits the outcome of a won claim: the new
// tenant account (when the redeemer signed up during redemption) and
// the tenant property link, atomically. Either both commit or neither
// does, so ReleaseClaim can safely revert the claim on failure.
type RedemptionStore interface {
	CommitRedemption(ctx context.Context, newUser *domain.User, link *domain.TenantPropertyLink) error
}
