package invite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// Policy gates who may issue, manage, or read invite data. All
// failures are domain.ErrUnauthorized, distinct from the token
// outcomes, so callers can tell "you can't do this" from "this token
// is bad".
type Policy interface {
	// CanIssueInvite allows the owning landlord to create invites for
	// a property.
	CanIssueInvite(ctx context.Context, userID, propertyID uuid.UUID) error
	// CanManageInvites allows the owning landlord to list and revoke
	// invites for a property.
	CanManageInvites(ctx context.Context, userID, propertyID uuid.UUID) error
	// CanReadPropertyLinks allows the owning landlord to read the
	// links of a property. Tenants read their own links directly.
	CanReadPropertyLinks(ctx context.Context, userID, propertyID uuid.UUID) error
}

// OwnershipPolicy authorizes by property ownership. A missing property
// is reported as Unauthorized rather than NotFound so probing the
// invite API cannot enumerate property identifiers.
type OwnershipPolicy struct {
	properties PropertyStore
}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy(properties PropertyStore) *OwnershipPolicy {
	return &OwnershipPolicy{properties: properties}
}

func (p *OwnershipPolicy) ownerCheck(ctx context.Context, userID, propertyID uuid.UUID) error {
	property, err := p.properties.GetByID(ctx, propertyID)
	if errors.Is(err, domain.ErrPropertyNotFound) {
		return domain.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if property.OwnerID != userID {
		return domain.ErrUnauthorized
	}
	return nil
}

// CanIssueInvite implements Policy.
func (p *OwnershipPolicy) CanIssueInvite(ctx context.Context, userID, propertyID uuid.UUID) error {
	return p.ownerCheck(ctx, userID, propertyID)
}

// CanManageInvites implements Policy.
func (p *OwnershipPolicy) CanManageInvites(ctx context.Context, userID, propertyID uuid.UUID) error {
	return p.ownerCheck(ctx, userID, propertyID)
}

// CanReadPropertyLinks implements Policy.
func (p *OwnershipPolicy) CanReadPropertyLinks(ctx context.Context, userID, propertyID uuid.UUID) error {
	return p.ownerCheck(ctx, userID, propertyID)
}
