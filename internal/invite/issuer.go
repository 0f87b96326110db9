package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/pkg/token"
)

// DefaultTTL is the validity window applied when IssueOpts.TTL is zero.
const DefaultTTL = 7 * 24 * time.Hour

// tokenCreateAttempts bounds retries when a generated token collides
// with an existing row. A collision is a storage-layer uniqueness
// violation, not a logic error; with 256-bit tokens two in a row means
// something is badly wrong with the environment.
const tokenCreateAttempts = 3

// IssueOpts holds options for invite issuance.
type IssueOpts struct {
	DeliveryMethod domain.DeliveryMethod
	IntendedEmail  *string
	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
}

// Issuer creates invites bound to a property on behalf of its landlord.
type Issuer struct {
	invites    InviteStore
	policy     Policy
	defaultTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates a new invite issuer. defaultTTL applies when an
// issuance request carries no TTL; zero falls back to DefaultTTL.
func NewIssuer(invites InviteStore, policy Policy, defaultTTL time.Duration) *Issuer {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Issuer{
		invites:    invites,
		policy:     policy,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Issue creates a new Active invite for propertyID owned by issuerID.
// Returns domain.ErrUnauthorized when the issuer does not own the
// property. The raw token in the result is exposed here and never
// again; only its hash is stored.
func (s *Issuer) Issue(ctx context.Context, propertyID, issuerID uuid.UUID, opts IssueOpts) (*IssuedInvite, error) {
	if err := s.policy.CanIssueInvite(ctx, issuerID, propertyID); err != nil {
		return nil, err
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	deliveryMethod := opts.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = domain.DeliveryLink
	}

	var lastErr error
	for attempt := 0; attempt < tokenCreateAttempts; attempt++ {
		rawToken, err := token.Generate()
		if err != nil {
			return nil, err
		}

		now := s.now()
		invite := &domain.Invite{
			ID:             uuid.New(),
			TokenHash:      token.Hash(rawToken),
			PropertyID:     propertyID,
			IssuerID:       issuerID,
			IntendedEmail:  opts.IntendedEmail,
			DeliveryMethod: deliveryMethod,
			Status:         domain.InviteStatusActive,
			CreatedAt:      now,
			ExpiresAt:      now.Add(ttl),
		}

		err = s.invites.Create(ctx, invite)
		if errors.Is(err, domain.ErrDuplicateToken) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create invite: %w", err)
		}
		return &IssuedInvite{Invite: invite, Token: rawToken}, nil
	}

	return nil, fmt.Errorf("failed to create invite after %d attempts: %w", tokenCreateAttempts, lastErr)
}

// List returns all invites for a property. Only the owning landlord
// may list; raw tokens are not part of the records.
func (s *Issuer) List(ctx context.Context, propertyID, callerID uuid.UUID) ([]*domain.Invite, error) {
	if err := s.policy.CanManageInvites(ctx, callerID, propertyID); err != nil {
		return nil, err
	}
	return s.invites.ListByProperty(ctx, propertyID)
}

// Revoke transitions an invite from Active to Revoked on behalf of the
// issuing landlord, identified by the raw token.
func (s *Issuer) Revoke(ctx context.Context, rawToken string, callerID uuid.UUID) (*RevocationResult, error) {
	invite, err := s.invites.GetByTokenHash(ctx, token.Hash(rawToken))
	if errors.Is(err, domain.ErrInviteNotFound) {
		return &RevocationResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.revoke(ctx, invite, callerID)
}

// RevokeByID revokes an invite by its identifier. Backs the landlord
// dashboard, where listed invites carry IDs but never raw tokens.
func (s *Issuer) RevokeByID(ctx context.Context, inviteID, callerID uuid.UUID) (*RevocationResult, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if errors.Is(err, domain.ErrInviteNotFound) {
		return &RevocationResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.revoke(ctx, invite, callerID)
}

func (s *Issuer) revoke(ctx context.Context, invite *domain.Invite, callerID uuid.UUID) (*RevocationResult, error) {
	if err := s.policy.CanManageInvites(ctx, callerID, invite.PropertyID); err != nil {
		return nil, err
	}

	ok, err := s.invites.Revoke(ctx, invite.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Already terminal. An expired invite cannot be revoked either;
		// both read as consumed from the landlord's side.
		return &RevocationResult{Outcome: OutcomeAlreadyUsed}, nil
	}
	return &RevocationResult{Outcome: OutcomeSuccess}, nil
}
