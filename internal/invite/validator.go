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

// Validator performs the read-only, pre-authentication token check
// used by the join page before signup. It never writes and never
// consumes a token.
type Validator struct {
	invites    InviteStore
	properties PropertyStore
	now        func() time.Time
}

// NewValidator creates a new invite validator.
func NewValidator(invites InviteStore, properties PropertyStore) *Validator {
	return &Validator{
		invites:    invites,
		properties: properties,
		now:        time.Now,
	}
}

// Validate checks a raw token against the property hint carried in the
// invite URL. The hint lets the client render a preview before a round
// trip, but the stored binding is authoritative: a tampered hint yields
// PropertyMismatch, never data about the property the token is really
// bound to. On Valid the result carries only the bound property's name
// and address.
func (s *Validator) Validate(ctx context.Context, rawToken string, propertyHint uuid.UUID) (*ValidationResult, error) {
	invite, err := s.invites.GetByTokenHash(ctx, token.Hash(rawToken))
	if errors.Is(err, domain.ErrInviteNotFound) {
		return &ValidationResult{Outcome: OutcomeInvalid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}

	if outcome, ok := rejectionFor(invite, propertyHint, s.now()); !ok {
		return &ValidationResult{Outcome: outcome}, nil
	}

	property, err := s.properties.GetByID(ctx, invite.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property preview: %w", err)
	}

	return &ValidationResult{
		Outcome:         OutcomeValid,
		PropertyName:    property.Name,
		PropertyAddress: property.Address,
	}, nil
}

// rejectionFor applies the shared fast-fail checks used by both
// validation and redemption. Returns (outcome, false) when the invite
// must be rejected, (_, true) when it is redeemable.
// The mismatch check comes first: a caller probing with a tampered
// property hint learns nothing about the invite's real state, only
// that the combination is no good.
func rejectionFor(invite *domain.Invite, propertyHint uuid.UUID, now time.Time) (Outcome, bool) {
	if invite.PropertyID != propertyHint {
		return OutcomePropertyMismatch, false
	}
	switch invite.EffectiveStatus(now) {
	case domain.InviteStatusExpired:
		return OutcomeExpired, false
	case domain.InviteStatusRedeemed, domain.InviteStatusRevoked:
		return OutcomeAlreadyUsed, false
	}
	return "", true
}
