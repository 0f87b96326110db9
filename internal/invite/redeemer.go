package invite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/auth"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/pkg/token"
)

// TenantIdentity identifies the redeeming principal. Either UserID is
// set (an authenticated existing account) or the signup fields carry
// the details for an account created as part of redemption. When the
// email already belongs to an account, the password must match it: an
// invite token alone never grants access to someone else's account.
type TenantIdentity struct {
	UserID   *uuid.UUID
	Email    string
	Password string
	Name     string
}

// Redeemer atomically consumes a valid invite and creates the tenant's
// property link, creating the tenant's account first when needed.
// Exactly one of any number of concurrent redemption attempts for a
// token succeeds; the synchronization point is the store's
// compare-and-set claim, never a read-then-write pair.
type Redeemer struct {
	invites     InviteStore
	users       UserStore
	links       LinkStore
	redemptions RedemptionStore
	now         func() time.Time
}

// NewRedeemer creates a new redemption coordinator.
func NewRedeemer(invites InviteStore, users UserStore, links LinkStore, redemptions RedemptionStore) *Redeemer {
	return &Redeemer{
		invites:     invites,
		users:       users,
		links:       links,
		redemptions: redemptions,
		now:         time.Now,
	}
}

// Redeem consumes rawToken and links the tenant to the invite's
// property.
//
// The claim is the sole synchronization point: losing it means some
// other attempt (or a revocation) got there first. A lost claim by the
// original redeemer repeating the call is answered idempotently with
// the already-committed link. A failed post-claim commit releases the
// claim so an unrelated downstream failure never burns the token.
func (s *Redeemer) Redeem(ctx context.Context, rawToken string, propertyHint uuid.UUID, identity TenantIdentity) (*RedemptionResult, error) {
	tokenHash := token.Hash(rawToken)

	invite, err := s.invites.GetByTokenHash(ctx, tokenHash)
	if errors.Is(err, domain.ErrInviteNotFound) {
		return &RedemptionResult{Outcome: OutcomeInvalid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}

	// Fast-fail rejections are side-effect free and never consume the
	// token.
	if outcome, ok := rejectionFor(invite, propertyHint, s.now()); !ok {
		return s.rejectionResult(ctx, invite, identity, outcome)
	}

	claimantID, newUser, outcome, err := s.resolveTenant(ctx, identity)
	if err != nil {
		return nil, err
	}
	if outcome != "" {
		return &RedemptionResult{Outcome: outcome}, nil
	}

	claimed, err := s.invites.Claim(ctx, tokenHash, claimantID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim invite: %w", err)
	}
	if !claimed {
		// Lost the race. Re-read for a precise outcome.
		invite, err = s.invites.GetByTokenHash(ctx, tokenHash)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read invite: %w", err)
		}
		if outcome, ok := rejectionFor(invite, propertyHint, s.now()); !ok {
			return s.rejectionResult(ctx, invite, identity, outcome)
		}
		return &RedemptionResult{Outcome: OutcomeAlreadyUsed}, nil
	}

	link := &domain.TenantPropertyLink{
		ID:         uuid.New(),
		TenantID:   claimantID,
		PropertyID: invite.PropertyID,
		IsActive:   true,
		CreatedAt:  s.now(),
	}

	err = s.redemptions.CommitRedemption(ctx, newUser, link)
	if errors.Is(err, domain.ErrDuplicateLink) {
		// The tenant is already actively linked to this property. The
		// claim stands (this tenant did consume the token); answer with
		// the existing link.
		existing, lookupErr := s.links.GetActive(ctx, claimantID, invite.PropertyID)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to load existing link: %w", lookupErr)
		}
		return &RedemptionResult{Outcome: OutcomeSuccess, LinkID: existing.ID, TenantID: claimantID}, nil
	}
	if err != nil {
		// Compensate: the claim must not survive a commit that never
		// happened. CommitRedemption is transactional, so no link was
		// written.
		released, relErr := s.invites.ReleaseClaim(ctx, invite.ID, claimantID)
		if relErr != nil {
			return nil, errors.Join(
				fmt.Errorf("failed to commit redemption: %w", err),
				fmt.Errorf("failed to release claim: %w", relErr),
			)
		}
		if !released {
			return nil, fmt.Errorf("failed to commit redemption, claim not released: %w", err)
		}
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			// Signup raced a concurrent registration for the same
			// email. The token is back to Active; the caller retries.
			return &RedemptionResult{Outcome: OutcomeAccountCreationFailed}, nil
		}
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}

	return &RedemptionResult{
		Outcome:    OutcomeSuccess,
		LinkID:     link.ID,
		TenantID:   claimantID,
		NewAccount: newUser != nil,
	}, nil
}

// rejectionResult maps a fast-fail outcome, upgrading AlreadyUsed to
// an idempotent Success when the caller is the exact original redeemer
// and the link is committed (a double-click must not error).
func (s *Redeemer) rejectionResult(ctx context.Context, invite *domain.Invite, identity TenantIdentity, outcome Outcome) (*RedemptionResult, error) {
	if outcome == OutcomeAlreadyUsed && invite.Status == domain.InviteStatusRedeemed && invite.RedeemedBy != nil {
		result, ok, err := s.redeemedByCaller(ctx, invite, identity)
		if err != nil {
			return nil, err
		}
		if ok {
			return result, nil
		}
	}
	return &RedemptionResult{Outcome: outcome}, nil
}

func (s *Redeemer) redeemedByCaller(ctx context.Context, invite *domain.Invite, identity TenantIdentity) (*RedemptionResult, bool, error) {
	var callerID uuid.UUID
	switch {
	case identity.UserID != nil:
		callerID = *identity.UserID
	case identity.Email != "":
		user, err := s.users.GetByEmail(ctx, auth.NormalizeEmail(identity.Email))
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if !auth.VerifyPassword(identity.Password, user.PasswordHash) {
			return nil, false, nil
		}
		callerID = user.ID
	default:
		return nil, false, nil
	}

	if callerID != *invite.RedeemedBy {
		return nil, false, nil
	}

	link, err := s.links.GetActive(ctx, callerID, invite.PropertyID)
	if errors.Is(err, domain.ErrLinkNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &RedemptionResult{Outcome: OutcomeSuccess, LinkID: link.ID, TenantID: callerID}, true, nil
}

// resolveTenant maps a TenantIdentity to a claimant user ID. For a
// brand-new signup it returns the unsaved user record; the row is
// committed together with the link only after the claim is won, and
// the claim is stamped with the pre-generated ID.
func (s *Redeemer) resolveTenant(ctx context.Context, identity TenantIdentity) (uuid.UUID, *domain.User, Outcome, error) {
	if identity.UserID != nil {
		user, err := s.users.GetByID(ctx, *identity.UserID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return uuid.Nil, nil, OutcomeUnauthorized, nil
		}
		if err != nil {
			return uuid.Nil, nil, "", fmt.Errorf("failed to resolve tenant: %w", err)
		}
		return user.ID, nil, "", nil
	}

	if identity.Email == "" {
		return uuid.Nil, nil, OutcomeUnauthorized, nil
	}

	existing, err := s.users.GetByEmail(ctx, auth.NormalizeEmail(identity.Email))
	if err == nil {
		if !auth.VerifyPassword(identity.Password, existing.PasswordHash) {
			return uuid.Nil, nil, OutcomeUnauthorized, nil
		}
		return existing.ID, nil, "", nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return uuid.Nil, nil, "", fmt.Errorf("failed to resolve tenant: %w", err)
	}

	newUser, err := auth.NewUser(identity.Email, identity.Password, identity.Name)
	if err != nil {
		// Invalid signup data. Nothing has been claimed; the caller
		// fixes the form and retries with the same token.
		return uuid.Nil, nil, OutcomeAccountCreationFailed, nil
	}
	return newUser.ID, newUser, "", nil
}
