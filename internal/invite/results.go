package invite

import (
	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// Outcome classifies the user-facing result of a validate, redeem, or
// revoke call. These are expected results, not errors: only
// infrastructure failures travel as Go errors.
type Outcome string

const (
	OutcomeSuccess               Outcome = "success"
	OutcomeValid                 Outcome = "valid"
	OutcomeInvalid               Outcome = "invalid"
	OutcomeExpired               Outcome = "expired"
	OutcomeAlreadyUsed           Outcome = "already_used"
	OutcomePropertyMismatch      Outcome = "property_mismatch"
	OutcomeNotFound              Outcome = "not_found"
	OutcomeUnauthorized          Outcome = "unauthorized"
	OutcomeAccountCreationFailed Outcome = "account_creation_failed"
)

// IssuedInvite is returned from Issue. Token carries the raw invite
// token; this is the only time it is ever exposed.
type IssuedInvite struct {
	Invite *domain.Invite
	Token  string
}

// ValidationResult is the outcome of a pre-authentication token check.
// The property preview is populated only for OutcomeValid and is the
// full extent of what an unauthenticated caller may learn.
type ValidationResult struct {
	Outcome         Outcome
	PropertyName    string
	PropertyAddress string
}

// RedemptionResult is the outcome of a redemption attempt.
type RedemptionResult struct {
	Outcome  Outcome
	LinkID   uuid.UUID
	TenantID uuid.UUID
	// NewAccount is true when the redemption created the tenant's
	// account, so the caller can issue a session for it.
	NewAccount bool
}

// RevocationResult is the outcome of a revoke attempt.
type RevocationResult struct {
	Outcome Outcome
}
