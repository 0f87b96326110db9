package invite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

func TestRedeem_NewAccount(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)

	result := redeemAsNewTenant(t, env, issued.Token, "tenant@example.com")

	if !result.NewAccount {
		t.Error("expected NewAccount for a fresh signup")
	}
	if result.LinkID == uuid.Nil {
		t.Error("expected a link ID")
	}

	user, err := env.store.Users().GetByEmail(context.Background(), "tenant@example.com")
	if err != nil {
		t.Fatalf("expected tenant account to exist: %v", err)
	}
	if result.TenantID != user.ID {
		t.Errorf("result tenant %v does not match created account %v", result.TenantID, user.ID)
	}

	invite := env.inviteState(t, issued.Invite.ID)
	if invite.Status != domain.InviteStatusRedeemed {
		t.Errorf("expected status %q, got %q", domain.InviteStatusRedeemed, invite.Status)
	}
	if invite.RedeemedBy == nil || *invite.RedeemedBy != user.ID {
		t.Error("invite must record the redeeming tenant")
	}
	if invite.RedeemedAt == nil {
		t.Error("invite must record the redemption time")
	}
	if got := env.linkCount(t, env.property.ID); got != 1 {
		t.Errorf("expected exactly 1 link, got %d", got)
	}
}

func TestRedeem_ExistingAccountByID(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	tenant := env.addUser(t, "tenant@example.com")

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected %q, got %q", OutcomeSuccess, result.Outcome)
	}
	if result.NewAccount {
		t.Error("expected NewAccount false for an existing account")
	}
	if result.TenantID != tenant.ID {
		t.Errorf("expected tenant %v, got %v", tenant.ID, result.TenantID)
	}
}

func TestRedeem_ExistingAccountByEmail(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	tenant := env.addUser(t, "tenant@example.com")

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    tenant.Email,
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected %q, got %q", OutcomeSuccess, result.Outcome)
	}
	if result.TenantID != tenant.ID {
		t.Errorf("expected existing tenant %v, got %v", tenant.ID, result.TenantID)
	}
}

// An invite token never substitutes for the account's password.
func TestRedeem_ExistingEmailWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	tenant := env.addUser(t, "tenant@example.com")

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    tenant.Email,
		Password: "not-the-password",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeUnauthorized {
		t.Fatalf("expected %q, got %q", OutcomeUnauthorized, result.Outcome)
	}
	if got := env.inviteState(t, issued.Invite.ID).Status; got != domain.InviteStatusActive {
		t.Errorf("invite must stay active after rejected identity, got %q", got)
	}
	if got := env.linkCount(t, env.property.ID); got != 0 {
		t.Errorf("expected no links, got %d", got)
	}
}

func TestRedeem_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.redeemer.Redeem(context.Background(), "no-such-token", env.property.ID, TenantIdentity{
		Email:    "tenant@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeInvalid {
		t.Fatalf("expected %q, got %q", OutcomeInvalid, result.Outcome)
	}
}

func TestRedeem_Expired(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	env.clock.Advance(DefaultTTL + time.Hour)

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    "tenant@example.com",
		Password: "correct-horse-battery",
		Name:     "Late Tenant",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeExpired {
		t.Fatalf("expected %q, got %q", OutcomeExpired, result.Outcome)
	}
	if got := env.linkCount(t, env.property.ID); got != 0 {
		t.Errorf("expected no links for expired token, got %d", got)
	}
	// No account side effects either.
	if _, err := env.store.Users().GetByEmail(context.Background(), "tenant@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Error("expired redemption must not create an account")
	}
}

func TestRedeem_Revoked(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	if _, err := env.issuer.Revoke(context.Background(), issued.Token, env.landlord.ID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    "tenant@example.com",
		Password: "correct-horse-battery",
		Name:     "Tenant",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeAlreadyUsed {
		t.Fatalf("expected %q, got %q", OutcomeAlreadyUsed, result.Outcome)
	}
}

// Redeeming against the wrong property must reject without consuming
// the token, whatever the invite's state.
func TestRedeem_WrongPropertyNeverTransitions(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)

	for i := 0; i < 3; i++ {
		result, err := env.redeemer.Redeem(context.Background(), issued.Token, uuid.New(), TenantIdentity{
			Email:    "tenant@example.com",
			Password: "correct-horse-battery",
			Name:     "Tenant",
		})
		if err != nil {
			t.Fatalf("redeem failed: %v", err)
		}
		if result.Outcome != OutcomePropertyMismatch {
			t.Fatalf("expected %q, got %q", OutcomePropertyMismatch, result.Outcome)
		}
	}

	if got := env.inviteState(t, issued.Invite.ID).Status; got != domain.InviteStatusActive {
		t.Fatalf("invite must stay active after mismatched attempts, got %q", got)
	}

	// The token still works at its real property.
	redeemAsNewTenant(t, env, issued.Token, "tenant@example.com")
}

func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)

	const attempts = 16
	tenants := make([]*domain.User, attempts)
	for i := range tenants {
		tenants[i] = env.addUser(t, fmt.Sprintf("tenant%d@example.com", i))
	}

	results := make([]*RedemptionResult, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &tenants[i].ID})
		}(i)
	}
	wg.Wait()

	var successes, alreadyUsed int
	var winner uuid.UUID
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("attempt %d errored: %v", i, errs[i])
		}
		switch results[i].Outcome {
		case OutcomeSuccess:
			successes++
			winner = results[i].TenantID
		case OutcomeAlreadyUsed:
			alreadyUsed++
		default:
			t.Fatalf("attempt %d: unexpected outcome %q", i, results[i].Outcome)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly 1 success, got %d", successes)
	}
	if alreadyUsed != attempts-1 {
		t.Fatalf("expected %d already-used, got %d", attempts-1, alreadyUsed)
	}
	if got := env.linkCount(t, env.property.ID); got != 1 {
		t.Fatalf("expected exactly 1 link, got %d", got)
	}

	invite := env.inviteState(t, issued.Invite.ID)
	if invite.RedeemedBy == nil || *invite.RedeemedBy != winner {
		t.Error("invite must record the winning tenant")
	}
}

// A double submit by the winning tenant answers with the committed
// link, not an error.
func TestRedeem_DoubleSubmitIdempotent(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	tenant := env.addUser(t, "tenant@example.com")

	first, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if first.Outcome != OutcomeSuccess {
		t.Fatalf("expected %q, got %q", OutcomeSuccess, first.Outcome)
	}

	second, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err != nil {
		t.Fatalf("second redeem failed: %v", err)
	}
	if second.Outcome != OutcomeSuccess {
		t.Fatalf("expected idempotent %q, got %q", OutcomeSuccess, second.Outcome)
	}
	if second.LinkID != first.LinkID {
		t.Errorf("expected the same link %v, got %v", first.LinkID, second.LinkID)
	}
	if got := env.linkCount(t, env.property.ID); got != 1 {
		t.Errorf("expected exactly 1 link, got %d", got)
	}
}

// The idempotent answer is only for the exact original redeemer;
// email identification requires the matching password.
func TestRedeem_DoubleSubmitRequiresSameIdentity(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	redeemAsNewTenant(t, env, issued.Token, "tenant@example.com")

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    "tenant@example.com",
		Password: "wrong-password",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeAlreadyUsed {
		t.Fatalf("expected %q for wrong password, got %q", OutcomeAlreadyUsed, result.Outcome)
	}
}

func TestRedeem_SecondTenantAfterSuccess(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	redeemAsNewTenant(t, env, issued.Token, "first@example.com")
	second := env.addUser(t, "second@example.com")

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &second.ID})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeAlreadyUsed {
		t.Fatalf("expected %q, got %q", OutcomeAlreadyUsed, result.Outcome)
	}

	if _, err := env.store.Links().GetActive(context.Background(), second.ID, env.property.ID); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Error("second tenant must not gain a link")
	}
	if got := env.linkCount(t, env.property.ID); got != 1 {
		t.Errorf("expected exactly 1 link, got %d", got)
	}
}

// A commit failure after winning the claim releases it, so the token
// survives an unrelated storage failure.
func TestRedeem_CommitFailureReleasesClaim(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)
	tenant := env.addUser(t, "tenant@example.com")

	env.store.FailCommits = errors.New("storage down")
	_, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err == nil {
		t.Fatal("expected an error from the failed commit")
	}

	invite := env.inviteState(t, issued.Invite.ID)
	if invite.Status != domain.InviteStatusActive {
		t.Fatalf("claim must be released on commit failure, got status %q", invite.Status)
	}
	if invite.RedeemedBy != nil || invite.RedeemedAt != nil {
		t.Error("released invite must carry no redemption stamp")
	}
	if got := env.linkCount(t, env.property.ID); got != 0 {
		t.Errorf("expected no links, got %d", got)
	}

	// The token is not burned: a retry succeeds.
	env.store.FailCommits = nil
	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected %q on retry, got %q", OutcomeSuccess, result.Outcome)
	}
}

// A signup that races a concurrent registration for the same email
// releases the claim and reports the account failure.
func TestRedeem_SignupRaceReleasesClaim(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)

	env.store.FailCommits = domain.ErrUserAlreadyExists
	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    "tenant@example.com",
		Password: "correct-horse-battery",
		Name:     "Tenant",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeAccountCreationFailed {
		t.Fatalf("expected %q, got %q", OutcomeAccountCreationFailed, result.Outcome)
	}
	if got := env.inviteState(t, issued.Invite.ID).Status; got != domain.InviteStatusActive {
		t.Fatalf("invite must be active again, got %q", got)
	}
}

// Invalid signup data fails before the claim; nothing transitions.
func TestRedeem_InvalidSignupData(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{
		Email:    "not-an-email",
		Password: "correct-horse-battery",
		Name:     "Tenant",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeAccountCreationFailed {
		t.Fatalf("expected %q, got %q", OutcomeAccountCreationFailed, result.Outcome)
	}
	if got := env.inviteState(t, issued.Invite.ID).Status; got != domain.InviteStatusActive {
		t.Fatalf("invite must stay active, got %q", got)
	}
}

// An already-linked tenant consuming a fresh token: the claim stands
// and the existing link is returned.
func TestRedeem_AlreadyLinkedTenant(t *testing.T) {
	env := newTestEnv(t)
	first := env.issue(t)
	tenant := env.addUser(t, "tenant@example.com")

	initial, err := env.redeemer.Redeem(context.Background(), first.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err != nil {
		t.Fatalf("initial redeem failed: %v", err)
	}

	second := env.issue(t)
	result, err := env.redeemer.Redeem(context.Background(), second.Token, env.property.ID, TenantIdentity{UserID: &tenant.ID})
	if err != nil {
		t.Fatalf("second redeem failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected %q, got %q", OutcomeSuccess, result.Outcome)
	}
	if result.LinkID != initial.LinkID {
		t.Errorf("expected the existing link %v, got %v", initial.LinkID, result.LinkID)
	}
	if got := env.inviteState(t, second.Invite.ID).Status; got != domain.InviteStatusRedeemed {
		t.Errorf("second token must be consumed, got %q", got)
	}
	if got := env.linkCount(t, env.property.ID); got != 1 {
		t.Errorf("expected exactly 1 link, got %d", got)
	}
}

func TestRedeem_MissingIdentity(t *testing.T) {
	env := newTestEnv(t)
	issued := env.issue(t)

	result, err := env.redeemer.Redeem(context.Background(), issued.Token, env.property.ID, TenantIdentity{})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeUnauthorized {
		t.Fatalf("expected %q, got %q", OutcomeUnauthorized, result.Outcome)
	}
}
