package invite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/auth"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/internal/memstore"
)

// fakeClock lets tests move time past invite expiry deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store     *memstore.Store
	clock     *fakeClock
	issuer    *Issuer
	validator *Validator
	redeemer  *Redeemer
	landlord  *domain.User
	property  *domain.Property
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	clock := newFakeClock()

	landlord := newTestUser(t, "landlord@example.com")
	if err := store.Users().Create(ctx, landlord); err != nil {
		t.Fatalf("failed to create landlord: %v", err)
	}

	property := &domain.Property{
		ID:        uuid.New(),
		OwnerID:   landlord.ID,
		Name:      "Maple Court",
		Address:   "12 Maple St",
		CreatedAt: clock.Now(),
	}
	if err := store.Properties().Create(ctx, property); err != nil {
		t.Fatalf("failed to create property: %v", err)
	}

	policy := NewOwnershipPolicy(store.Properties())

	issuer := NewIssuer(store.Invites(), policy, 0)
	issuer.now = clock.Now
	validator := NewValidator(store.Invites(), store.Properties())
	validator.now = clock.Now
	redeemer := NewRedeemer(store.Invites(), store.Users(), store.Links(), store)
	redeemer.now = clock.Now

	return &testEnv{
		store:     store,
		clock:     clock,
		issuer:    issuer,
		validator: validator,
		redeemer:  redeemer,
		landlord:  landlord,
		property:  property,
	}
}

func newTestUser(t *testing.T, email string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func (e *testEnv) addUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := newTestUser(t, email)
	if err := e.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (e *testEnv) issue(t *testing.T) *IssuedInvite {
	t.Helper()
	issued, err := e.issuer.Issue(context.Background(), e.property.ID, e.landlord.ID, IssueOpts{})
	if err != nil {
		t.Fatalf("failed to issue invite: %v", err)
	}
	return issued
}

func (e *testEnv) inviteState(t *testing.T, id uuid.UUID) *domain.Invite {
	t.Helper()
	invite, err := e.store.Invites().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load invite: %v", err)
	}
	return invite
}

func redeemAsNewTenant(t *testing.T, e *testEnv, rawToken, email string) *RedemptionResult {
	t.Helper()
	result, err := e.redeemer.Redeem(context.Background(), rawToken, e.property.ID, TenantIdentity{
		Email:    email,
		Password: "correct-horse-battery",
		Name:     "New Tenant",
	})
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("expected redemption success, got %q", result.Outcome)
	}
	return result
}

func (e *testEnv) linkCount(t *testing.T, propertyID uuid.UUID) int {
	t.Helper()
	list, err := e.store.Links().ListByProperty(context.Background(), propertyID)
	if err != nil {
		t.Fatalf("failed to list links: %v", err)
	}
	return len(list)
}
