// Package memstore is an in-memory implementation of the persistence
// interfaces, with the same compare-and-set claim semantics as the
// Postgres repositories. It backs unit tests (the redemption race
// tests in particular) and local development without a database.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// Store holds all records behind one mutex so multi-row operations
// (CommitRedemption) are atomic, matching the SQL transaction.
type Store struct {
	mu            sync.Mutex
	invites       map[uuid.UUID]*domain.Invite
	invitesByHash map[string]uuid.UUID
	users         map[uuid.UUID]*domain.User
	usersByEmail  map[string]uuid.UUID
	properties    map[uuid.UUID]*domain.Property
	links         map[uuid.UUID]*domain.TenantPropertyLink

	// FailCommits forces CommitRedemption to fail with the given
	// error, for exercising the compensation path.
	FailCommits error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		invites:       make(map[uuid.UUID]*domain.Invite),
		invitesByHash: make(map[string]uuid.UUID),
		users:         make(map[uuid.UUID]*domain.User),
		usersByEmail:  make(map[string]uuid.UUID),
		properties:    make(map[uuid.UUID]*domain.Property),
		links:         make(map[uuid.UUID]*domain.TenantPropertyLink),
	}
}

// Invites returns the invite store view.
func (s *Store) Invites() *Invites { return &Invites{s: s} }

// Users returns the user store view.
func (s *Store) Users() *Users { return &Users{s: s} }

// Properties returns the property store view.
func (s *Store) Properties() *Properties { return &Properties{s: s} }

// Links returns the link store view.
func (s *Store) Links() *Links { return &Links{s: s} }

// Invites implements the invite store over the shared state.
type Invites struct{ s *Store }

func copyInvite(i *domain.Invite) *domain.Invite {
	c := *i
	return &c
}

func (v *Invites) Create(ctx context.Context, invite *domain.Invite) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, exists := v.s.invitesByHash[invite.TokenHash]; exists {
		return domain.ErrDuplicateToken
	}
	v.s.invites[invite.ID] = copyInvite(invite)
	v.s.invitesByHash[invite.TokenHash] = invite.ID
	return nil
}

func (v *Invites) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.invitesByHash[tokenHash]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return copyInvite(v.s.invites[id]), nil
}

func (v *Invites) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	invite, ok := v.s.invites[id]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return copyInvite(invite), nil
}

func (v *Invites) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.Invite, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*domain.Invite
	for _, invite := range v.s.invites {
		if invite.PropertyID == propertyID {
			out = append(out, copyInvite(invite))
		}
	}
	return out, nil
}

// Claim mirrors the SQL conditional UPDATE: the status check and the
// transition happen under one lock, so concurrent claims for a token
// serialize down to exactly one winner.
func (v *Invites) Claim(ctx context.Context, tokenHash string, tenantID uuid.UUID, now time.Time) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.invitesByHash[tokenHash]
	if !ok {
		return false, nil
	}
	invite := v.s.invites[id]
	if invite.Status != domain.InviteStatusActive || !now.Before(invite.ExpiresAt) {
		return false, nil
	}
	redeemedAt := now
	invite.Status = domain.InviteStatusRedeemed
	invite.RedeemedAt = &redeemedAt
	invite.RedeemedBy = &tenantID
	return true, nil
}

func (v *Invites) ReleaseClaim(ctx context.Context, inviteID, tenantID uuid.UUID) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	invite, ok := v.s.invites[inviteID]
	if !ok || invite.Status != domain.InviteStatusRedeemed {
		return false, nil
	}
	if invite.RedeemedBy == nil || *invite.RedeemedBy != tenantID {
		return false, nil
	}
	invite.Status = domain.InviteStatusActive
	invite.RedeemedAt = nil
	invite.RedeemedBy = nil
	return true, nil
}

func (v *Invites) Revoke(ctx context.Context, inviteID uuid.UUID, now time.Time) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	invite, ok := v.s.invites[inviteID]
	if !ok || invite.Status != domain.InviteStatusActive || !now.Before(invite.ExpiresAt) {
		return false, nil
	}
	invite.Status = domain.InviteStatusRevoked
	return true, nil
}

func (v *Invites) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for _, invite := range v.s.invites {
		if invite.Status == domain.InviteStatusActive && !now.Before(invite.ExpiresAt) {
			invite.Status = domain.InviteStatusExpired
			n++
		}
	}
	return n, nil
}

// Users implements the user store over the shared state.
type Users struct{ s *Store }

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (v *Users) Create(ctx context.Context, user *domain.User) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.createUserLocked(user)
}

func (s *Store) createUserLocked(user *domain.User) error {
	if _, exists := s.usersByEmail[user.Email]; exists {
		return domain.ErrUserAlreadyExists
	}
	s.users[user.ID] = copyUser(user)
	s.usersByEmail[user.Email] = user.ID
	return nil
}

func (v *Users) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	user, ok := v.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (v *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.usersByEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(v.s.users[id]), nil
}

func (v *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	_, ok := v.s.usersByEmail[email]
	return ok, nil
}

// Properties implements the property store over the shared state.
type Properties struct{ s *Store }

func copyProperty(p *domain.Property) *domain.Property {
	c := *p
	return &c
}

func (v *Properties) Create(ctx context.Context, property *domain.Property) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.properties[property.ID] = copyProperty(property)
	return nil
}

func (v *Properties) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	property, ok := v.s.properties[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	return copyProperty(property), nil
}

func (v *Properties) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Property, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*domain.Property
	for _, property := range v.s.properties {
		if property.OwnerID == ownerID {
			out = append(out, copyProperty(property))
		}
	}
	return out, nil
}

// Links implements the link store over the shared state.
type Links struct{ s *Store }

func copyLink(l *domain.TenantPropertyLink) *domain.TenantPropertyLink {
	c := *l
	return &c
}

func (v *Links) Create(ctx context.Context, link *domain.TenantPropertyLink) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.createLinkLocked(link)
}

func (s *Store) createLinkLocked(link *domain.TenantPropertyLink) error {
	if link.IsActive {
		for _, existing := range s.links {
			if existing.IsActive && existing.TenantID == link.TenantID && existing.PropertyID == link.PropertyID {
				return domain.ErrDuplicateLink
			}
		}
	}
	s.links[link.ID] = copyLink(link)
	return nil
}

func (v *Links) GetActive(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.TenantPropertyLink, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, link := range v.s.links {
		if link.IsActive && link.TenantID == tenantID && link.PropertyID == propertyID {
			return copyLink(link), nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (v *Links) ListActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.TenantPropertyLink, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*domain.TenantPropertyLink
	for _, link := range v.s.links {
		if link.IsActive && link.TenantID == tenantID {
			out = append(out, copyLink(link))
		}
	}
	return out, nil
}

func (v *Links) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.TenantPropertyLink, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*domain.TenantPropertyLink
	for _, link := range v.s.links {
		if link.PropertyID == propertyID {
			out = append(out, copyLink(link))
		}
	}
	return out, nil
}

// CommitRedemption writes the optional new user and the link under one
// lock, all or nothing, matching the SQL transaction.
func (s *Store) CommitRedemption(ctx context.Context, newUser *domain.User, link *domain.TenantPropertyLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCommits != nil {
		return s.FailCommits
	}
	if newUser != nil {
		if err := s.createUserLocked(newUser); err != nil {
			return err
		}
	}
	if err := s.createLinkLocked(link); err != nil {
		if newUser != nil {
			delete(s.users, newUser.ID)
			delete(s.usersByEmail, newUser.Email)
		}
		return err
	}
	return nil
}
