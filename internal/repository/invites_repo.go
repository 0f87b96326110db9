package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// InvitesRepository handles invite persistence. Invites are never
// deleted; terminal rows are retained for audit.
type InvitesRepository struct {
	db *sql.DB
}

// NewInvitesRepository creates a new invites repository.
func NewInvitesRepository(db *sql.DB) *InvitesRepository {
	return &InvitesRepository{db: db}
}

// Create inserts a new invite. Returns domain.ErrDuplicateToken when
// the token hash collides with an existing row.
func (r *InvitesRepository) Create(ctx context.Context, invite *domain.Invite) error {
	query := `
		INSERT INTO invites (id, token_hash, property_id, issuer_id, intended_email,
		                     delivery_method, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		invite.ID, invite.TokenHash, invite.PropertyID, invite.IssuerID,
		invite.IntendedEmail, invite.DeliveryMethod, invite.Status,
		invite.CreatedAt, invite.ExpiresAt,
	)
	if isUniqueViolation(err, "invites_token_hash_key") {
		return domain.ErrDuplicateToken
	}
	return err
}

const inviteColumns = `
	id, token_hash, property_id, issuer_id, intended_email,
	delivery_method, status, created_at, expires_at, redeemed_at, redeemed_by
`

func scanInvite(row interface{ Scan(...any) error }) (*domain.Invite, error) {
	invite := &domain.Invite{}
	err := row.Scan(
		&invite.ID, &invite.TokenHash, &invite.PropertyID, &invite.IssuerID,
		&invite.IntendedEmail, &invite.DeliveryMethod, &invite.Status,
		&invite.CreatedAt, &invite.ExpiresAt, &invite.RedeemedAt, &invite.RedeemedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// GetByTokenHash retrieves an invite by its token hash.
func (r *InvitesRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE token_hash = $1`
	return scanInvite(r.db.QueryRowContext(ctx, query, tokenHash))
}

// GetByID retrieves an invite by ID.
func (r *InvitesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE id = $1`
	return scanInvite(r.db.QueryRowContext(ctx, query, id))
}

// ListByProperty lists all invites bound to a property, newest first.
func (r *InvitesRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE property_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// Claim atomically transitions an invite from Active to Redeemed,
// stamping redeemed_at and redeemed_by. The WHERE clause on the
// pre-image status and live expiry makes this a single compare-and-set:
// of any number of concurrent claims for one token, at most one
// observes success. Returns false when the row was not claimable.
func (r *InvitesRepository) Claim(ctx context.Context, tokenHash string, tenantID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE invites
		SET status = $1, redeemed_at = $2, redeemed_by = $3
		WHERE token_hash = $4 AND status = $5 AND expires_at > $2
	`
	result, err := r.db.ExecContext(ctx, query,
		domain.InviteStatusRedeemed, now, tenantID, tokenHash, domain.InviteStatusActive,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// ReleaseClaim reverts a claimed invite to Active so a downstream
// failure does not permanently burn the token. The WHERE clause on
// status and redeemed_by confines the compensation to the exact claim
// being rolled back. Returns false if nothing was released.
func (r *InvitesRepository) ReleaseClaim(ctx context.Context, inviteID, tenantID uuid.UUID) (bool, error) {
	query := `
		UPDATE invites
		SET status = $1, redeemed_at = NULL, redeemed_by = NULL
		WHERE id = $2 AND status = $3 AND redeemed_by = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		domain.InviteStatusActive, inviteID, domain.InviteStatusRedeemed, tenantID,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Revoke transitions an invite from Active to Revoked. Returns false
// when the invite was already in a terminal state, including the
// derived Expired state: an invite past its expiry may not be revoked.
func (r *InvitesRepository) Revoke(ctx context.Context, inviteID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE invites
		SET status = $1
		WHERE id = $2 AND status = $3 AND expires_at > $4
	`
	result, err := r.db.ExecContext(ctx, query,
		domain.InviteStatusRevoked, inviteID, domain.InviteStatusActive, now,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// MarkExpired persists the Expired status on Active invites whose
// expiry has passed. Storage hygiene only: expiry is always derived
// live on reads, so correctness never depends on this running.
func (r *InvitesRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE invites
		SET status = $1
		WHERE status = $2 AND expires_at <= $3
	`
	result, err := r.db.ExecContext(ctx, query,
		domain.InviteStatusExpired, domain.InviteStatusActive, now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
