package repository

import (
	"context"
	"database/sql"

	"github.com/openlease/openlease/internal/domain"
)

// RedemptionsRepository commits the durable outcome of a won invite
// claim: the optional new tenant account and the tenant property link,
// in one transaction. Either both rows land or neither does, which is
// what lets the coordinator safely release the claim on failure.
type RedemptionsRepository struct {
	db    *sql.DB
	users *UsersRepository
	links *LinksRepository
}

// NewRedemptionsRepository creates a new redemptions repository.
func NewRedemptionsRepository(db *sql.DB, users *UsersRepository, links *LinksRepository) *RedemptionsRepository {
	return &RedemptionsRepository{db: db, users: users, links: links}
}

// CommitRedemption writes newUser (when non-nil) and link atomically.
func (r *RedemptionsRepository) CommitRedemption(ctx context.Context, newUser *domain.User, link *domain.TenantPropertyLink) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if newUser != nil {
			if err := r.users.CreateTx(ctx, tx, newUser); err != nil {
				return err
			}
		}
		return r.links.CreateTx(ctx, tx, link)
	})
}
