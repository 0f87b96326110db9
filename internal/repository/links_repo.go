package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// LinksRepository handles tenant property link persistence.
type LinksRepository struct {
	db *sql.DB
}

// NewLinksRepository creates a new links repository.
func NewLinksRepository(db *sql.DB) *LinksRepository {
	return &LinksRepository{db: db}
}

// Create creates a new link.
func (r *LinksRepository) Create(ctx context.Context, link *domain.TenantPropertyLink) error {
	return r.CreateTx(ctx, r.db, link)
}

// CreateTx creates a new link within a transaction. Returns
// domain.ErrDuplicateLink when the tenant already holds an active link
// to the property (partial unique index on the active pair).
func (r *LinksRepository) CreateTx(ctx context.Context, q Querier, link *domain.TenantPropertyLink) error {
	query := `
		INSERT INTO tenant_property_links (id, tenant_id, property_id, unit_number, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		link.ID, link.TenantID, link.PropertyID, link.UnitNumber, link.IsActive, link.CreatedAt,
	)
	if isUniqueViolation(err, "tenant_property_links_active_pair_idx") {
		return domain.ErrDuplicateLink
	}
	return err
}

// GetActive retrieves the active link for a (tenant, property) pair.
func (r *LinksRepository) GetActive(ctx context.Context, tenantID, propertyID uuid.UUID) (*domain.TenantPropertyLink, error) {
	query := `
		SELECT id, tenant_id, property_id, unit_number, is_active, created_at
		FROM tenant_property_links
		WHERE tenant_id = $1 AND property_id = $2 AND is_active = true
	`
	link := &domain.TenantPropertyLink{}
	err := r.db.QueryRowContext(ctx, query, tenantID, propertyID).Scan(
		&link.ID, &link.TenantID, &link.PropertyID, &link.UnitNumber, &link.IsActive, &link.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// ListActiveByTenant lists a tenant's active links, newest first.
func (r *LinksRepository) ListActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.TenantPropertyLink, error) {
	query := `
		SELECT id, tenant_id, property_id, unit_number, is_active, created_at
		FROM tenant_property_links
		WHERE tenant_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, tenantID)
}

// ListByProperty lists all links for a property, newest first.
func (r *LinksRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.TenantPropertyLink, error) {
	query := `
		SELECT id, tenant_id, property_id, unit_number, is_active, created_at
		FROM tenant_property_links
		WHERE property_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, propertyID)
}

func (r *LinksRepository) list(ctx context.Context, query string, arg any) ([]*domain.TenantPropertyLink, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*domain.TenantPropertyLink
	for rows.Next() {
		link := &domain.TenantPropertyLink{}
		if err := rows.Scan(
			&link.ID, &link.TenantID, &link.PropertyID, &link.UnitNumber, &link.IsActive, &link.CreatedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}
