package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
)

// PropertiesRepository handles property persistence.
type PropertiesRepository struct {
	db *sql.DB
}

// NewPropertiesRepository creates a new properties repository.
func NewPropertiesRepository(db *sql.DB) *PropertiesRepository {
	return &PropertiesRepository{db: db}
}

// Create creates a new property.
func (r *PropertiesRepository) Create(ctx context.Context, property *domain.Property) error {
	query := `
		INSERT INTO properties (id, owner_id, name, address, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		property.ID, property.OwnerID, property.Name, property.Address, property.CreatedAt,
	)
	return err
}

// GetByID retrieves a property by ID.
func (r *PropertiesRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	query := `
		SELECT id, owner_id, name, address, created_at
		FROM properties
		WHERE id = $1
	`
	property := &domain.Property{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&property.ID, &property.OwnerID, &property.Name, &property.Address, &property.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return property, nil
}

// ListByOwner lists all properties owned by a landlord.
func (r *PropertiesRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Property, error) {
	query := `
		SELECT id, owner_id, name, address, created_at
		FROM properties
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*domain.Property
	for rows.Next() {
		property := &domain.Property{}
		if err := rows.Scan(
			&property.ID, &property.OwnerID, &property.Name, &property.Address, &property.CreatedAt,
		); err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}
	return properties, rows.Err()
}
