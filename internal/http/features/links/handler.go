package links

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/internal/http/middleware"
	"github.com/openlease/openlease/internal/httputil"
)

// LinkStore is the persistence surface the handler needs.
type LinkStore interface {
	ListActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*domain.TenantPropertyLink, error)
}

// PropertyStore resolves link rows to displayable properties.
type PropertyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

// Handler serves a tenant's own property links. Tenants see only their
// rows; there is no cross-tenant listing on this surface.
type Handler struct {
	logger     *slog.Logger
	links      LinkStore
	properties PropertyStore
}

// NewHandler creates a new links handler.
func NewHandler(logger *slog.Logger, links LinkStore, properties PropertyStore) *Handler {
	return &Handler{logger: logger, links: links, properties: properties}
}

// LinkResponse is the tenant's view of a property link.
type LinkResponse struct {
	ID              string    `json:"id"`
	PropertyID      string    `json:"property_id"`
	PropertyName    string    `json:"property_name"`
	PropertyAddress string    `json:"property_address"`
	UnitNumber      *string   `json:"unit_number,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// List handles listing the caller's active links.
// GET /v1/me/links
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.links.ListActiveByTenant(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list links", "error", err, "tenant_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to list links")
		return
	}

	out := make([]LinkResponse, 0, len(list))
	for _, link := range list {
		resp := LinkResponse{
			ID:         link.ID.String(),
			PropertyID: link.PropertyID.String(),
			UnitNumber: link.UnitNumber,
			CreatedAt:  link.CreatedAt,
		}
		property, err := h.properties.GetByID(r.Context(), link.PropertyID)
		if err != nil {
			h.logger.Error("failed to load linked property", "error", err, "property_id", link.PropertyID)
		} else {
			resp.PropertyName = property.Name
			resp.PropertyAddress = property.Address
		}
		out = append(out, resp)
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"links": out})
}
