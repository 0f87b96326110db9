package properties

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/internal/http/middleware"
	"github.com/openlease/openlease/internal/httputil"
)

// PropertyStore is the persistence surface the handler needs.
type PropertyStore interface {
	Create(ctx context.Context, property *domain.Property) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Property, error)
}

// Handler handles landlord property endpoints.
type Handler struct {
	logger     *slog.Logger
	properties PropertyStore
}

// NewHandler creates a new properties handler.
func NewHandler(logger *slog.Logger, properties PropertyStore) *Handler {
	return &Handler{logger: logger, properties: properties}
}

// CreateRequest represents a property creation request.
type CreateRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PropertyResponse is the public view of a property.
type PropertyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(p *domain.Property) PropertyResponse {
	return PropertyResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Address:   p.Address,
		CreatedAt: p.CreatedAt,
	}
}

// Create handles property creation.
// POST /v1/properties
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Address == "" {
		httputil.Error(w, http.StatusBadRequest, "name and address are required")
		return
	}

	property := &domain.Property{
		ID:        uuid.New(),
		OwnerID:   userID,
		Name:      req.Name,
		Address:   req.Address,
		CreatedAt: time.Now(),
	}
	if err := h.properties.Create(r.Context(), property); err != nil {
		h.logger.Error("failed to create property", "error", err, "owner_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to create property")
		return
	}

	httputil.JSON(w, http.StatusCreated, toResponse(property))
}

// List handles listing the caller's properties.
// GET /v1/properties
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.properties.ListByOwner(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list properties", "error", err, "owner_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to list properties")
		return
	}

	out := make([]PropertyResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"properties": out})
}
