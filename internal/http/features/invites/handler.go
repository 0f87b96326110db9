package invites

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/internal/http/middleware"
	"github.com/openlease/openlease/internal/httputil"
	"github.com/openlease/openlease/internal/invite"
)

// Handler handles the landlord-facing invite endpoints.
type Handler struct {
	logger     *slog.Logger
	issuer     *invite.Issuer
	appBaseURL string
}

// NewHandler creates a new invites handler.
func NewHandler(logger *slog.Logger, issuer *invite.Issuer, appBaseURL string) *Handler {
	return &Handler{
		logger:     logger,
		issuer:     issuer,
		appBaseURL: appBaseURL,
	}
}

// IssueRequest represents an invite issuance request.
type IssueRequest struct {
	DeliveryMethod string  `json:"delivery_method,omitempty"`
	IntendedEmail  *string `json:"intended_email,omitempty"`
	TTL            string  `json:"ttl,omitempty"` // Go duration, e.g. "168h"
}

// IssueResponse carries the raw token back to the issuer. This is the
// only response in the API that ever contains it.
type IssueResponse struct {
	InviteID  string    `json:"invite_id"`
	Token     string    `json:"token"`
	InviteURL string    `json:"invite_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InviteResponse is the tokenless view used for listings.
type InviteResponse struct {
	ID             string     `json:"id"`
	PropertyID     string     `json:"property_id"`
	IntendedEmail  *string    `json:"intended_email,omitempty"`
	DeliveryMethod string     `json:"delivery_method"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	RedeemedAt     *time.Time `json:"redeemed_at,omitempty"`
}

// Issue handles invite creation.
// POST /v1/properties/{propertyID}/invites
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	propertyID, err := uuid.Parse(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid property id")
		return
	}

	var req IssueRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	opts := invite.IssueOpts{
		DeliveryMethod: domain.DeliveryMethod(req.DeliveryMethod),
		IntendedEmail:  req.IntendedEmail,
	}
	if req.TTL != "" {
		ttl, err := time.ParseDuration(req.TTL)
		if err != nil || ttl <= 0 {
			httputil.Error(w, http.StatusBadRequest, "invalid ttl")
			return
		}
		opts.TTL = ttl
	}

	issued, err := h.issuer.Issue(r.Context(), propertyID, userID, opts)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			httputil.Error(w, http.StatusForbidden, "unauthorized")
			return
		}
		h.logger.Error("failed to issue invite", "error", err, "property_id", propertyID)
		httputil.Error(w, http.StatusInternalServerError, "failed to issue invite")
		return
	}

	httputil.JSON(w, http.StatusCreated, IssueResponse{
		InviteID:  issued.Invite.ID.String(),
		Token:     issued.Token,
		InviteURL: h.inviteURL(issued.Token, propertyID),
		ExpiresAt: issued.Invite.ExpiresAt,
	})
}

// List handles listing a property's invites.
// GET /v1/properties/{propertyID}/invites
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	propertyID, err := uuid.Parse(chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid property id")
		return
	}

	list, err := h.issuer.List(r.Context(), propertyID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			httputil.Error(w, http.StatusForbidden, "unauthorized")
			return
		}
		h.logger.Error("failed to list invites", "error", err, "property_id", propertyID)
		httputil.Error(w, http.StatusInternalServerError, "failed to list invites")
		return
	}

	now := time.Now()
	out := make([]InviteResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, InviteResponse{
			ID:             inv.ID.String(),
			PropertyID:     inv.PropertyID.String(),
			IntendedEmail:  inv.IntendedEmail,
			DeliveryMethod: string(inv.DeliveryMethod),
			Status:         string(inv.EffectiveStatus(now)),
			CreatedAt:      inv.CreatedAt,
			ExpiresAt:      inv.ExpiresAt,
			RedeemedAt:     inv.RedeemedAt,
		})
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"invites": out})
}

// Revoke handles invite revocation.
// POST /v1/invites/{inviteID}/revoke
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	inviteID, err := uuid.Parse(chi.URLParam(r, "inviteID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid invite id")
		return
	}

	result, err := h.issuer.RevokeByID(r.Context(), inviteID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			httputil.Error(w, http.StatusForbidden, "unauthorized")
			return
		}
		h.logger.Error("failed to revoke invite", "error", err, "invite_id", inviteID)
		httputil.Error(w, http.StatusInternalServerError, "failed to revoke invite")
		return
	}

	switch result.Outcome {
	case invite.OutcomeSuccess:
		httputil.JSON(w, http.StatusOK, map[string]string{"outcome": "success"})
	case invite.OutcomeNotFound:
		httputil.Error(w, http.StatusNotFound, "invite not found")
	case invite.OutcomeAlreadyUsed:
		httputil.Error(w, http.StatusConflict, "invite is no longer active")
	default:
		httputil.Error(w, http.StatusInternalServerError, "failed to revoke invite")
	}
}

func (h *Handler) inviteURL(rawToken string, propertyID uuid.UUID) string {
	q := url.Values{}
	q.Set("t", rawToken)
	q.Set("property", propertyID.String())
	return fmt.Sprintf("%s/join?%s", h.appBaseURL, q.Encode())
}
