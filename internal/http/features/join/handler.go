package join

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/openlease/openlease/internal/auth"
	"github.com/openlease/openlease/internal/domain"
	"github.com/openlease/openlease/internal/http/middleware"
	"github.com/openlease/openlease/internal/httputil"
	"github.com/openlease/openlease/internal/invite"
)

// genericInvalidMessage is rendered for both unknown tokens and
// property-hint mismatches, so probing a tampered link reveals nothing
// about whether the token exists or where it is bound.
const genericInvalidMessage = "This invite link is no longer valid."

// UserStore resolves redeemers to accounts for session issuance.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Handler handles the public join endpoints: the pre-signup token
// check and redemption. Both are reachable without authentication and
// sit behind the join rate limiter.
type Handler struct {
	logger         *slog.Logger
	validator      *invite.Validator
	redeemer       *invite.Redeemer
	sessionService *auth.SessionService
	users          UserStore
}

// NewHandler creates a new join handler.
func NewHandler(logger *slog.Logger, validator *invite.Validator, redeemer *invite.Redeemer, sessionService *auth.SessionService, users UserStore) *Handler {
	return &Handler{
		logger:         logger,
		validator:      validator,
		redeemer:       redeemer,
		sessionService: sessionService,
		users:          users,
	}
}

// ValidateResponse is the outcome of a token check.
type ValidateResponse struct {
	Outcome         string `json:"outcome"`
	Message         string `json:"message,omitempty"`
	PropertyName    string `json:"property_name,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
}

// Validate handles the pre-signup token check.
// GET /v1/join?t=<token>&property=<propertyID>
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("t")
	propertyHint, err := uuid.Parse(r.URL.Query().Get("property"))
	if rawToken == "" || err != nil {
		httputil.Error(w, http.StatusBadRequest, "token and property are required")
		return
	}

	result, err := h.validator.Validate(r.Context(), rawToken, propertyHint)
	if err != nil {
		h.logger.Error("invite validation failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "validation failed")
		return
	}

	switch result.Outcome {
	case invite.OutcomeValid:
		httputil.JSON(w, http.StatusOK, ValidateResponse{
			Outcome:         string(invite.OutcomeValid),
			PropertyName:    result.PropertyName,
			PropertyAddress: result.PropertyAddress,
		})
	case invite.OutcomeExpired:
		httputil.JSON(w, http.StatusGone, ValidateResponse{
			Outcome: string(invite.OutcomeExpired),
			Message: "This invite has expired. Ask your landlord for a new one.",
		})
	case invite.OutcomeAlreadyUsed:
		httputil.JSON(w, http.StatusConflict, ValidateResponse{
			Outcome: string(invite.OutcomeAlreadyUsed),
			Message: "This invite has already been used.",
		})
	default:
		// Invalid and PropertyMismatch render identically.
		httputil.JSON(w, http.StatusNotFound, ValidateResponse{
			Outcome: string(invite.OutcomeInvalid),
			Message: genericInvalidMessage,
		})
	}
}

// RedeemRequest represents a redemption request. The signup fields are
// required unless the caller presents a bearer token.
type RedeemRequest struct {
	Token      string `json:"token"`
	PropertyID string `json:"property_id"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password,omitempty"`
	Name       string `json:"name,omitempty"`
}

// RedeemResponse is the outcome of a redemption attempt.
type RedeemResponse struct {
	Outcome     string `json:"outcome"`
	Message     string `json:"message,omitempty"`
	LinkID      string `json:"link_id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// Redeem consumes an invite token and links the caller to the
// property, creating their account when they are new.
// POST /v1/join/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	propertyHint, err := uuid.Parse(req.PropertyID)
	if req.Token == "" || err != nil {
		httputil.Error(w, http.StatusBadRequest, "token and property_id are required")
		return
	}

	identity, ok := h.resolveIdentity(w, r, req)
	if !ok {
		return
	}

	result, err := h.redeemer.Redeem(r.Context(), req.Token, propertyHint, identity)
	if err != nil {
		h.logger.Error("redemption failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "redemption failed")
		return
	}

	switch result.Outcome {
	case invite.OutcomeSuccess:
		h.writeSuccess(w, r, result)
	case invite.OutcomeExpired:
		httputil.JSON(w, http.StatusGone, RedeemResponse{
			Outcome: string(invite.OutcomeExpired),
			Message: "This invite has expired. Ask your landlord for a new one.",
		})
	case invite.OutcomeAlreadyUsed:
		httputil.JSON(w, http.StatusConflict, RedeemResponse{
			Outcome: string(invite.OutcomeAlreadyUsed),
			Message: "This invite has already been used.",
		})
	case invite.OutcomeUnauthorized:
		httputil.JSON(w, http.StatusForbidden, RedeemResponse{
			Outcome: string(invite.OutcomeUnauthorized),
			Message: "You are not allowed to redeem this invite with these credentials.",
		})
	case invite.OutcomeAccountCreationFailed:
		httputil.JSON(w, http.StatusServiceUnavailable, RedeemResponse{
			Outcome: string(invite.OutcomeAccountCreationFailed),
			Message: "We could not set up your account. The invite is still valid; please try again.",
		})
	default:
		// Invalid and PropertyMismatch render identically.
		httputil.JSON(w, http.StatusNotFound, RedeemResponse{
			Outcome: string(invite.OutcomeInvalid),
			Message: genericInvalidMessage,
		})
	}
}

// resolveIdentity builds the TenantIdentity from the bearer token when
// present, otherwise from the signup fields, validating the latter
// up front so form mistakes surface as 400s before any claim attempt.
func (h *Handler) resolveIdentity(w http.ResponseWriter, r *http.Request, req RedeemRequest) (invite.TenantIdentity, bool) {
	if bearer := middleware.BearerToken(r); bearer != "" {
		claims, err := h.sessionService.ValidateAccessToken(bearer)
		if err != nil {
			httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return invite.TenantIdentity{}, false
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httputil.Error(w, http.StatusUnauthorized, "invalid token subject")
			return invite.TenantIdentity{}, false
		}
		return invite.TenantIdentity{UserID: &userID}, true
	}

	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return invite.TenantIdentity{}, false
	}
	if err := auth.ValidateEmail(auth.NormalizeEmail(req.Email)); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid email address")
		return invite.TenantIdentity{}, false
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		httputil.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return invite.TenantIdentity{}, false
	}
	return invite.TenantIdentity{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}, true
}

func (h *Handler) writeSuccess(w http.ResponseWriter, r *http.Request, result *invite.RedemptionResult) {
	resp := RedeemResponse{
		Outcome: string(invite.OutcomeSuccess),
		LinkID:  result.LinkID.String(),
	}

	// A freshly created account gets a session so the app can continue
	// straight into the tenant dashboard.
	if result.NewAccount {
		user, err := h.users.GetByID(r.Context(), result.TenantID)
		if err != nil {
			h.logger.Error("failed to load redeemed tenant", "error", err, "tenant_id", result.TenantID)
		} else {
			accessToken, _, err := h.sessionService.IssueAccessToken(user)
			if err != nil {
				h.logger.Error("failed to issue session after redemption", "error", err, "tenant_id", result.TenantID)
			} else {
				resp.AccessToken = accessToken
				resp.TokenType = "Bearer"
			}
		}
	}

	httputil.JSON(w, http.StatusCreated, resp)
}
