package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type scopeResponse struct {
	TenantID      string `json:"tenantId,omitempty"`
	TokoID        string `json:"tokoId,omitempty"`
	Level         int    `json:"level"`
	Role          string `json:"role"`
	IsGod         bool   `json:"isGod"`
	EnforceTenant bool   `json:"enforceTenant"`
	EnforceStore  bool   `json:"enforceStore"`
}

type meResponse struct {
	UserID   string        `json:"userId"`
	TenantID string        `json:"tenantId,omitempty"`
	TokoID   string        `json:"tokoId,omitempty"`
	Role     string        `json:"role"`
	Level    int           `json:"level"`
	IsGod    bool          `json:"isGod"`
	Scope    scopeResponse `json:"scope"`
}

// AuthHandler handles login and identity endpoints.
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if fieldErrors := validation.ValidateLoginRequest(validation.LoginRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid username or password", requestID)
			return
		}
		response.Internal(w, "failed to log in", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: formatTime(result.ExpiresAt),
		User:      toUserResponse(result.User),
	}, requestID)
}

// Me handles GET /me. It reports the caller and the scope resolved for this
// request.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	p, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication is required", requestID)
		return
	}
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}

	response.Success(w, http.StatusOK, meResponse{
		UserID:   p.UserID,
		TenantID: p.TenantID,
		TokoID:   p.TokoID,
		Role:     p.Rank().String(),
		Level:    p.Rank().Level(),
		IsGod:    p.IsGodUser,
		Scope: scopeResponse{
			TenantID:      scope.TenantID,
			TokoID:        scope.StoreID,
			Level:         scope.Level,
			Role:          scope.Role,
			IsGod:         scope.IsGod,
			EnforceTenant: scope.EnforceTenant,
			EnforceStore:  scope.EnforceStore,
		},
	}, requestID)
}
