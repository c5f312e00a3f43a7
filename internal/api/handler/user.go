package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/auth"
)

type createUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId"`
	TokoID   string `json:"tokoId"`
}

type userResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Level      int     `json:"level"`
	TenantID   *string `json:"tenantId"`
	TokoID     *string `json:"tokoId"`
	IsGod      bool    `json:"isGod"`
	CreatedAt  string  `json:"createdAt"`
	DisabledAt *string `json:"disabledAt,omitempty"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:         u.ID.String(),
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		Level:      u.Level,
		TenantID:   uuidPtrString(u.TenantID),
		TokoID:     uuidPtrString(u.TokoID),
		IsGod:      u.IsGod,
		CreatedAt:  formatTime(u.CreatedAt),
		DisabledAt: formatTimePtr(u.DisabledAt),
	}
}

// UserHandler handles user management endpoints.
type UserHandler struct {
	authService *auth.Service
	userRepo    auth.UserRepository
	locator     StoreLocator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *auth.Service, userRepo auth.UserRepository, locator StoreLocator) *UserHandler {
	return &UserHandler{
		authService: authService,
		userRepo:    userRepo,
		locator:     locator,
	}
}

// Create handles POST /users. Callers may only create roles ranked below
// their own. Non-god callers create users in their own tenant; store-bound
// roles are placed in the store of the request scope.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	actor, _ := access.PrincipalFromContext(r.Context())
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateUserRequest(validation.CreateUserRequest(req))
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	role, _ := access.ParseRole(req.Role) // already validated
	if !actor.Rank().Outranks(role) {
		response.Err(w, http.StatusForbidden, response.CodeForbidden, "You may only create users ranked below your own role", requestID)
		return
	}

	u := &auth.User{
		Username: req.Username,
		Name:     req.Name,
		Role:     role.String(),
		Level:    role.Level(),
	}

	if role.StoreBound() {
		tenantID, storeID, ok := locate(w, r, h.locator, scope)
		if !ok {
			return
		}
		u.TenantID, u.TokoID = &tenantID, &storeID
	} else {
		tenantID, ok := h.tenantFor(w, r, actor, req.TenantID)
		if !ok {
			return
		}
		u.TenantID = &tenantID
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Internal(w, "failed to hash password", err, requestID)
		return
	}
	u.PasswordHash = hash

	if err := h.userRepo.Create(r.Context(), u); err != nil {
		if errors.Is(err, auth.ErrDuplicateUsername) {
			response.Err(w, http.StatusConflict, response.CodeConflict, "Username already exists", requestID)
			return
		}
		response.Internal(w, "failed to create user", err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toUserResponse(u), requestID)
}

// tenantFor picks the tenant of a new tenant-wide user: the caller's own, or
// for the god user the tenantId in the body.
func (h *UserHandler) tenantFor(w http.ResponseWriter, r *http.Request, actor access.Principal, requested string) (uuid.UUID, bool) {
	requestID := middleware.GetRequestID(r.Context())

	if !actor.IsGodUser {
		id, err := uuid.Parse(actor.TenantID)
		if err != nil {
			response.Err(w, http.StatusForbidden, response.CodeForbidden, "Caller is not assigned to a tenant", requestID)
			return uuid.Nil, false
		}
		return id, true
	}

	if requested == "" {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed",
			[]validation.FieldError{{Field: "tenantId", Message: "tenantId is required"}}, requestID)
		return uuid.Nil, false
	}
	id, _ := uuid.Parse(requested) // already validated
	return id, true
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}

	filter := auth.ListFilter{Page: page, Limit: limit}
	if v := r.URL.Query().Get("role"); v != "" {
		if _, err := access.ParseRole(v); err != nil {
			invalidParam(w, r, "role must be one of god, admin, store_admin, cashier")
			return
		}
		filter.Role = &v
	}

	users, total, err := h.userRepo.List(r.Context(), scope, filter)
	if err != nil {
		response.Internal(w, "failed to list users", err, requestID)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "User not found", requestID)
			return
		}
		response.Internal(w, "failed to get user", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toUserResponse(u), requestID)
}

// Disable handles DELETE /users/{id}. The god user cannot be disabled, and
// callers may only disable users ranked below them.
func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	actor, _ := access.PrincipalFromContext(r.Context())
	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	target, err := h.userRepo.GetByID(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "User not found", requestID)
			return
		}
		response.Internal(w, "failed to get user", err, requestID)
		return
	}

	if target.IsGod {
		response.Err(w, http.StatusForbidden, response.CodeForbidden, "The god user cannot be disabled", requestID)
		return
	}
	if !actor.Rank().Outranks(target.Principal().Rank()) {
		response.Err(w, http.StatusForbidden, response.CodeForbidden, "You may only disable users ranked below your own role", requestID)
		return
	}

	if err := h.userRepo.Disable(r.Context(), scope, id); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "User not found", requestID)
		case errors.Is(err, auth.ErrUserDisabled):
			response.Err(w, http.StatusConflict, response.CodeConflict, "User is already disabled", requestID)
		default:
			response.Internal(w, "failed to disable user", err, requestID)
		}
		return
	}

	response.NoContent(w)
}
