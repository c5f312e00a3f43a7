package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/database"
	"github.com/kasirku/kasir/internal/tenant"
)

const maxBodyBytes = 1 << 20

// StoreLocator resolves the tenant and store a write under a scope lands in.
type StoreLocator interface {
	Locate(ctx context.Context, scope access.Scope) (tenantID, storeID uuid.UUID, err error)
}

// scopeOf returns the resolved scope. Requests reaching a handler without one
// are rejected rather than served unscoped.
func scopeOf(w http.ResponseWriter, r *http.Request) (access.Scope, bool) {
	scope, ok := access.FromContext(r.Context())
	if !ok {
		response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication is required", middleware.GetRequestID(r.Context()))
		return access.Scope{}, false
	}
	return scope, true
}

// callerID returns the authenticated user's ID.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	requestID := middleware.GetRequestID(r.Context())
	p, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication is required", requestID)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(p.UserID)
	if err != nil {
		response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid or expired token", requestID)
		return uuid.Nil, false
	}
	return id, true
}

// locate resolves the store a write lands in, writing the error response when
// it cannot.
func locate(w http.ResponseWriter, r *http.Request, locator StoreLocator, scope access.Scope) (uuid.UUID, uuid.UUID, bool) {
	requestID := middleware.GetRequestID(r.Context())

	tenantID, storeID, err := locator.Locate(r.Context(), scope)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrStoreRequired):
			response.Err(w, http.StatusBadRequest, response.CodeBadRequest, "Store ID (tokoId) is required for this operation", requestID)
		case errors.Is(err, tenant.ErrStoreNotFound):
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Store not found", requestID)
		default:
			response.Internal(w, "failed to locate store", err, requestID)
		}
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, storeID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidJSON, "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeInvalidID, "id must be a valid UUID", middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	return id, true
}

func invalidParam(w http.ResponseWriter, r *http.Request, message string) {
	response.Err(w, http.StatusBadRequest, response.CodeInvalidParam, message, middleware.GetRequestID(r.Context()))
}

// parsePage reads the page and limit query parameters.
func parsePage(w http.ResponseWriter, r *http.Request) (page, limit int, ok bool) {
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			invalidParam(w, r, "page must be a positive integer")
			return 0, 0, false
		}
		page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			invalidParam(w, r, "limit must be a positive integer")
			return 0, 0, false
		}
		limit = n
	}
	return page, limit, true
}

// pageMeta reports the page and limit actually applied by the repository.
func pageMeta(total, page, limit int) response.Page {
	page, limit, _ = database.NormalizePage(page, limit)
	return response.Page{Total: total, Page: page, Limit: limit}
}

// parseRange reads the from and to query parameters. Dates without a time
// are whole days: "to" then covers the named day.
func parseRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, _, err := parseTime(v)
		if err != nil {
			invalidParam(w, r, "from must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return nil, nil, false
		}
		from = &t
	}
	if v := q.Get("to"); v != "" {
		t, dateOnly, err := parseTime(v)
		if err != nil {
			invalidParam(w, r, "to must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
			return nil, nil, false
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		to = &t
	}
	return from, to, true
}

func parseTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func optionalUUIDParam(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		invalidParam(w, r, name+" must be a valid UUID")
		return nil, false
	}
	return &id, true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseOptionalUUID parses a body field that may be empty.
func parseOptionalUUID(v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}
