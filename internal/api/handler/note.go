package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kasirku/kasir/internal/api/middleware"
	"github.com/kasirku/kasir/internal/api/response"
	"github.com/kasirku/kasir/internal/api/validation"
	"github.com/kasirku/kasir/internal/note"
)

type noteRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

type noteResponse struct {
	ID        string `json:"id"`
	TokoID    string `json:"tokoId"`
	AuthorID  string `json:"authorId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toNoteResponse(n *note.Note) noteResponse {
	return noteResponse{
		ID:        n.ID.String(),
		TokoID:    n.TokoID.String(),
		AuthorID:  n.AuthorID.String(),
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: formatTime(n.CreatedAt),
		UpdatedAt: formatTime(n.UpdatedAt),
	}
}

// NoteHandler handles store note endpoints.
type NoteHandler struct {
	repo    note.Repository
	locator StoreLocator
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(repo note.Repository, locator StoreLocator) *NoteHandler {
	return &NoteHandler{repo: repo, locator: locator}
}

// Create handles POST /notes. The caller is recorded as the author.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	authorID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != nil {
		*req.Title = strings.TrimSpace(*req.Title)
	}

	if fieldErrors := validation.ValidateNoteRequest(validation.NoteRequest(req), true); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	tenantID, storeID, ok := locate(w, r, h.locator, scope)
	if !ok {
		return
	}

	n := &note.Note{
		TenantID: tenantID,
		TokoID:   storeID,
		AuthorID: authorID,
		Title:    *req.Title,
		Body:     deref(req.Body),
	}
	if err := h.repo.Create(r.Context(), n); err != nil {
		response.Internal(w, "failed to create note", err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toNoteResponse(n), requestID)
}

// List handles GET /notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}

	notes, total, err := h.repo.List(r.Context(), scope, note.ListFilter{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		response.Internal(w, "failed to list notes", err, requestID)
		return
	}

	items := make([]noteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, toNoteResponse(&notes[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// Get handles GET /notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	n, err := h.repo.GetByID(r.Context(), scope, id)
	if err != nil {
		noteError(w, requestID, "failed to get note", err)
		return
	}

	response.Success(w, http.StatusOK, toNoteResponse(n), requestID)
}

// Update handles PATCH /notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title != nil {
		*req.Title = strings.TrimSpace(*req.Title)
	}

	if fieldErrors := validation.ValidateNoteRequest(validation.NoteRequest(req), false); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	n, err := h.repo.Update(r.Context(), scope, id, note.Update(req))
	if err != nil {
		noteError(w, requestID, "failed to update note", err)
		return
	}

	response.Success(w, http.StatusOK, toNoteResponse(n), requestID)
}

// Delete handles DELETE /notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, ok := scopeOf(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), scope, id); err != nil {
		noteError(w, requestID, "failed to delete note", err)
		return
	}

	response.NoContent(w)
}

func noteError(w http.ResponseWriter, requestID, msg string, err error) {
	if errors.Is(err, note.ErrNoteNotFound) {
		response.Err(w, http.StatusNotFound, response.CodeNotFound, "Note not found", requestID)
		return
	}
	response.Internal(w, msg, err, requestID)
}
