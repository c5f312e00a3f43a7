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
	"github.com/kasirku/kasir/internal/message"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

type messageResponse struct {
	ID          string  `json:"id"`
	SenderID    string  `json:"senderId"`
	RecipientID string  `json:"recipientId"`
	Body        string  `json:"body"`
	ReadAt      *string `json:"readAt"`
	CreatedAt   string  `json:"createdAt"`
}

func toMessageResponse(m *message.Message) messageResponse {
	return messageResponse{
		ID:          m.ID.String(),
		SenderID:    m.SenderID.String(),
		RecipientID: m.RecipientID.String(),
		Body:        m.Body,
		ReadAt:      formatTimePtr(m.ReadAt),
		CreatedAt:   formatTime(m.CreatedAt),
	}
}

// MessageHandler handles internal messaging endpoints. Messages belong to a
// tenant, so the god user, who has none, cannot use them.
type MessageHandler struct {
	repo message.Repository
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(repo message.Repository) *MessageHandler {
	return &MessageHandler{repo: repo}
}

// tenantScope returns the request scope and its tenant, rejecting callers
// without a tenant.
func (h *MessageHandler) tenantScope(w http.ResponseWriter, r *http.Request) (access.Scope, uuid.UUID, bool) {
	scope, ok := scopeOf(w, r)
	if !ok {
		return access.Scope{}, uuid.Nil, false
	}
	id, err := uuid.Parse(scope.TenantID)
	if err != nil {
		response.Err(w, http.StatusBadRequest, response.CodeBadRequest, "Messaging requires a tenant user", middleware.GetRequestID(r.Context()))
		return access.Scope{}, uuid.Nil, false
	}
	return scope, id, true
}

// Send handles POST /messages.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	_, tenantID, ok := h.tenantScope(w, r)
	if !ok {
		return
	}
	senderID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Body = strings.TrimSpace(req.Body)

	if fieldErrors := validation.ValidateMessageRequest(validation.MessageRequest(req)); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, response.CodeValidation, "Input validation failed", fieldErrors, requestID)
		return
	}

	recipientID, _ := uuid.Parse(req.RecipientID) // already validated

	m := &message.Message{
		TenantID:    tenantID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        req.Body,
	}
	if err := h.repo.Send(r.Context(), m); err != nil {
		if errors.Is(err, message.ErrRecipientNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Recipient not found", requestID)
			return
		}
		response.Internal(w, "failed to send message", err, requestID)
		return
	}

	response.Success(w, http.StatusCreated, toMessageResponse(m), requestID)
}

// List handles GET /messages. box=sent lists sent messages, otherwise the inbox.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, _, ok := h.tenantScope(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	page, limit, ok := parsePage(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	box := q.Get("box")
	switch box {
	case "", message.Inbox:
		box = message.Inbox
	case message.Sent:
	default:
		invalidParam(w, r, "box must be inbox or sent")
		return
	}

	messages, total, err := h.repo.List(r.Context(), scope, message.ListFilter{
		UserID:     userID,
		Box:        box,
		UnreadOnly: q.Get("unread") == "true",
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.Internal(w, "failed to list messages", err, requestID)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, toMessageResponse(&messages[i]))
	}
	response.SuccessList(w, items, pageMeta(total, page, limit), requestID)
}

// MarkRead handles POST /messages/{id}/read. Only the recipient may mark a
// message read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	scope, _, ok := h.tenantScope(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.repo.MarkRead(r.Context(), scope, id, userID)
	if err != nil {
		if errors.Is(err, message.ErrMessageNotFound) {
			response.Err(w, http.StatusNotFound, response.CodeNotFound, "Message not found", requestID)
			return
		}
		response.Internal(w, "failed to mark message read", err, requestID)
		return
	}

	response.Success(w, http.StatusOK, toMessageResponse(m), requestID)
}
