// Package message implements tenant-wide internal messaging between users.
package message

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kasirku/kasir/internal/access"
)

// ErrMessageNotFound is returned when a message does not exist or is not addressed to the caller.
var ErrMessageNotFound = errors.New("message not found")

// ErrRecipientNotFound is returned when the recipient is not a user of the sender's tenant.
var ErrRecipientNotFound = errors.New("recipient not found")

// Mailboxes.
const (
	Inbox = "inbox"
	Sent  = "sent"
)

// Message represents a row in the messages table.
type Message struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Body        string
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// ListFilter selects a mailbox of a user.
type ListFilter struct {
	UserID     uuid.UUID
	Box        string // Inbox (default) or Sent
	UnreadOnly bool
	Page       int
	Limit      int
}

// Repository provides operations on the messages table. Messages are scoped
// by tenant only; stores do not partition them.
type Repository interface {
	Send(ctx context.Context, m *Message) error
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Message, int, error)
	MarkRead(ctx context.Context, scope access.Scope, id, recipientID uuid.UUID) (*Message, error)
}
