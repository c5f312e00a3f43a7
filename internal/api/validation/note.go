package validation

const maxNoteBody = 10000

// NoteRequest mirrors the fields needed for note validation. Nil fields are
// left unchanged on update.
type NoteRequest struct {
	Title *string
	Body  *string
}

// ValidateNoteRequest validates a note body. Title is required when create is true.
func ValidateNoteRequest(req NoteRequest, create bool) []FieldError {
	var errs []FieldError

	switch {
	case req.Title != nil:
		errs = requiredString(errs, "title", *req.Title, maxNameLen)
	case create:
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	}

	if req.Body != nil {
		errs = maxLength(errs, "body", *req.Body, maxNoteBody)
	}

	return errs
}

// MessageRequest mirrors the fields needed for send message validation.
type MessageRequest struct {
	RecipientID string
	Body        string
}

// ValidateMessageRequest validates the fields of a send message request.
func ValidateMessageRequest(req MessageRequest) []FieldError {
	errs := requiredUUID(nil, "recipientId", req.RecipientID)
	return requiredString(errs, "body", req.Body, maxNoteBody)
}
