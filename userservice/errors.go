package userservice

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UserNotFoundError names the user ids a lookup could not resolve.
type UserNotFoundError struct {
	IDs []uuid.UUID
}

func (e *UserNotFoundError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return "user not found: " + strings.Join(ids, ", ")
}

func (e *UserNotFoundError) Unwrap() error { return ErrNotFound }

// EmailNotFoundError reports a failed lookup by email.
type EmailNotFoundError struct {
	Email string
}

func (e *EmailNotFoundError) Error() string {
	return fmt.Sprintf("user not found with email: %s", e.Email)
}

func (e *EmailNotFoundError) Unwrap() error { return ErrNotFound }

// CardNotFoundError names the card id a lookup could not resolve.
type CardNotFoundError struct {
	ID uuid.UUID
}

func (e *CardNotFoundError) Error() string {
	return fmt.Sprintf("card not found: %s", e.ID)
}

func (e *CardNotFoundError) Unwrap() error { return ErrNotFound }

// EmailConflictError reports an email that is already registered to another user.
type EmailConflictError struct {
	Email string
}

func (e *EmailConflictError) Error() string {
	return fmt.Sprintf("email %s already registered", e.Email)
}

func (e *EmailConflictError) Unwrap() error { return ErrConflict }
