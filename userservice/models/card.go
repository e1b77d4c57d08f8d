package models

import (
	"github.com/google/uuid"
)

// Card is a payment card owned by exactly one user.
type Card struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Number         string    `json:"number"`
	Holder         string    `json:"holder"`
	ExpirationDate Date      `json:"expiration_date"`
}
