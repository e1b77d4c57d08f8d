package models

import (
	"github.com/google/uuid"
)

// User is a user profile together with the cards it owns. The card list is
// populated by the store in creation order.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate Date      `json:"birth_date"`
	Email     string    `json:"email"`
	Cards     []*Card   `json:"cards"`
}
