package models

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/innowise/user-service/internal/expiry"
)

var cardNumberPattern = regexp.MustCompile(`^\d{16}$`)

// CreateUser is the payload for registering a new user.
type CreateUser struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	BirthDate Date   `json:"birth_date"`
	Email     string `json:"email"`
}

func (r CreateUser) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Surname, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.BirthDate, validation.By(dateRequired), validation.By(dateInPast)),
		validation.Field(&r.Email, validation.Required, validation.Length(0, 255), is.Email),
	)
}

// UpdateUser is a partial patch: only non-nil fields are applied, untouched
// fields keep their prior values.
type UpdateUser struct {
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	BirthDate *Date   `json:"birth_date"`
	Email     *string `json:"email"`
}

func (r UpdateUser) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(2, 100)),
		validation.Field(&r.Surname, validation.Length(2, 100)),
		validation.Field(&r.BirthDate, validation.By(dateInPast)),
		validation.Field(&r.Email, validation.Length(0, 255), is.Email),
	)
}

// CreateCard is the payload for attaching a card to an existing user.
type CreateCard struct {
	UserID         uuid.UUID `json:"user_id"`
	Number         string    `json:"number"`
	Holder         string    `json:"holder"`
	ExpirationDate Date      `json:"expiration_date"`
}

func (r CreateCard) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.By(uuidRequired)),
		validation.Field(&r.Number, validation.Required, validation.Match(cardNumberPattern).Error("must be a 16 digit card number")),
		validation.Field(&r.Holder, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.ExpirationDate, validation.By(dateRequired), validation.By(dateNotExpired)),
	)
}

func toDate(value any) (Date, bool) {
	switch v := value.(type) {
	case Date:
		return v, true
	case *Date:
		if v == nil {
			return Date{}, false
		}
		return *v, true
	}
	return Date{}, false
}

func dateRequired(value any) error {
	d, ok := toDate(value)
	if !ok || d.IsZero() {
		return errors.New("is required")
	}
	return nil
}

func dateInPast(value any) error {
	d, ok := toDate(value)
	if !ok || d.IsZero() {
		return nil
	}
	if !d.Before(time.Now().UTC()) {
		return errors.New("must be in the past")
	}
	return nil
}

// dateNotExpired accepts any date whose month has not fully elapsed. A card
// dated 2030-06-01 stays valid through the last instant of June 2030.
func dateNotExpired(value any) error {
	d, ok := toDate(value)
	if !ok || d.IsZero() {
		return nil
	}
	if expiry.Expired(d.Time, time.Now()) {
		return errors.New("must be in the future")
	}
	return nil
}

func uuidRequired(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return errors.New("is required")
	}
	return nil
}
