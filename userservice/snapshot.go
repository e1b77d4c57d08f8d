package userservice

import (
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/innowise/user-service/userservice/models"
)

// userSnapshot is the denormalized cache representation of a user aggregate.
// It is written wholesale and never patched; any mutation of the user or its
// cards evicts the whole entry instead.
//
// The mapping is lossy: a card's back-reference to its owner is not stored,
// it is re-derived from the aggregate id on decode.
type userSnapshot struct {
	ID        uuid.UUID      `msgpack:"id"`
	Name      string         `msgpack:"name"`
	Surname   string         `msgpack:"surname"`
	BirthDate time.Time      `msgpack:"birth_date"`
	Email     string         `msgpack:"email"`
	Cards     []cardSnapshot `msgpack:"cards"`
}

type cardSnapshot struct {
	ID             uuid.UUID `msgpack:"id"`
	Number         string    `msgpack:"number"`
	Holder         string    `msgpack:"holder"`
	ExpirationDate time.Time `msgpack:"expiration_date"`
}

// encodeUserSnapshot serializes the aggregate for caching.
func encodeUserSnapshot(user *models.User) ([]byte, error) {
	snap := userSnapshot{
		ID:        user.ID,
		Name:      user.Name,
		Surname:   user.Surname,
		BirthDate: user.BirthDate.Time,
		Email:     user.Email,
		Cards:     make([]cardSnapshot, len(user.Cards)),
	}
	for i, c := range user.Cards {
		snap.Cards[i] = cardSnapshot{
			ID:             c.ID,
			Number:         c.Number,
			Holder:         c.Holder,
			ExpirationDate: c.ExpirationDate.Time,
		}
	}
	return msgpack.Marshal(snap)
}

// decodeUserSnapshot reconstructs the aggregate from cached bytes.
func decodeUserSnapshot(data []byte) (*models.User, error) {
	var snap userSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	user := &models.User{
		ID:        snap.ID,
		Name:      snap.Name,
		Surname:   snap.Surname,
		BirthDate: models.DateOf(snap.BirthDate),
		Email:     snap.Email,
		Cards:     make([]*models.Card, len(snap.Cards)),
	}
	for i, c := range snap.Cards {
		user.Cards[i] = &models.Card{
			ID:             c.ID,
			UserID:         snap.ID,
			Number:         c.Number,
			Holder:         c.Holder,
			ExpirationDate: models.DateOf(c.ExpirationDate),
		}
	}
	return user, nil
}
