package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/innowise/user-service/userservice/models"
)

// CardStore is the slice of the repository the card service depends on.
type CardStore interface {
	CreateCard(ctx context.Context, card *models.Card) error
	CardByID(ctx context.Context, id uuid.UUID) (*models.Card, error)
	CardsByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Card, error)
	DeleteCard(ctx context.Context, id uuid.UUID) error
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CardService owns card CRUD. Card reads are store-only: only the full user
// aggregate is cached, so the service's cache involvement is limited to
// evicting the owner's snapshot whenever a card is added or removed.
type CardService struct {
	store  CardStore
	cache  Cache
	logger *slog.Logger
}

func NewCardService(store CardStore, cache Cache, logger *slog.Logger) *CardService {
	return &CardService{
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("service", "cards")),
	}
}

// CreateCard attaches a card to an existing user. The owner's cached snapshot
// is stale the moment the card list changes, so it is evicted after the insert.
func (s *CardService) CreateCard(ctx context.Context, req models.CreateCard) (*models.Card, error) {
	exists, err := s.store.UserExists(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("checking user: %w", err)
	}
	if !exists {
		return nil, &UserNotFoundError{IDs: []uuid.UUID{req.UserID}}
	}

	card := &models.Card{
		ID:             uuid.New(),
		UserID:         req.UserID,
		Number:         req.Number,
		Holder:         req.Holder,
		ExpirationDate: req.ExpirationDate,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		// The foreign key still guards the insert when the user vanished
		// between the existence check and now.
		if errors.Is(err, ErrNotFound) {
			return nil, &UserNotFoundError{IDs: []uuid.UUID{req.UserID}}
		}
		return nil, fmt.Errorf("creating card: %w", err)
	}

	s.evictOwner(ctx, req.UserID)
	return card, nil
}

// DeleteCard removes the card and evicts its owner's snapshot. The owner id
// is captured before the delete; afterwards the card row is gone.
func (s *CardService) DeleteCard(ctx context.Context, id uuid.UUID) error {
	card, err := s.store.CardByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CardNotFoundError{ID: id}
		}
		return fmt.Errorf("finding card: %w", err)
	}

	if err := s.store.DeleteCard(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CardNotFoundError{ID: id}
		}
		return fmt.Errorf("deleting card: %w", err)
	}

	s.evictOwner(ctx, card.UserID)
	return nil
}

func (s *CardService) GetCardByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	card, err := s.store.CardByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &CardNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("finding card: %w", err)
	}
	return card, nil
}

// GetCardsByUserID distinguishes a user with zero cards (empty list) from a
// missing user (not found). The existence check runs only when the card list
// comes back empty.
func (s *CardService) GetCardsByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Card, error) {
	cards, err := s.store.CardsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	if len(cards) == 0 {
		exists, err := s.store.UserExists(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("checking user: %w", err)
		}
		if !exists {
			return nil, &UserNotFoundError{IDs: []uuid.UUID{userID}}
		}
	}
	return cards, nil
}

func (s *CardService) evictOwner(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Evict(ctx, UserCacheKey(userID)); err != nil {
		s.logger.Warn("cache evict failed", slog.String("user_id", userID.String()), slog.Any("err", err))
	}
}
