package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/innowise/user-service/userservice/models"
)

// UserStore is the slice of the repository the user service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
	AllUsersWithCards(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// UserService orchestrates cache-aside reads and write-triggered invalidation
// of user aggregates. The cache is an optimization, never a correctness
// dependency: every cache failure falls through to the store and is logged,
// and every mutation evicts the aggregate snapshot only after the store
// committed it.
type UserService struct {
	store  UserStore
	cache  Cache
	logger *slog.Logger
}

func NewUserService(store UserStore, cache Cache, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("service", "users")),
	}
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUser) (*models.User, error) {
	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if exists {
		return nil, &EmailConflictError{Email: req.Email}
	}

	user := &models.User{
		ID:        uuid.New(),
		Name:      req.Name,
		Surname:   req.Surname,
		BirthDate: req.BirthDate,
		Email:     req.Email,
		Cards:     make([]*models.Card, 0),
	}
	// The unique index still guards the insert, a concurrent create with the
	// same email surfaces as ErrConflict here.
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, &EmailConflictError{Email: req.Email}
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	// Nothing to invalidate: the aggregate key cannot exist before the first read.
	return user, nil
}

// GetUserByID is the cache-aside read path: cache hit is terminal, a miss
// rebuilds the snapshot from the store and writes it back best-effort.
func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	key := UserCacheKey(id)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache get failed, falling through to store", slog.String("key", key), slog.Any("err", err))
	} else if ok {
		user, err := decodeUserSnapshot(data)
		if err == nil {
			return user, nil
		}
		s.logger.Warn("dropping undecodable snapshot", slog.String("key", key), slog.Any("err", err))
	}

	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &UserNotFoundError{IDs: []uuid.UUID{id}}
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	s.putSnapshot(ctx, user)
	return user, nil
}

// GetAllUsersByIDs resolves a batch of ids through one cache multi-get and at
// most one store call for the misses. Input ids are de-duplicated preserving
// first occurrence, and the response keeps that order. If any id exists in
// neither cache nor store the whole batch fails, naming exactly the absent ids.
func (s *UserService) GetAllUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return []*models.User{}, nil
	}

	keys := make([]string, len(unique))
	for i, id := range unique {
		keys[i] = UserCacheKey(id)
	}

	resolved := make(map[uuid.UUID]*models.User, len(unique))

	values, err := s.cache.MultiGet(ctx, keys)
	if err != nil {
		s.logger.Warn("cache multi-get failed, falling through to store", slog.Any("err", err))
		values = make([][]byte, len(keys))
	}
	for i, data := range values {
		if data == nil {
			continue
		}
		user, err := decodeUserSnapshot(data)
		if err != nil {
			s.logger.Warn("dropping undecodable snapshot", slog.String("key", keys[i]), slog.Any("err", err))
			continue
		}
		resolved[user.ID] = user
	}

	var missing []uuid.UUID
	for _, id := range unique {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		users, err := s.store.UsersByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("finding users: %w", err)
		}
		for _, user := range users {
			resolved[user.ID] = user
			s.putSnapshot(ctx, user)
		}
		// Ids the store resolved no longer count as missing; only the truly
		// absent ones fail the batch.
		if len(users) != len(missing) {
			var notFound []uuid.UUID
			for _, id := range missing {
				if _, ok := resolved[id]; !ok {
					notFound = append(notFound, id)
				}
			}
			return nil, &UserNotFoundError{IDs: notFound}
		}
	}

	out := make([]*models.User, len(unique))
	for i, id := range unique {
		out[i] = resolved[id]
	}
	return out, nil
}

// GetAllUsers lists every user with cards eagerly loaded. Not cached: only
// per-user aggregate snapshots are, and a full listing would go stale on any
// write.
func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.AllUsersWithCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// GetUserByEmail is store-only; the aggregate is cached under the id key and
// no email→id index is maintained.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &EmailNotFoundError{Email: email}
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial patch: only non-nil fields overwrite. The
// snapshot is evicted after the store committed, never patched in place.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, patch models.UpdateUser) (*models.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &UserNotFoundError{IDs: []uuid.UUID{id}}
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if patch.Email != nil && *patch.Email != user.Email {
		taken, err := s.store.EmailExists(ctx, *patch.Email)
		if err != nil {
			return nil, fmt.Errorf("checking email: %w", err)
		}
		if taken {
			return nil, &EmailConflictError{Email: *patch.Email}
		}
		user.Email = *patch.Email
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Surname != nil {
		user.Surname = *patch.Surname
	}
	if patch.BirthDate != nil {
		user.BirthDate = *patch.BirthDate
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, &EmailConflictError{Email: user.Email}
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.evictSnapshot(ctx, id)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	// The store cascades to the user's cards; they are part of the same
	// aggregate so the single eviction below covers them too.
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &UserNotFoundError{IDs: []uuid.UUID{id}}
		}
		return fmt.Errorf("deleting user: %w", err)
	}

	s.evictSnapshot(ctx, id)
	return nil
}

// putSnapshot writes a fresh aggregate snapshot, best-effort. A failed put
// only costs the next read a store round-trip.
func (s *UserService) putSnapshot(ctx context.Context, user *models.User) {
	data, err := encodeUserSnapshot(user)
	if err != nil {
		s.logger.Warn("encoding snapshot", slog.String("user_id", user.ID.String()), slog.Any("err", err))
		return
	}
	if err := s.cache.Put(ctx, UserCacheKey(user.ID), data); err != nil {
		s.logger.Warn("cache put failed", slog.String("user_id", user.ID.String()), slog.Any("err", err))
	}
}

// evictSnapshot removes the aggregate snapshot after a committed mutation. A
// failed evict leaves a stale entry no longer than the TTL; the mutation
// itself already succeeded, so the error is logged rather than propagated.
func (s *UserService) evictSnapshot(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Evict(ctx, UserCacheKey(id)); err != nil {
		s.logger.Warn("cache evict failed", slog.String("user_id", id.String()), slog.Any("err", err))
	}
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
