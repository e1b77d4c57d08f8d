package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"

	"github.com/innowise/user-service/userservice/models"
)

var ErrNotFound = fmt.Errorf("not found")

var ErrConflict = fmt.Errorf("conflict")

// Repository persists users and cards. It runs against postgres when
// constructed with NewPGRepository, or fully in memory when constructed with
// NewRepository (tests and local development only).
type Repository struct {
	db *sql.DB

	mu         sync.RWMutex
	users      map[uuid.UUID]*models.User
	cards      []*models.Card
	emailIndex map[string]uuid.UUID
}

// NewRepository constructs the in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		users:      make(map[uuid.UUID]*models.User),
		cards:      make([]*models.Card, 0),
		emailIndex: make(map[string]uuid.UUID),
	}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping returns DB readiness.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.emailIndex[user.Email]; ok {
			return fmt.Errorf("email %s already registered: %w", user.Email, ErrConflict)
		}
		u := *user
		u.Cards = nil
		r.users[user.ID] = &u
		r.emailIndex[user.Email] = user.ID
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO users(id, name, surname, birth_date, email)
        VALUES ($1,$2,$3,$4,$5)
    `, user.ID, user.Name, user.Surname, user.BirthDate.Time, user.Email)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s already registered: %w", user.Email, ErrConflict)
	}
	return err
}

// UserByID returns the full aggregate: user row plus its cards in creation order.
func (r *Repository) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		u, ok := r.users[id]
		if !ok {
			return nil, ErrNotFound
		}
		return r.cloneWithCards(u), nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, name, surname, birth_date, email FROM users WHERE id=$1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	cards, err := r.CardsByUserID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Cards = cards
	return user, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.db == nil {
		r.mu.RLock()
		id, ok := r.emailIndex[email]
		r.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		return r.UserByID(ctx, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, name, surname, birth_date, email FROM users WHERE email=$1`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	cards, err := r.CardsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Cards = cards
	return user, nil
}

// UsersByIDs returns the aggregates for every id that exists; missing ids are
// simply absent from the result, callers decide whether that is an error.
func (r *Repository) UsersByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		var out []*models.User
		for _, id := range ids {
			if u, ok := r.users[id]; ok {
				out = append(out, r.cloneWithCards(u))
			}
		}
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, surname, birth_date, email FROM users WHERE id = ANY($1)`, pq.Array(idStrings(ids)))
	if err != nil {
		return nil, err
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	return r.attachCards(ctx, users)
}

// AllUsersWithCards returns every user with its cards eagerly loaded. Two
// queries instead of a per-user card lookup.
func (r *Repository) AllUsersWithCards(ctx context.Context) ([]*models.User, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		out := make([]*models.User, 0, len(r.users))
		for _, u := range r.users {
			out = append(out, r.cloneWithCards(u))
		}
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, surname, birth_date, email FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	return r.attachCards(ctx, users)
}

// UpdateUser persists the scalar fields of an already-loaded user. The card
// list is owned by the card operations and is left untouched.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		existing, ok := r.users[user.ID]
		if !ok {
			return ErrNotFound
		}
		if owner, taken := r.emailIndex[user.Email]; taken && owner != user.ID {
			return fmt.Errorf("email %s already registered: %w", user.Email, ErrConflict)
		}
		delete(r.emailIndex, existing.Email)
		u := *user
		u.Cards = nil
		r.users[user.ID] = &u
		r.emailIndex[user.Email] = user.ID
		return nil
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE users SET name=$2, surname=$3, birth_date=$4, email=$5 WHERE id=$1
    `, user.ID, user.Name, user.Surname, user.BirthDate.Time, user.Email)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s already registered: %w", user.Email, ErrConflict)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and, via the card_info foreign key, every card
// that references it. The memory backend performs the cascade explicitly.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		u, ok := r.users[id]
		if !ok {
			return ErrNotFound
		}
		delete(r.emailIndex, u.Email)
		delete(r.users, id)
		kept := r.cards[:0]
		for _, c := range r.cards {
			if c.UserID != id {
				kept = append(kept, c)
			}
		}
		r.cards = kept
		return nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.users[id]
		return ok, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		_, ok := r.emailIndex[email]
		return ok, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.users[card.UserID]; !ok {
			return ErrNotFound
		}
		c := *card
		r.cards = append(r.cards, &c)
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO card_info(id, user_id, number, holder, expiration_date)
        VALUES ($1,$2,$3,$4,$5)
    `, card.ID, card.UserID, card.Number, card.Holder, card.ExpirationDate.Time)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) CardByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, c := range r.cards {
			if c.ID == id {
				card := *c
				return &card, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, number, holder, expiration_date FROM card_info WHERE id=$1`, id)
	return scanCard(row)
}

// CardsByUserID returns the user's cards in creation order. An unknown user
// yields an empty list, not an error.
func (r *Repository) CardsByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Card, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.cardsOf(userID), nil
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, number, holder, expiration_date
        FROM card_info WHERE user_id=$1 ORDER BY created_at, id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cards := make([]*models.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *Repository) DeleteCard(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, c := range r.cards {
			if c.ID == id {
				r.cards = append(r.cards[:i], r.cards[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM card_info WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// cardsOf copies the cards owned by userID; callers hold r.mu.
func (r *Repository) cardsOf(userID uuid.UUID) []*models.Card {
	cards := make([]*models.Card, 0)
	for _, c := range r.cards {
		if c.UserID == userID {
			card := *c
			cards = append(cards, &card)
		}
	}
	return cards
}

// cloneWithCards copies the stored user and attaches its cards; callers hold r.mu.
func (r *Repository) cloneWithCards(u *models.User) *models.User {
	user := *u
	user.Cards = r.cardsOf(u.ID)
	return &user
}

// attachCards loads the cards for every user in one query and stitches them in.
func (r *Repository) attachCards(ctx context.Context, users []*models.User) ([]*models.User, error) {
	if len(users) == 0 {
		return users, nil
	}
	ids := make([]uuid.UUID, len(users))
	byID := make(map[uuid.UUID]*models.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
		u.Cards = make([]*models.Card, 0)
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, number, holder, expiration_date
        FROM card_info WHERE user_id = ANY($1) ORDER BY created_at, id
    `, pq.Array(idStrings(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		if owner, ok := byID[card.UserID]; ok {
			owner.Cards = append(owner.Cards, card)
		}
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var birthDate sql.NullTime
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &birthDate, &u.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.BirthDate = models.DateOf(birthDate.Time)
	return &u, nil
}

func scanCard(row rowScanner) (*models.Card, error) {
	var c models.Card
	var expiration sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &c.Number, &c.Holder, &expiration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.ExpirationDate = models.DateOf(expiration.Time)
	return &c, nil
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()
	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23503" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23503" {
		return true
	}
	return false
}
