package userservice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/innowise/user-service/userservice/models"
)

// API is the HTTP surface over the user and card services.
type API struct {
	users *UserService
	cards *CardService
}

func NewAPI(users *UserService, cards *CardService) *API {
	return &API{
		users: users,
		cards: cards,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", a.createUser)
		r.Get("/", a.getAllUsers)
		r.Get("/by-ids", a.getAllUsersByIDs)
		r.Get("/email/{email}", a.getUserByEmail)
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", a.getUserByID)
			r.Put("/", a.updateUser)
			r.Delete("/", a.deleteUser)
		})
	})
	r.Route("/api/cards", func(r chi.Router) {
		r.Post("/", a.createCard)
		r.Route("/{cardID}", func(r chi.Router) {
			r.Get("/", a.getCardByID)
			r.Delete("/", a.deleteCard)
		})
		r.Get("/user/{userID}", a.getCardsByUserID)
	})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.CreateUser(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) getUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := a.users.GetUserByID(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) getAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.GetAllUsers(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) getUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := a.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// getAllUsersByIDs accepts repeated and comma-separated ids:
// /api/users/by-ids?ids=a&ids=b and /api/users/by-ids?ids=a,b are equivalent.
func (a *API) getAllUsersByIDs(w http.ResponseWriter, r *http.Request) {
	var ids []uuid.UUID
	for _, param := range r.URL.Query()["ids"] {
		for _, raw := range strings.Split(param, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "invalid user id: "+raw)
				return
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		writeError(w, r, http.StatusBadRequest, "ids query parameter is required")
		return
	}

	users, err := a.users.GetAllUsersByIDs(r.Context(), ids)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	var req models.UpdateUser
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.UpdateUser(r.Context(), id, req)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := a.users.DeleteUser(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createCard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "unreadable request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	card, err := a.cards.CreateCard(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (a *API) getCardByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid card id")
		return
	}

	card, err := a.cards.GetCardByID(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (a *API) deleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid card id")
		return
	}

	if err := a.cards.DeleteCard(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getCardsByUserID(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	cards, err := a.cards.GetCardsByUserID(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// renderError maps service errors to status codes: not found → 404,
// conflict → 409, validation → 400, anything else → 500.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validation.Errors
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, models.APIError{
		Path:      r.URL.Path,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
