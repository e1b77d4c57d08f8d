package userservice_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/innowise/user-service/internal/cachestore"
	"github.com/innowise/user-service/userservice"
	"github.com/innowise/user-service/userservice/models"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	cache, err := cachestore.New(cachestore.DefaultConfig())
	require.NoError(t, err)

	repo := userservice.NewRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := userservice.NewAPI(
		userservice.NewUserService(repo, cache, logger),
		userservice.NewCardService(repo, cache, logger),
	)

	router := chi.NewRouter()
	api.AppendRoutes(router)
	return router
}

func doJSON(t *testing.T, router chi.Router, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestUser(t *testing.T, router chi.Router, email string) models.User {
	t.Helper()

	body := fmt.Sprintf(`{"name":"John","surname":"Doe","birth_date":"1990-05-15","email":"%s"}`, email)
	w := doJSON(t, router, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.NotEqual(t, uuid.Nil, user.ID)
	return user
}

func TestUserLifecycle(t *testing.T) {
	router := newTestRouter(t)

	user := createTestUser(t, router, "john@x.com")

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		body := `{"name":"Jane","surname":"Doe","birth_date":"1992-03-02","email":"john@x.com"}`
		w := doJSON(t, router, http.MethodPost, "/api/users", body)
		require.Equal(t, http.StatusConflict, w.Code)

		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		require.Contains(t, apiErr.Message, "john@x.com")
		require.Equal(t, http.StatusConflict, apiErr.Status)
		require.False(t, apiErr.Timestamp.IsZero())
		require.Equal(t, "/api/users", apiErr.Path)
	})

	t.Run("get by email", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/users/email/john@x.com", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("get by id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/users/"+user.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)

		var got models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Equal(t, "John", got.Name)
		require.Equal(t, "1990-05-15", got.BirthDate.String())
	})

	t.Run("partial update", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/users/"+user.ID.String(), `{"name":"Johnny"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Equal(t, "Johnny", got.Name)
		require.Equal(t, "Doe", got.Surname)
		require.Equal(t, "john@x.com", got.Email)
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, "/api/users/"+user.ID.String(), "")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/users/"+user.ID.String(), "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateUser_Validation(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"surname":"Doe","birth_date":"1990-05-15","email":"a@x.com"}`, "name"},
		{"short surname", `{"name":"John","surname":"D","birth_date":"1990-05-15","email":"a@x.com"}`, "surname"},
		{"future birth date", `{"name":"John","surname":"Doe","birth_date":"2999-01-01","email":"a@x.com"}`, "birth_date"},
		{"bad email", `{"name":"John","surname":"Doe","birth_date":"1990-05-15","email":"not-an-email"}`, "email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/users", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var apiErr models.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			require.Contains(t, apiErr.Message, tc.want)
		})
	}
}

func TestCreateUser_UnreadableBody(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/users", `{"name": `)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Contains(t, apiErr.Message, "unreadable request body")
}

func TestGetUserByID_MalformedUUID(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/users/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAllUsersByIDs_Endpoint(t *testing.T) {
	router := newTestRouter(t)

	a := createTestUser(t, router, "a@x.com")
	b := createTestUser(t, router, "b@x.com")

	t.Run("duplicate ids collapse", func(t *testing.T) {
		path := fmt.Sprintf("/api/users/by-ids?ids=%s,%s&ids=%s", a.ID, a.ID, b.ID)
		w := doJSON(t, router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code)

		var users []models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
		require.Len(t, users, 2)
		require.Equal(t, a.ID, users[0].ID)
		require.Equal(t, b.ID, users[1].ID)
	})

	t.Run("missing id fails the batch", func(t *testing.T) {
		ghost := uuid.New()
		path := fmt.Sprintf("/api/users/by-ids?ids=%s,%s", a.ID, ghost)
		w := doJSON(t, router, http.MethodGet, path, "")
		require.Equal(t, http.StatusNotFound, w.Code)

		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		require.Contains(t, apiErr.Message, ghost.String())
		require.NotContains(t, apiErr.Message, a.ID.String())
	})

	t.Run("no ids is a bad request", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/users/by-ids", "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCardEndpoints(t *testing.T) {
	router := newTestRouter(t)

	user := createTestUser(t, router, "john@x.com")

	t.Run("card for unknown user", func(t *testing.T) {
		ghost := uuid.New()
		body := fmt.Sprintf(`{"user_id":"%s","number":"4111111111111111","holder":"JOHN DOE","expiration_date":"2030-06-01"}`, ghost)
		w := doJSON(t, router, http.MethodPost, "/api/cards", body)
		require.Equal(t, http.StatusNotFound, w.Code)

		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		require.Contains(t, apiErr.Message, ghost.String())
	})

	t.Run("create two cards and list them", func(t *testing.T) {
		numbers := []string{"4111111111111111", "4222222222222222"}
		for _, number := range numbers {
			body := fmt.Sprintf(`{"user_id":"%s","number":"%s","holder":"JOHN DOE","expiration_date":"2030-06-01"}`, user.ID, number)
			w := doJSON(t, router, http.MethodPost, "/api/cards", body)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		}

		w := doJSON(t, router, http.MethodGet, "/api/cards/user/"+user.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)

		var cards []models.Card
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cards))
		require.Len(t, cards, 2)
		require.ElementsMatch(t, numbers, []string{cards[0].Number, cards[1].Number})
	})

	t.Run("invalid card number", func(t *testing.T) {
		body := fmt.Sprintf(`{"user_id":"%s","number":"1234","holder":"JOHN DOE","expiration_date":"2030-06-01"}`, user.ID)
		w := doJSON(t, router, http.MethodPost, "/api/cards", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var apiErr models.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		require.Contains(t, apiErr.Message, "number")
	})

	t.Run("expired card", func(t *testing.T) {
		body := fmt.Sprintf(`{"user_id":"%s","number":"4111111111111111","holder":"JOHN DOE","expiration_date":"2001-01-01"}`, user.ID)
		w := doJSON(t, router, http.MethodPost, "/api/cards", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete a card, user survives", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/cards/user/"+user.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)
		var cards []models.Card
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cards))
		require.NotEmpty(t, cards)

		w = doJSON(t, router, http.MethodDelete, "/api/cards/"+cards[0].ID.String(), "")
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/users/"+user.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get unknown card", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/cards/"+uuid.NewString(), "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
