package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/contact-keeper/internal/apperr"
	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/middleware"
	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/service"
	"github.com/hongminglow/contact-keeper/internal/storage/bolt"
)

type envelope struct {
	Code    int                 `json:"code"`
	Kind    apperr.Kind         `json:"kind"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors"`
	Data    json.RawMessage     `json:"data"`
}

type apiFixture struct {
	server *httptest.Server
	tokens *auth.TokenManager
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := zaptest.NewLogger(t)
	tokens := auth.NewTokenManager("handler-secret", "contact-keeper", time.Hour)
	users := service.NewUserService(store, auth.NewPasswordHasher(bcrypt.MinCost), tokens)
	requireAuth := middleware.RequireAuth(tokens, log)

	router := mux.NewRouter()
	NewHealthHandler(time.Now(), log).Register(router)
	NewAuthHandler(users, log).Register(router, requireAuth)
	NewContactHandler(service.NewContactService(store), log).Register(router, requireAuth)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return &apiFixture{server: ts, tokens: tokens}
}

func (a *apiFixture) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *apiFixture) register(t *testing.T, name, email, password string) string {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (a *apiFixture) createContact(t *testing.T, token string, body map[string]string) models.Contact {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/api/contacts", token, body)
	require.Equal(t, http.StatusOK, status, env.Message)
	var c models.Contact
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

func TestRegister_ValidationReturnsFieldErrors(t *testing.T) {
	api := newAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "", "email": "nope", "password": "123",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperr.KindValidation, env.Kind)
	require.Len(t, env.Errors, 3)
	assert.Equal(t, "name", env.Errors[0].Field)
	assert.Equal(t, "email", env.Errors[1].Field)
	assert.Equal(t, "password", env.Errors[2].Field)
}

func TestRegister_OverlongPasswordIsValidationError(t *testing.T) {
	api := newAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Jill", "email": "jill@x.com", "password": strings.Repeat("a", 80),
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperr.KindValidation, env.Kind)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "password", env.Errors[0].Field)
}

func TestRegister_ResponseNeverCarriesHash(t *testing.T) {
	api := newAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"name": "Jill", "email": "jill@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(env.Data), "password")
	assert.NotContains(t, string(env.Data), "$2a$")
}

func TestMalformedJSON(t *testing.T) {
	api := newAPI(t)

	status, env := api.do(t, http.MethodPost, "/api/auth", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperr.KindValidation, env.Kind)

	status, env = api.do(t, http.MethodPost, "/api/users", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "request body is required", env.Message)
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	huge := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(huge))
	rec := httptest.NewRecorder()

	var dst map[string]string
	err := decodeJSON(rec, req, &dst)

	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "request body is too large", err.(*apperr.Error).Message)
}

func TestCurrentUser(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "Jill", "jill@x.com", "secret1")

	status, env := api.do(t, http.MethodGet, "/api/auth", token, nil)
	require.Equal(t, http.StatusOK, status)
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "Jill", user.Name)
	assert.Equal(t, "jill@x.com", user.Email)

	status, env = api.do(t, http.MethodGet, "/api/auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apperr.KindTokenMissing, env.Kind)
}

func TestContacts_RequireToken(t *testing.T) {
	api := newAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/contacts"},
		{http.MethodPost, "/api/contacts"},
		{http.MethodGet, "/api/contacts/abc"},
		{http.MethodPut, "/api/contacts/abc"},
		{http.MethodDelete, "/api/contacts/abc"},
	} {
		status, env := api.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, tc.method+" "+tc.path)
		assert.Equal(t, apperr.KindTokenMissing, env.Kind)
	}
}

func TestContacts_ExpiredToken(t *testing.T) {
	api := newAPI(t)
	past := api.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	stale, err := past.Generate("someone")
	require.NoError(t, err)

	status, env := api.do(t, http.MethodGet, "/api/contacts", stale, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apperr.KindTokenExpired, env.Kind)
}

func TestContacts_CRUD(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "Jill", "jill@x.com", "secret1")

	created := api.createContact(t, token, map[string]string{
		"name": "Tom", "email": "tom@gmail.com", "phone": "333-333-3333",
	})
	assert.Equal(t, models.Personal, created.Type)

	status, env := api.do(t, http.MethodPut, "/api/contacts/"+created.ID, token, map[string]string{"type": "professional"})
	require.Equal(t, http.StatusOK, status)
	var updated models.Contact
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.Professional, updated.Type)
	assert.Equal(t, "tom@gmail.com", updated.Email)

	status, env = api.do(t, http.MethodGet, "/api/contacts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(t, http.MethodDelete, "/api/contacts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"msg":"Contact removed"}`, string(env.Data))

	status, env = api.do(t, http.MethodGet, "/api/contacts", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = api.do(t, http.MethodPut, "/api/contacts/"+created.ID, token, map[string]string{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperr.KindNotFound, env.Kind)
}

func TestContacts_CreateValidation(t *testing.T) {
	api := newAPI(t)
	token := api.register(t, "Jill", "jill@x.com", "secret1")

	status, env := api.do(t, http.MethodPost, "/api/contacts", token, map[string]string{"email": "tom@gmail.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "name", env.Errors[0].Field)
	assert.Equal(t, "Name is required", env.Errors[0].Message)
}

func TestContacts_OtherUserIsForbidden(t *testing.T) {
	api := newAPI(t)
	jill := api.register(t, "Jill", "jill@x.com", "secret1")
	mark := api.register(t, "Mark", "mark@x.com", "secret2")
	tom := api.createContact(t, jill, map[string]string{"name": "Tom"})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		status, env := api.do(t, method, "/api/contacts/"+tom.ID, mark, map[string]string{"name": "Hacked"})
		assert.Equal(t, http.StatusForbidden, status, method)
		assert.Equal(t, apperr.KindForbidden, env.Kind)
	}

	status, env := api.do(t, http.MethodGet, "/api/contacts", mark, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestHealthAndWelcome(t *testing.T) {
	api := newAPI(t)

	status, env := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"ok"`)

	status, env = api.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Welcome to the ContactKeeper API", env.Message)
}
