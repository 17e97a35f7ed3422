package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hafizmfadli/cinescope/internal/auth"
	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func sessionCookie(t *testing.T, header http.Header) *http.Cookie {
	t.Helper()

	for _, c := range (&http.Response{Header: header}).Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestRegisterUser(t *testing.T) {
	app := newTestApplication(t)

	body := map[string]any{"name": "Alice", "email": " Alice@Example.com ", "password": testPassword}
	res := app.request(t, http.MethodPost, "/api/v1/users", body, "")
	require.Equal(t, http.StatusCreated, res.status)

	var user data.User
	res.decode(t, "user", &user)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.NotContains(t, string(res.raw), "password")

	cookie := sessionCookie(t, res.header)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, res.body["token"], cookie.Value)

	userID, err := app.tokens.Verify(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	app.wg.Wait()
	sent := app.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].recipient)
	assert.Equal(t, "user_welcome.tmpl", sent[0].template)

	res = app.request(t, http.MethodPost, "/api/v1/users", body, "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Equal(t, map[string]any{"email": "a user with this email address already exists"}, res.body["error"])
}

func TestRegisterUserValidation(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name string
		body map[string]any
		key  string
	}{
		{"short password", map[string]any{"name": "A", "email": "a@example.com", "password": "short"}, "password"},
		{"long password", map[string]any{"name": "A", "email": "a@example.com", "password": strings.Repeat("x", 73)}, "password"},
		{"bad email", map[string]any{"name": "A", "email": "not-an-email", "password": testPassword}, "email"},
		{"missing name", map[string]any{"email": "a@example.com", "password": testPassword}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := app.request(t, http.MethodPost, "/api/v1/users", tt.body, "")
			require.Equal(t, http.StatusUnprocessableEntity, res.status)
			assert.Contains(t, res.body["error"], tt.key)
		})
	}
}

func TestLoginUser(t *testing.T) {
	app := newTestApplication(t)
	user, _ := app.createUser(t, "Alice", "alice@example.com", false)
	blocked, _ := app.createUser(t, "Mallory", "mallory@example.com", false)
	blocked.IsBlocked = true
	require.NoError(t, app.models.Users.Update(context.Background(), blocked))

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"valid", "ALICE@example.com", testPassword, http.StatusOK},
		{"wrong password", "alice@example.com", "wrong-password", http.StatusUnauthorized},
		{"unknown email", "nobody@example.com", testPassword, http.StatusUnauthorized},
		{"blocked", "mallory@example.com", testPassword, http.StatusForbidden},
		{"missing password", "alice@example.com", "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := app.request(t, http.MethodPost, "/api/v1/users/login",
				map[string]any{"email": tt.email, "password": tt.password}, "")
			assert.Equal(t, tt.status, res.status)
		})
	}

	res := app.request(t, http.MethodPost, "/api/v1/users/login",
		map[string]any{"email": "alice@example.com", "password": testPassword}, "")
	var got data.User
	res.decode(t, "user", &got)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, res.body["expires_at"])
	sessionCookie(t, res.header)
}

func TestSeededAdminCanLogIn(t *testing.T) {
	app := newTestApplication(t)

	_, created, err := seed.New(app.models, app.logger).Admin(context.Background(),
		config.AdminConfig{Name: "Root", Email: "Admin@CineScope.test", Password: "supersecret1"})
	require.NoError(t, err)
	require.True(t, created)

	res := app.request(t, http.MethodPost, "/api/v1/users/login",
		map[string]any{"email": "Admin@CineScope.test", "password": "supersecret1"}, "")
	require.Equal(t, http.StatusOK, res.status)

	var user data.User
	res.decode(t, "user", &user)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "admin@cinescope.test", user.Email)
}

func TestValidationMessages(t *testing.T) {
	app := newTestApplication(t)
	admin, adminToken := app.createUser(t, "Root", "root@example.com", true)
	_, token := app.createUser(t, "Alice", "alice@example.com", false)
	movie := app.createMovie(t, "Heat", 1995)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   map[string]any
		want   map[string]any
	}{
		{
			"register", http.MethodPost, "/api/v1/users", "",
			map[string]any{"name": "  ", "email": "nope", "password": "short"},
			map[string]any{
				"name":     "must be provided",
				"email":    "must be a valid email address",
				"password": "must be at least 8 bytes long",
			},
		},
		{
			"login", http.MethodPost, "/api/v1/users/login", "",
			map[string]any{"email": ""},
			map[string]any{"email": "must be provided", "password": "must be provided"},
		},
		{
			"profile password", http.MethodPut, "/api/v1/users/profile", token,
			map[string]any{"password": strings.Repeat("x", 73)},
			map[string]any{"password": "must not be more than 72 bytes long"},
		},
		{
			"review", http.MethodPost, "/api/v1/movies/" + movie.ID.Hex() + "/reviews", token,
			map[string]any{"rating": 6, "comment": strings.Repeat("x", 2001)},
			map[string]any{
				"rating":  "must be less than or equal to 5",
				"comment": "must not be more than 2000 bytes long",
			},
		},
		{
			"block", http.MethodPatch, "/api/v1/admin/users/" + admin.ID.Hex() + "/block", adminToken,
			map[string]any{},
			map[string]any{"is_blocked": "must be provided"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := app.request(t, tt.method, tt.path, tt.body, tt.token)
			require.Equal(t, http.StatusUnprocessableEntity, res.status)
			assert.Equal(t, tt.want, res.body["error"])
		})
	}
}

func TestCookieAuthenticationAndLogout(t *testing.T) {
	app := newTestApplication(t)
	_, token := app.createUser(t, "Alice", "alice@example.com", false)

	req := func(cookie string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
		if cookie != "" {
			r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie})
		}
		rr := httptest.NewRecorder()
		app.handler.ServeHTTP(rr, r)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, req(token))
	assert.Equal(t, http.StatusUnauthorized, req(""))
	assert.Equal(t, http.StatusUnauthorized, req("tampered"))

	res := app.request(t, http.MethodPost, "/api/v1/users/logout", nil, "")
	require.Equal(t, http.StatusOK, res.status)
	cleared := sessionCookie(t, res.header)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestTokenForDeletedUser(t *testing.T) {
	app := newTestApplication(t)

	token, _, err := app.tokens.Issue(bson.NewObjectID())
	require.NoError(t, err)

	res := app.request(t, http.MethodGet, "/api/v1/users/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestUpdateProfile(t *testing.T) {
	app := newTestApplication(t)
	_, token := app.createUser(t, "Alice", "alice@example.com", false)
	app.createUser(t, "Bob", "bob@example.com", false)

	genres := []string{" drama ", "", "comedy", "a", "b", "c", "d", "e", "f", "g", "h", "i"}
	res := app.request(t, http.MethodPut, "/api/v1/users/profile",
		map[string]any{"name": "Alice Cooper", "favorite_genres": genres}, token)
	require.Equal(t, http.StatusOK, res.status)

	var user data.User
	res.decode(t, "user", &user)
	assert.Equal(t, "Alice Cooper", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []string{"drama", "comedy", "a", "b", "c", "d", "e", "f", "g", "h"}, user.FavoriteGenres)

	res = app.request(t, http.MethodPut, "/api/v1/users/profile", map[string]any{"email": "bob@example.com"}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = app.request(t, http.MethodPut, "/api/v1/users/profile", map[string]any{"password": "short"}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = app.request(t, http.MethodPut, "/api/v1/users/profile", map[string]any{"password": "a-new-password"}, token)
	require.Equal(t, http.StatusOK, res.status)

	res = app.request(t, http.MethodPost, "/api/v1/users/login",
		map[string]any{"email": "alice@example.com", "password": "a-new-password"}, "")
	assert.Equal(t, http.StatusOK, res.status)

	res = app.request(t, http.MethodGet, "/api/v1/users/profile", nil, token)
	res.decode(t, "user", &user)
	assert.Equal(t, "Alice Cooper", user.Name)
}

func TestAdminUsers(t *testing.T) {
	app := newTestApplication(t)
	admin, adminToken := app.createUser(t, "Root", "root@example.com", true)
	alice, aliceToken := app.createUser(t, "Alice", "alice@example.com", false)

	res := app.request(t, http.MethodGet, "/api/v1/admin/users", nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = app.request(t, http.MethodGet, "/api/v1/admin/users", nil, adminToken)
	require.Equal(t, http.StatusOK, res.status)
	var users []data.User
	res.decode(t, "users", &users)
	assert.Len(t, users, 2)
	assert.NotContains(t, string(res.raw), "password")

	blockPath := "/api/v1/admin/users/" + alice.ID.Hex() + "/block"

	res = app.request(t, http.MethodPatch, blockPath, map[string]any{}, adminToken)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = app.request(t, http.MethodPatch, "/api/v1/admin/users/"+admin.ID.Hex()+"/block",
		map[string]any{"is_blocked": true}, adminToken)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = app.request(t, http.MethodPatch, "/api/v1/admin/users/"+bson.NewObjectID().Hex()+"/block",
		map[string]any{"is_blocked": true}, adminToken)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = app.request(t, http.MethodPatch, blockPath, map[string]any{"is_blocked": true}, adminToken)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "user blocked", res.body["message"])

	app.wg.Wait()
	sent := app.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].recipient)
	assert.Equal(t, "account_blocked.tmpl", sent[0].template)

	res = app.request(t, http.MethodGet, "/api/v1/users/profile", nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, res.status)

	// Blocking again sends no second email.
	res = app.request(t, http.MethodPatch, blockPath, map[string]any{"is_blocked": true}, adminToken)
	require.Equal(t, http.StatusOK, res.status)
	app.wg.Wait()
	assert.Len(t, app.mail.messages(), 1)

	res = app.request(t, http.MethodPatch, blockPath, map[string]any{"is_blocked": false}, adminToken)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "user unblocked", res.body["message"])

	res = app.request(t, http.MethodGet, "/api/v1/users/profile", nil, aliceToken)
	assert.Equal(t, http.StatusOK, res.status)
}
