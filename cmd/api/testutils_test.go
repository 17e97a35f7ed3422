package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/cinescope/internal/auth"
	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "pa55word123"

// sentMail is one message handed to the recording mailer.
type sentMail struct {
	recipient string
	template  string
	data      any
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{recipient, templateFile, data})
	return nil
}

func (m *recordingMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail{}, m.sent...)
}

type testApp struct {
	*application
	mail    *recordingMailer
	handler http.Handler
}

func newTestApplication(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Driver = "memory"
	cfg.Limiter.Enabled = false

	tokens, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	require.NoError(t, err)

	mail := &recordingMailer{}
	app := &application{
		config: cfg,
		logger: jsonlog.NewLogger(io.Discard, jsonlog.LevelOff),
		models: data.NewMemoryModels(),
		mailer: mail,
		tokens: tokens,
	}

	return &testApp{application: app, mail: mail, handler: app.routes()}
}

// response is a recorded reply with its body decoded into a generic map.
type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    []byte
}

// request sends body (marshalled to JSON unless it is a string) through the
// full middleware chain. A non-empty token goes in the Authorization header.
// headers holds extra key, value pairs.
func (ta *testApp) request(t *testing.T, method, path string, body any, token string, headers ...string) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)

	res := response{status: rr.Code, header: rr.Header(), raw: rr.Body.Bytes()}
	if len(res.raw) > 0 && rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(res.raw, &res.body))
	}
	return res
}

// decode unmarshals the named envelope key into dst.
func (r response) decode(t *testing.T, key string, dst any) {
	t.Helper()

	js, err := json.Marshal(r.body[key])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(js, dst))
}

// createUser stores a user with testPassword and returns it with a valid token.
func (ta *testApp) createUser(t *testing.T, name, email string, admin bool) (*data.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &data.User{Name: name, Email: email, PasswordHash: hash, IsAdmin: admin}
	require.NoError(t, ta.models.Users.Insert(context.Background(), user))

	token, _, err := ta.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, token
}

func (ta *testApp) createMovie(t *testing.T, title string, year int32, genres ...string) *data.Movie {
	t.Helper()

	movie := &data.Movie{Title: title, Year: year, Genres: genres}
	require.NoError(t, ta.models.Movies.Insert(context.Background(), movie))
	return movie
}
