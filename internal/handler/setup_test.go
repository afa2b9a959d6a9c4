package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devblog/internal/auth"
	"github.com/sakif/devblog/internal/handler"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository/sqlite"
	"github.com/sakif/devblog/internal/service"
)

const testSecret = "handler-test-secret-0123456789"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stepClock hands out strictly increasing timestamps so listing order is
// the order posts were created in.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// testEnv wires real services over an in-memory SQLite store behind a chi
// router laid out like the production one.
type testEnv struct {
	router http.Handler
	db     *sqlite.DB
	tokens *auth.TokenService
	auth   *service.AuthService
	stream *handler.StreamHandler
	alice  *model.User
	bob    *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	db, err := sqlite.New(":memory:", logger, sqlite.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	alice := &model.User{GitHubID: 1, Login: "alice", Email: "alice@example.com", DisplayName: "Alice"}
	bob := &model.User{GitHubID: 2, Login: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Upsert(context.Background(), alice))
	require.NoError(t, db.Upsert(context.Background(), bob))

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)

	authService := service.NewAuthService(db.Users(), tokens, logger)
	postService := service.NewPostService(db.Posts(), logger)
	commentService := service.NewCommentService(db.Comments(), db.Posts(), logger)

	posts := handler.NewPostHandler(postService, authService, logger)
	comments := handler.NewCommentHandler(commentService, authService, logger)
	stream := handler.NewStreamHandler(postService, logger)

	r := chi.NewRouter()
	r.Use(auth.OptionalAuth(tokens))
	r.Get("/api/posts", posts.HandleList)
	r.Get("/api/posts/page", posts.HandlePage)
	r.Get("/api/posts/stream", stream.HandleStream)
	r.Get("/api/posts/{id}", posts.HandleGet)
	r.Post("/api/posts", posts.HandleCreate)
	r.Put("/api/posts/{id}", posts.HandleUpdate)
	r.Delete("/api/posts/{id}", posts.HandleDelete)
	r.Get("/api/posts/{id}/comments", comments.HandleList)
	r.Post("/api/posts/{id}/comments", comments.HandleCreate)
	r.Put("/api/comments/{id}", comments.HandleUpdate)
	r.Delete("/api/comments/{id}", comments.HandleDelete)

	return &testEnv{
		router: r,
		db:     db,
		tokens: tokens,
		auth:   authService,
		stream: stream,
		alice:  alice,
		bob:    bob,
	}
}

// request builds a request, signed in as user when user is not nil.
func (e *testEnv) request(t *testing.T, method, path, body string, user *model.User) *http.Request {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := e.tokens.Generate(user.ID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	return req
}

func (e *testEnv) do(t *testing.T, method, path, body string, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, e.request(t, method, path, body, user))
	return rec
}
