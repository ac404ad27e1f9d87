package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"textbookexchange/backend/internal/account"
	"textbookexchange/backend/internal/api/handler"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/chathub"
	"textbookexchange/backend/internal/listing"
	"textbookexchange/backend/internal/mail"
	"textbookexchange/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret-with-32-bytes-min"

type testEnv struct {
	router *gin.Engine
	store  *MockStorage
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := new(MockStorage)
	tokens := auth.NewTokenService(testSecret, time.Hour)

	accounts := account.NewService(store, tokens, &mail.LogMailer{Log: log}, log, account.Options{
		VerificationTTL: time.Hour,
		VerifyURLBase:   "http://localhost:3000/verify",
	})
	listings := listing.NewService(store, log)

	ctx, cancel := context.WithCancel(context.Background())
	hub := chathub.NewManagerService(log)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	relay := chathub.NewRelay(store, hub, log)

	gate := auth.NewGate(tokens, store, log, handler.PublicRoutes...)
	h := handler.NewHandler(ctx, accounts, listings, store, hub, relay, gate, log, nil)
	router, err := handler.NewRouter(h, gate, []string{"http://localhost:3000"})
	require.NoError(t, err)

	return &testEnv{router: router, store: store, tokens: tokens}
}

// tokenFor makes the gate accept user and returns a bearer token for it.
func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	e.store.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil)
	token, err := e.tokens.Issue(user.Email)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func verifiedUser(id uint, username string) *models.User {
	return &models.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Verified: true,
		Roles:    pq.StringArray{models.RoleUser},
	}
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
