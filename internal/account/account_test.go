package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"textbookexchange/backend/internal/account"
	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-at-least-32-bytes!"

func newTestService(store *MockStore, mailer *MockMailer) (*account.Service, *auth.TokenService) {
	tokens := auth.NewTokenService(testSecret, time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := account.NewService(store, tokens, mailer, log, account.Options{
		VerificationTTL: time.Hour,
		VerifyURLBase:   "http://localhost:3000/verify",
	})
	return svc, tokens
}

func validRegistration() account.RegisterRequest {
	return account.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		Email:     "Ada@Example.com ",
		Password:  "analytical-engine",
	}
}

func userWithPassword(t *testing.T, password string, verified bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{ID: 1, Username: "ada", Email: "ada@example.com", PasswordHash: hash, Verified: verified}
}

func TestRegister_CreatesUnverifiedUserAndMailsLink(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, _ := newTestService(store, mailer)

	var token string
	store.On("UserExists", mock.Anything, "ada@example.com", "ada").Return(false, nil)
	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ada@example.com" && !u.Verified && u.PasswordHash != "analytical-engine"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 1
	}).Return(nil)
	store.On("SaveVerificationToken", mock.Anything, mock.AnythingOfType("string"), uint(1), time.Hour).
		Run(func(args mock.Arguments) { token = args.String(1) }).
		Return(nil)
	mailer.On("Send", mock.Anything, "ada@example.com", "Verify your account", mock.AnythingOfType("string")).Return(nil)

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, uint(1), user.ID)
	assert.False(t, user.Verified)
	require.NotEmpty(t, token)
	body := mailer.Calls[0].Arguments.String(3)
	assert.True(t, strings.Contains(body, "http://localhost:3000/verify?token="+token), body)
	store.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestRegister_Conflict(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, _ := newTestService(store, mailer)
	store.On("UserExists", mock.Anything, "ada@example.com", "ada").Return(true, nil)

	_, err := svc.Register(context.Background(), validRegistration())

	assert.ErrorIs(t, err, apperr.ErrConflict)
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_Validation(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, _ := newTestService(store, mailer)

	req := validRegistration()
	req.Email = "not-an-email"
	req.Password = "short"

	_, err := svc.Register(context.Background(), req)

	assert.ErrorIs(t, err, apperr.ErrValidation)
	var fields validator.ValidationErrors
	require.True(t, errors.As(err, &fields))
	assert.Len(t, fields, 2)
	store.AssertNotCalled(t, "UserExists", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_DeliveryFailureRemovesAccount(t *testing.T) {
	tests := []struct {
		name      string
		tokenErr  error
		mailErr   error
		wantMails int
	}{
		{"verification token not stored", errors.New("redis down"), nil, 0},
		{"mail not sent", nil, errors.New("smtp down"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mailer := new(MockStore), new(MockMailer)
			svc, _ := newTestService(store, mailer)
			store.On("UserExists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
			store.On("CreateUser", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				args.Get(1).(*models.User).ID = 6
			}).Return(nil)
			store.On("SaveVerificationToken", mock.Anything, mock.Anything, uint(6), time.Hour).Return(tt.tokenErr)
			store.On("DeleteUser", mock.Anything, uint(6)).Return(nil)
			mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.mailErr)

			_, err := svc.Register(context.Background(), validRegistration())

			require.Error(t, err)
			assert.Equal(t, 500, apperr.Status(err))
			store.AssertCalled(t, "DeleteUser", mock.Anything, uint(6))
			mailer.AssertNumberOfCalls(t, "Send", tt.wantMails)
		})
	}
}

func TestUser(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, _ := newTestService(store, mailer)
	store.On("GetUserByID", mock.Anything, uint(2)).Return(&models.User{ID: 2, Username: "bob"}, nil)
	store.On("GetUserByID", mock.Anything, uint(3)).Return(nil, apperr.NotFound("user"))

	user, err := svc.User(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)

	_, err = svc.User(context.Background(), 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVerify(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, _ := newTestService(store, mailer)
	store.On("ConsumeVerificationToken", mock.Anything, "good").Return(uint(4), nil)
	store.On("MarkUserVerified", mock.Anything, uint(4)).Return(nil)
	store.On("ConsumeVerificationToken", mock.Anything, "stale").Return(uint(0), apperr.NotFound("verification token"))

	assert.NoError(t, svc.Verify(context.Background(), "good"))

	err := svc.Verify(context.Background(), "stale")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	err = svc.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	store.AssertExpectations(t)
}

func TestLogin_VerifiedUserGetsToken(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, tokens := newTestService(store, mailer)
	store.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(userWithPassword(t, "analytical-engine", true), nil)

	token, err := svc.Login(context.Background(), "ada@example.com", "analytical-engine")
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.True(t, tokens.IsTokenValid(token, "ada@example.com"))
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		user     func(t *testing.T) (*models.User, error)
		password string
		want     error
	}{
		{
			name:     "unverified user",
			user:     func(t *testing.T) (*models.User, error) { return userWithPassword(t, "analytical-engine", false), nil },
			password: "analytical-engine",
			want:     apperr.ErrNotVerified,
		},
		{
			name:     "wrong password",
			user:     func(t *testing.T) (*models.User, error) { return userWithPassword(t, "analytical-engine", true), nil },
			password: "difference-engine",
			want:     apperr.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			user:     func(*testing.T) (*models.User, error) { return nil, apperr.NotFound("user") },
			password: "analytical-engine",
			want:     apperr.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mailer := new(MockStore), new(MockMailer)
			svc, _ := newTestService(store, mailer)
			user, err := tt.user(t)
			store.On("GetUserByEmail", mock.Anything, "ada@example.com").Return(user, err)

			token, err := svc.Login(context.Background(), "ada@example.com", tt.password)

			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, token, "no token may leak on failure")
			assert.Equal(t, 401, apperr.Status(err))
		})
	}
}

func TestCurrentUser(t *testing.T) {
	svc, _ := newTestService(new(MockStore), new(MockMailer))

	_, err := svc.CurrentUser(auth.AnonymousIdentity())
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.CurrentUser(auth.AuthenticatedIdentity(&models.User{ID: 1}))
	assert.ErrorIs(t, err, apperr.ErrNotVerified)

	user, err := svc.CurrentUser(auth.AuthenticatedIdentity(&models.User{ID: 1, Verified: true}))
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
}

func TestPurgeUnverified(t *testing.T) {
	store, mailer := new(MockStore), new(MockMailer)
	svc, _ := newTestService(store, mailer)
	before := time.Now()
	store.On("DeleteUnverifiedBefore", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		expected := before.Add(-24 * time.Hour)
		return !cutoff.Before(expected) && cutoff.Sub(expected) < time.Minute
	})).Return(int64(2), nil)

	deleted, err := svc.PurgeUnverified(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	store.AssertExpectations(t)
}
