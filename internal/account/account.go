// Package account implements registration with e-mail verification, login
// and the maintenance of unverified accounts.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"textbookexchange/backend/internal/apperr"
	"textbookexchange/backend/internal/auth"
	"textbookexchange/backend/internal/mail"
	"textbookexchange/backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Store is the subset of storage.Storage the account service needs.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	MarkUserVerified(ctx context.Context, id uint) error
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	SaveVerificationToken(ctx context.Context, token string, userID uint, ttl time.Duration) error
	ConsumeVerificationToken(ctx context.Context, token string) (uint, error)
}

// RegisterRequest is the sign-up payload. The binding tags are shared with
// gin's request binding.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	Username  string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type Options struct {
	VerificationTTL time.Duration
	VerifyURLBase   string
}

// Service handles the business logic for accounts.
type Service struct {
	store    Store
	tokens   *auth.TokenService
	mailer   mail.Mailer
	log      *slog.Logger
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a new account service.
func NewService(store Store, tokens *auth.TokenService, mailer mail.Mailer, log *slog.Logger, opts Options) *Service {
	validate := validator.New()
	validate.SetTagName("binding")
	return &Service{
		store:    store,
		tokens:   tokens,
		mailer:   mailer,
		log:      log,
		opts:     opts,
		validate: validate,
		now:      time.Now,
	}
}

// NormalizeEmail returns the form e-mails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and mails a verification link.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	exists, err := s.store.UserExists(ctx, req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("user %w", apperr.ErrConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Verified:     false,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := s.store.SaveVerificationToken(ctx, token, user.ID, s.opts.VerificationTTL); err != nil {
		s.log.Error("Failed to store verification token", "user_id", user.ID, "error", err)
		s.discard(ctx, user.ID)
		return nil, fmt.Errorf("store verification token: %w", err)
	}

	link := s.opts.VerifyURLBase + "?token=" + url.QueryEscape(token)
	body := "Copy the link in your browser to verify your account: " + link
	if err := s.mailer.Send(ctx, user.Email, "Verify your account", body); err != nil {
		s.log.Error("Failed to send verification email", "user_id", user.ID, "error", err)
		s.discard(ctx, user.ID)
		return nil, fmt.Errorf("send verification email: %w", err)
	}

	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

// discard removes an account whose verification could not be delivered so
// the same e-mail and username can register again.
func (s *Service) discard(ctx context.Context, id uint) {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		s.log.Error("Failed to remove undeliverable account", "user_id", id, "error", err)
	}
}

// User returns the account with the given id.
func (s *Service) User(ctx context.Context, id uint) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// Verify consumes a verification token and marks its account verified.
func (s *Service) Verify(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.Validation("verification token is required")
	}
	userID, err := s.store.ConsumeVerificationToken(ctx, token)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation("invalid or expired token")
	}
	if err != nil {
		return err
	}
	if err := s.store.MarkUserVerified(ctx, userID); err != nil {
		return err
	}
	s.log.Info("User verified", "user_id", userID)
	return nil
}

// Login checks the credentials and returns a bearer token. Unknown e-mails
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", apperr.ErrInvalidCredentials
	}
	if !user.Verified {
		return "", apperr.ErrNotVerified
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("token generation: %w", err)
	}
	return token, nil
}

// CurrentUser returns the verified user behind id.
func (s *Service) CurrentUser(id auth.Identity) (*models.User, error) {
	switch id.Kind() {
	case auth.Authenticated:
		user, _ := id.User()
		if !user.Verified {
			return nil, apperr.ErrNotVerified
		}
		return user, nil
	case auth.Anonymous:
		return nil, apperr.ErrUnauthenticated
	default:
		return nil, apperr.ErrUnauthenticated
	}
}

// PurgeUnverified deletes accounts left unverified for longer than maxAge.
func (s *Service) PurgeUnverified(ctx context.Context, maxAge time.Duration) (int64, error) {
	deleted, err := s.store.DeleteUnverifiedBefore(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("purge unverified users: %w", err)
	}
	if deleted > 0 {
		s.log.Info("Purged unverified users", "count", deleted)
	}
	return deleted, nil
}

// RunPurger calls PurgeUnverified every interval until ctx is done.
func (s *Service) RunPurger(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeUnverified(ctx, maxAge); err != nil {
				s.log.Error("Unverified user sweep failed", "error", err)
			}
		}
	}
}
