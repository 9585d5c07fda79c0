package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/mail"
	"fintrack/internal/storage"
	"fintrack/internal/validation"
)

// ResetLinkSent acknowledges a forgot-password request.
const ResetLinkSent = "Password reset link sent"

var ErrInvalidCredentials = core.UnauthorizedError("Invalid credentials")

// Session is the login response: the public profile plus a bearer token.
type Session struct {
	core.Profile
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService handles signup, login and password reset requests.
type AuthService struct {
	users  storage.UserRepository
	hasher *auth.Hasher
	tokens *auth.Issuer
	mailer mail.Mailer
}

func NewAuthService(users storage.UserRepository, hasher *auth.Hasher, tokens *auth.Issuer, mailer mail.Mailer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
	}
}

// Signup registers a user and returns its public profile.
func (s *AuthService) Signup(ctx context.Context, body []byte) (core.Profile, error) {
	req, err := validation.SignupRequest(body)
	if err != nil {
		return core.Profile{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return core.Profile{}, core.ValidationError("Password", `"Password" length must be less than or equal to 72 bytes long`)
		}
		return core.Profile{}, err
	}

	u, err := s.users.CreateUser(ctx, core.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.Profile{}, err
		}
		return core.Profile{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return u.Profile(), nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, body []byte) (Session, error) {
	creds, err := validation.LoginRequest(body)
	if err != nil {
		return Session{}, err
	}

	u, err := s.users.FindUserByEmail(ctx, creds.Email)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return Session{}, fmt.Errorf("find user: %w", err)
		}
		s.hasher.Burn(creds.Password)
		slog.InfoContext(ctx, "Login failed", "reason", "unknown email")
		return Session{}, ErrInvalidCredentials
	}
	if !s.hasher.Matches(u.PasswordHash, creds.Password) {
		slog.InfoContext(ctx, "Login failed", "reason", "wrong password", "user_id", u.ID)
		return Session{}, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.IssueSession(u)
	if err != nil {
		return Session{}, err
	}

	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return Session{
		Profile:   u.Profile(),
		Name:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

// ForgotPassword mails a reset token to a registered user.
func (s *AuthService) ForgotPassword(ctx context.Context, body []byte) (string, error) {
	email, err := validation.ForgotPasswordRequest(body)
	if err != nil {
		return "", err
	}

	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.NotFoundError(storage.EntityUser)
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	token, expires, err := s.tokens.IssueReset(u)
	if err != nil {
		return "", err
	}

	msg := mail.Message{
		To:      []string{u.Email},
		Subject: "Reset your fintrack password",
		Text: fmt.Sprintf("Hi %s,\n\nUse this token to reset your password:\n\n%s\n\nIt expires at %s.\n",
			u.FirstName, token, expires.UTC().Format(time.RFC1123)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("send reset mail: %w", err)
	}

	slog.InfoContext(ctx, "Password reset issued", "user_id", u.ID)
	return ResetLinkSent, nil
}
