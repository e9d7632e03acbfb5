// Package service contains the business rules of the communities API.
//
// Layers:
//
//	Handler (HTTP)    → decodes requests, writes the envelope
//	Service (rules)   → validates input, enforces ownership and role checks
//	Repository (data) → reads and writes rows
//
// Services take repository interfaces, never a concrete database, so the
// tests in this package run against in-memory fakes. Every error a client
// can act on is an apperror; anything else is wrapped with context and ends
// up as INTERNAL_ERROR.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/auth"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/repository"
)

type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResult bundles the user record and the issued token so the handler
// can answer in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// AuthService handles signup, signin and the current-user lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	// dummyHash is compared against when the email is unknown so both
	// signin failures cost one bcrypt comparison.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup validates the input, stores a new user with a hashed password and
// issues a token. Every invalid field is reported at once. A taken email
// fails with apperror.ErrConflict on param "email", including when two
// signups race, since the unique index decides.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user signed up", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Signin checks the credentials and issues a token. An unknown email and a
// wrong password produce the same apperror.InvalidCredentials error.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.Verify(s.timingHash(), in.Password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.Password, in.Password); err != nil {
		s.logger.Info("signin rejected", slog.String("user_id", user.ID))
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user signed in", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Me reloads the signed-in user. A user deleted after the token was issued
// counts as not signed in.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.NotSignedIn()
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotSignedIn()
		}
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	return user, nil
}

func (s *AuthService) timingHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.passwords.Hash("not-a-real-password")
	})
	return s.dummyHash
}
