package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/blogicum/internal/metrics"
	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/policy"
	"github.com/example/blogicum/internal/repository"
	"github.com/example/blogicum/internal/validation"
)

const usernameTaken = "A user with that username already exists."

type RegistrationInput struct {
	Username        string `form:"username" validate:"required,max=150,username"`
	Email           string `form:"email" validate:"omitempty,email,max=254"`
	Password        string `form:"password1" validate:"required,min=8,max=128"`
	PasswordConfirm string `form:"password2" validate:"required,eqfield=Password"`
}

type ProfileInput struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
}

func InputFromUser(u *models.User) ProfileInput {
	return ProfileInput{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type AccountService struct {
	store Store
	cache Cache
	cost  int
	log   zerolog.Logger
}

// Register creates a regular user account.
func (s *AccountService) Register(ctx context.Context, in RegistrationInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(&in).Err(); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Username, in.Email, in.Password, false)
}

// CreateUser creates an account outside the web flow, optionally as staff.
func (s *AccountService) CreateUser(ctx context.Context, username, email, password string, staff bool) (*models.User, error) {
	in := RegistrationInput{Username: username, Email: email, Password: password, PasswordConfirm: password}
	if err := validation.Struct(&in).Err(); err != nil {
		return nil, err
	}
	return s.create(ctx, username, email, password, staff)
}

func (s *AccountService) create(ctx context.Context, username, email, password string, staff bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Username: username, Email: email, PasswordHash: hash, IsStaff: staff}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, validation.Errors{"username": usernameTaken}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RecordWrite("user", "create")
	s.log.Info().Uint("user_id", user.ID).Str("username", username).Bool("staff", staff).Msg("user registered")
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if notFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func userKey(id uint) string { return fmt.Sprintf("user:%d", id) }

// User resolves a session's user id. The cached copy carries no password hash.
func (s *AccountService) User(ctx context.Context, id uint) (*models.User, error) {
	if s.cache != nil {
		var cached models.User
		if found, err := s.cache.GetJSON(ctx, userKey(id), &cached); err == nil && found {
			return &cached, nil
		}
	}
	user, err := s.store.GetUser(ctx, id)
	if notFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, userKey(id), user)
	}
	return user, nil
}

// ForEdit finds the profile named username and checks viewer owns it.
func (s *AccountService) ForEdit(ctx context.Context, viewer *models.User, username string) (*models.User, Outcome, error) {
	profile, err := s.store.GetUserByUsername(ctx, username)
	if notFound(err) {
		return nil, NotFound, nil
	}
	if err != nil {
		return nil, NotFound, fmt.Errorf("get user %q: %w", username, err)
	}
	if !policy.CanEditProfile(viewer, profile) {
		return profile, Forbidden, nil
	}
	return profile, Found, nil
}

// UpdateProfile edits the profile named username on behalf of its owner.
func (s *AccountService) UpdateProfile(ctx context.Context, viewer *models.User, username string, in ProfileInput) (*models.User, Outcome, error) {
	profile, outcome, err := s.ForEdit(ctx, viewer, username)
	if err != nil || outcome != Found {
		return profile, outcome, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(&in).Err(); err != nil {
		return profile, Found, err
	}

	updated := *profile
	updated.Username = in.Username
	updated.FirstName = strings.TrimSpace(in.FirstName)
	updated.LastName = strings.TrimSpace(in.LastName)
	updated.Email = in.Email
	if err := s.store.UpdateUser(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return profile, Found, validation.Errors{"username": usernameTaken}
		}
		if notFound(err) {
			return nil, NotFound, nil
		}
		return profile, Found, fmt.Errorf("update user %d: %w", profile.ID, err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, userKey(updated.ID)); err != nil {
			s.log.Warn().Err(err).Uint("user_id", updated.ID).Msg("user cache invalidation failed")
		}
	}
	metrics.RecordWrite("user", "update")
	s.log.Info().Uint("user_id", updated.ID).Str("username", updated.Username).Msg("profile updated")
	return &updated, Found, nil
}
