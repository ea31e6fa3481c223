// Package service holds the credential manager and the ownership-scoped
// contact gateway. Every error it returns is an *apperr.Error.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hongminglow/contact-keeper/internal/apperr"
	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/storage"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest input bcrypt will hash.
const MaxPasswordBytes = 72

// UserService registers and authenticates users.
type UserService struct {
	users  storage.UserStore
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	now    func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users storage.UserStore, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, now: time.Now}
}

// Register creates a user and returns it with a fresh session token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	var fields []apperr.FieldError
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name is required"})
	}
	if !validEmail(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Enter a valid password with 6 or more characters"})
	} else if len(password) > MaxPasswordBytes {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be at most 72 bytes"})
	}
	if len(fields) > 0 {
		return models.User{}, "", apperr.Validation(fields...)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, "", apperr.Wrap(apperr.KindStoreUnavailable, "failed to hash password", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, "", apperr.Wrap(apperr.KindDuplicateUser, "User already exists", err)
		}
		return models.User{}, "", apperr.Wrap(apperr.KindStoreUnavailable, "failed to create user", err)
	}

	token, err := s.issue(created.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return created, token, nil
}

// Authenticate verifies credentials and returns a session token. Unknown
// emails and wrong passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	var fields []apperr.FieldError
	if !validEmail(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Please include a valid email"})
	}
	if password == "" {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(fields) > 0 {
		return "", apperr.Validation(fields...)
	}

	invalid := apperr.New(apperr.KindInvalidCredentials, "Invalid Credentials")

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return "", invalid
		}
		return "", apperr.Wrap(apperr.KindStoreUnavailable, "failed to fetch user", err)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStoreUnavailable, "stored password hash is unreadable", err)
	}
	if !ok {
		return "", invalid
	}
	return s.issue(user.ID)
}

// CurrentUser returns the user a verified token refers to.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, apperr.Wrap(apperr.KindNotFound, "User not found", err)
		}
		return models.User{}, apperr.Wrap(apperr.KindStoreUnavailable, "failed to fetch user", err)
	}
	return user, nil
}

func (s *UserService) issue(userID string) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStoreUnavailable, "failed to generate token", err)
	}
	return token, nil
}

// NormalizeEmail trims and lower-cases an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
