package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/contact-keeper/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures user persistence. Implementations must reject a second
// user with the same email with ErrAlreadyExists.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

// ContactStore captures contact persistence. It does not enforce ownership;
// that is the caller's job.
type ContactStore interface {
	CreateContact(ctx context.Context, contact models.Contact) (models.Contact, error)
	FindContact(ctx context.Context, id string) (models.Contact, error)
	// ListContacts returns the user's contacts, newest first.
	ListContacts(ctx context.Context, userID string) ([]models.Contact, error)
	// UpdateContact applies patch to the contact id owned by userID in one
	// atomic step. A contact owned by someone else is ErrNotFound.
	UpdateContact(ctx context.Context, userID, id string, patch models.ContactPatch) (models.Contact, error)
	DeleteContact(ctx context.Context, id string) error
}

// Store is a complete backend.
type Store interface {
	UserStore
	ContactStore
	Close() error
}
