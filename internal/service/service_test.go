package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/contact-keeper/internal/auth"
	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/storage"
	"github.com/hongminglow/contact-keeper/internal/storage/bolt"
)

// --- helpers ---

func newBoltStore(t *testing.T) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", "contact-keeper", time.Hour)
}

func newUserService(store storage.UserStore) *UserService {
	return NewUserService(store, auth.NewPasswordHasher(bcrypt.MinCost), newTokenManager())
}

func ptr(s string) *string { return &s }

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}

// failingStore fails every call with a driver-level error.
type failingStore struct{ err error }

func (f failingStore) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, f.err
}
func (f failingStore) FindUserByID(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}
func (f failingStore) FindUserByEmail(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}
func (f failingStore) CreateContact(context.Context, models.Contact) (models.Contact, error) {
	return models.Contact{}, f.err
}
func (f failingStore) FindContact(context.Context, string) (models.Contact, error) {
	return models.Contact{}, f.err
}
func (f failingStore) ListContacts(context.Context, string) ([]models.Contact, error) {
	return nil, f.err
}
func (f failingStore) UpdateContact(context.Context, string, string, models.ContactPatch) (models.Contact, error) {
	return models.Contact{}, f.err
}
func (f failingStore) DeleteContact(context.Context, string) error { return f.err }

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
