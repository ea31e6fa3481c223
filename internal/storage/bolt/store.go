// Package bolt is an embedded document store for users and contacts built on
// BoltDB. Records are JSON documents keyed by id; secondary indexes live in
// their own buckets and are maintained in the same write transaction.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/storage"
)

var _ storage.Store = (*Store)(nil)

var (
	usersBucket          = []byte("users")
	usersByEmailBucket   = []byte("users_by_email")
	contactsBucket       = []byte("contacts")
	contactsByUserBucket = []byte("contacts_by_user")
)

// Store provides a BoltDB-backed document store.
type Store struct {
	db *bbolt.DB
}

type userDoc struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"date"`
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{usersBucket, usersByEmailBucket, contactsBucket, contactsByUserBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// CreateUser stores a new user. The email index check and both writes happen
// in one transaction, so concurrent registrations of one email cannot both win.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	if strings.TrimSpace(user.ID) == "" {
		return models.User{}, fmt.Errorf("user id is required")
	}

	payload, err := json.Marshal(userDoc(user))
	if err != nil {
		return models.User{}, fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		byEmail := tx.Bucket(usersByEmailBucket)
		if byEmail.Get([]byte(user.Email)) != nil {
			return storage.ErrAlreadyExists
		}
		users := tx.Bucket(usersBucket)
		if users.Get([]byte(user.ID)) != nil {
			return storage.ErrAlreadyExists
		}
		if err := users.Put([]byte(user.ID), payload); err != nil {
			return err
		}
		return byEmail.Put([]byte(user.Email), []byte(user.ID))
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// FindUserByID fetches a user by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	var user models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = getUser(tx, []byte(id))
		return err
	})
	return user, err
}

// FindUserByEmail fetches a user through the email index.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	var user models.User
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(usersByEmailBucket).Get([]byte(email))
		if id == nil {
			return storage.ErrNotFound
		}
		var err error
		user, err = getUser(tx, id)
		return err
	})
	return user, err
}

func getUser(tx *bbolt.Tx, id []byte) (models.User, error) {
	payload := tx.Bucket(usersBucket).Get(id)
	if payload == nil {
		return models.User{}, storage.ErrNotFound
	}
	var doc userDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return models.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return models.User(doc), nil
}

// CreateContact stores a new contact and indexes it under its owner.
func (s *Store) CreateContact(ctx context.Context, contact models.Contact) (models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return models.Contact{}, err
	}
	if strings.TrimSpace(contact.ID) == "" {
		return models.Contact{}, fmt.Errorf("contact id is required")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(contactsBucket).Get([]byte(contact.ID)) != nil {
			return storage.ErrAlreadyExists
		}
		return putContact(tx, contact)
	})
	if err != nil {
		return models.Contact{}, err
	}
	return contact, nil
}

// FindContact fetches a contact by id regardless of owner.
func (s *Store) FindContact(ctx context.Context, id string) (models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return models.Contact{}, err
	}
	var contact models.Contact
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		contact, err = getContact(tx, []byte(id))
		return err
	})
	return contact, err
}

// ListContacts returns the user's contacts ordered newest first.
func (s *Store) ListContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contacts := []models.Contact{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		index := tx.Bucket(contactsByUserBucket).Bucket([]byte(userID))
		if index == nil {
			return nil
		}
		return index.ForEach(func(k, _ []byte) error {
			contact, err := getContact(tx, k)
			if err != nil {
				return err
			}
			contacts = append(contacts, contact)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(contacts)
	return contacts, nil
}

// UpdateContact merges patch into the stored document inside one write transaction.
func (s *Store) UpdateContact(ctx context.Context, userID, id string, patch models.ContactPatch) (models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return models.Contact{}, err
	}
	var updated models.Contact
	err := s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getContact(tx, []byte(id))
		if err != nil {
			return err
		}
		if existing.UserID != userID {
			return storage.ErrNotFound
		}
		updated = patch.Apply(existing)
		return putContact(tx, updated)
	})
	if err != nil {
		return models.Contact{}, err
	}
	return updated, nil
}

// DeleteContact removes the contact and its index entry.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		existing, err := getContact(tx, []byte(id))
		if err != nil {
			return err
		}
		if index := tx.Bucket(contactsByUserBucket).Bucket([]byte(existing.UserID)); index != nil {
			if err := index.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return tx.Bucket(contactsBucket).Delete([]byte(id))
	})
}

func putContact(tx *bbolt.Tx, contact models.Contact) error {
	payload, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}
	if err := tx.Bucket(contactsBucket).Put([]byte(contact.ID), payload); err != nil {
		return err
	}
	index, err := tx.Bucket(contactsByUserBucket).CreateBucketIfNotExists([]byte(contact.UserID))
	if err != nil {
		return fmt.Errorf("create owner index: %w", err)
	}
	return index.Put([]byte(contact.ID), []byte{})
}

func getContact(tx *bbolt.Tx, id []byte) (models.Contact, error) {
	payload := tx.Bucket(contactsBucket).Get(id)
	if payload == nil {
		return models.Contact{}, storage.ErrNotFound
	}
	var contact models.Contact
	if err := json.Unmarshal(payload, &contact); err != nil {
		return models.Contact{}, fmt.Errorf("unmarshal contact: %w", err)
	}
	return contact, nil
}

func sortNewestFirst(contacts []models.Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i], contacts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
