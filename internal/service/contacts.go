package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/contact-keeper/internal/apperr"
	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/storage"
)

// ContactFields is caller input for create and update. A nil field was not supplied.
type ContactFields struct {
	Name  *string
	Email *string
	Phone *string
	Type  *string
}

// ContactService performs contact CRUD scoped to the owning user.
type ContactService struct {
	contacts storage.ContactStore
	now      func() time.Time
}

// NewContactService constructs a ContactService.
func NewContactService(contacts storage.ContactStore) *ContactService {
	return &ContactService{contacts: contacts, now: time.Now}
}

// List returns the user's contacts, newest first.
func (s *ContactService) List(ctx context.Context, userID string) ([]models.Contact, error) {
	contacts, err := s.contacts.ListContacts(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "failed to list contacts", err)
	}
	return contacts, nil
}

// Create stores a new contact owned by userID. Type defaults to personal.
func (s *ContactService) Create(ctx context.Context, userID string, in ContactFields) (models.Contact, error) {
	if in.Name == nil {
		in.Name = new(string)
	}
	patch, err := toPatch(in)
	if err != nil {
		return models.Contact{}, err
	}

	contact := patch.Apply(models.Contact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.Personal,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	})
	created, err := s.contacts.CreateContact(ctx, contact)
	if err != nil {
		return models.Contact{}, apperr.Wrap(apperr.KindStoreUnavailable, "failed to create contact", err)
	}
	return created, nil
}

// Get returns one contact if userID owns it.
func (s *ContactService) Get(ctx context.Context, userID, id string) (models.Contact, error) {
	return s.owned(ctx, userID, id)
}

// Update merges the supplied fields into a contact owned by userID.
func (s *ContactService) Update(ctx context.Context, userID, id string, in ContactFields) (models.Contact, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return models.Contact{}, err
	}
	patch, err := toPatch(in)
	if err != nil {
		return models.Contact{}, err
	}

	// The store merges, so concurrent partial updates keep each other's fields.
	updated, err := s.contacts.UpdateContact(ctx, userID, id, patch)
	if err != nil {
		return models.Contact{}, storeErr(err, "failed to update contact")
	}
	return updated, nil
}

// Delete permanently removes a contact owned by userID.
func (s *ContactService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.contacts.DeleteContact(ctx, id); err != nil {
		return storeErr(err, "failed to delete contact")
	}
	return nil
}

// owned loads a contact and checks that userID is its owner.
func (s *ContactService) owned(ctx context.Context, userID, id string) (models.Contact, error) {
	if strings.TrimSpace(id) == "" {
		return models.Contact{}, apperr.New(apperr.KindNotFound, "Contact not found")
	}
	contact, err := s.contacts.FindContact(ctx, id)
	if err != nil {
		return models.Contact{}, storeErr(err, "failed to fetch contact")
	}
	if contact.UserID != userID {
		return models.Contact{}, apperr.New(apperr.KindForbidden, "Not authorized")
	}
	return contact, nil
}

func toPatch(in ContactFields) (models.ContactPatch, error) {
	var patch models.ContactPatch
	var fields []apperr.FieldError

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			fields = append(fields, apperr.FieldError{Field: "name", Message: "Name is required"})
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		patch.Email = &email
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		patch.Phone = &phone
	}
	if in.Type != nil && strings.TrimSpace(*in.Type) != "" {
		typ := models.ContactType(strings.ToLower(strings.TrimSpace(*in.Type)))
		if !typ.Valid() {
			fields = append(fields, apperr.FieldError{Field: "type", Message: "Type must be personal or professional"})
		}
		patch.Type = &typ
	}

	if len(fields) > 0 {
		return models.ContactPatch{}, apperr.Validation(fields...)
	}
	return patch, nil
}

func storeErr(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, "Contact not found", err)
	}
	return apperr.Wrap(apperr.KindStoreUnavailable, msg, err)
}
