// Package storagetest holds the behavior every storage.Store backend must share.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/storage"
)

// Opener returns an empty store; the suite closes it.
type Opener func(t *testing.T) storage.Store

// Run exercises the store contract against fresh stores from open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"UserRoundTrip", testUserRoundTrip},
		{"DuplicateEmail", testDuplicateEmail},
		{"ConcurrentDuplicateEmail", testConcurrentDuplicateEmail},
		{"UserNotFound", testUserNotFound},
		{"ContactLifecycle", testContactLifecycle},
		{"ListIsScopedAndNewestFirst", testListScopedNewestFirst},
		{"ContactNotFound", testContactNotFound},
		{"UpdateOtherOwner", testUpdateOtherOwner},
		{"ConcurrentPartialUpdates", testConcurrentPartialUpdates},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func newUser(email string) models.User {
	return models.User{
		ID:           uuid.NewString(),
		Name:         "Jill",
		Email:        email,
		PasswordHash: "$2a$10$notarealhashbutlongenoughforstorage",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func newContact(userID, name string, at time.Time) models.Contact {
	return models.Contact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Email:     name + "@gmail.com",
		Phone:     "111-111-1111",
		Type:      models.Personal,
		CreatedAt: at.UTC().Truncate(time.Microsecond),
	}
}

func testUserRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	user := newUser("jill@x.com")

	created, err := s.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.ID)

	byEmail, err := s.FindUserByEmail(ctx, "jill@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)
	assert.True(t, user.CreatedAt.Equal(byEmail.CreatedAt))

	byID, err := s.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jill@x.com", byID.Email)
	assert.Equal(t, "Jill", byID.Name)
}

func testDuplicateEmail(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.CreateUser(ctx, newUser("jill@x.com"))
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, newUser("jill@x.com"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func testConcurrentDuplicateEmail(t *testing.T, s storage.Store) {
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(ctx, newUser("race@x.com"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, storage.ErrAlreadyExists):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)
}

func testUserNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.FindUserByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.FindUserByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testContactLifecycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner, err := s.CreateUser(ctx, newUser("jill@x.com"))
	require.NoError(t, err)

	contact := newContact(owner.ID, "tom", time.Now())
	_, err = s.CreateContact(ctx, contact)
	require.NoError(t, err)

	loaded, err := s.FindContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, contact.Name, loaded.Name)
	assert.Equal(t, owner.ID, loaded.UserID)
	assert.Equal(t, models.Personal, loaded.Type)

	phone := "999-999-9999"
	typ := models.Professional
	updated, err := s.UpdateContact(ctx, owner.ID, contact.ID, models.ContactPatch{Phone: &phone, Type: &typ})
	require.NoError(t, err)
	assert.Equal(t, "999-999-9999", updated.Phone)
	assert.Equal(t, contact.Name, updated.Name)
	assert.Equal(t, contact.Email, updated.Email)

	reloaded, err := s.FindContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "999-999-9999", reloaded.Phone)
	assert.Equal(t, models.Professional, reloaded.Type)
	assert.Equal(t, contact.Email, reloaded.Email)

	require.NoError(t, s.DeleteContact(ctx, contact.ID))

	_, err = s.FindContact(ctx, contact.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListContacts(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testListScopedNewestFirst(t *testing.T, s storage.Store) {
	ctx := context.Background()
	jill, err := s.CreateUser(ctx, newUser("jill@x.com"))
	require.NoError(t, err)
	mark, err := s.CreateUser(ctx, newUser("mark@x.com"))
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := newContact(jill.ID, "oldest", base)
	middle := newContact(jill.ID, "middle", base.Add(time.Minute))
	newest := newContact(jill.ID, "newest", base.Add(2*time.Minute))
	foreign := newContact(mark.ID, "foreign", base.Add(3*time.Minute))
	for _, c := range []models.Contact{middle, oldest, foreign, newest} {
		_, err := s.CreateContact(ctx, c)
		require.NoError(t, err)
	}

	list, err := s.ListContacts(ctx, jill.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "newest", list[0].Name)
	assert.Equal(t, "middle", list[1].Name)
	assert.Equal(t, "oldest", list[2].Name)
	for _, c := range list {
		assert.Equal(t, jill.ID, c.UserID)
	}

	empty, err := s.ListContacts(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testContactNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.FindContact(ctx, uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = s.DeleteContact(ctx, uuid.NewString())
	require.ErrorIs(t, err, storage.ErrNotFound)

	name := "ghost"
	_, err = s.UpdateContact(ctx, uuid.NewString(), uuid.NewString(), models.ContactPatch{Name: &name})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testUpdateOtherOwner(t *testing.T, s storage.Store) {
	ctx := context.Background()
	jill, err := s.CreateUser(ctx, newUser("jill@x.com"))
	require.NoError(t, err)
	mark, err := s.CreateUser(ctx, newUser("mark@x.com"))
	require.NoError(t, err)
	contact := newContact(jill.ID, "tom", time.Now())
	_, err = s.CreateContact(ctx, contact)
	require.NoError(t, err)

	name := "mallory"
	_, err = s.UpdateContact(ctx, mark.ID, contact.ID, models.ContactPatch{Name: &name})
	require.ErrorIs(t, err, storage.ErrNotFound)

	loaded, err := s.FindContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "tom", loaded.Name)
}

func testConcurrentPartialUpdates(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner, err := s.CreateUser(ctx, newUser("jill@x.com"))
	require.NoError(t, err)
	contact := newContact(owner.ID, "tom", time.Now())
	_, err = s.CreateContact(ctx, contact)
	require.NoError(t, err)

	phone := "555-555-5555"
	email := "tom@work.com"
	patches := []models.ContactPatch{{Phone: &phone}, {Email: &email}}

	var wg sync.WaitGroup
	errs := make([]error, len(patches))
	for i, p := range patches {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.UpdateContact(ctx, owner.ID, contact.ID, p)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	loaded, err := s.FindContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, phone, loaded.Phone)
	assert.Equal(t, email, loaded.Email)
	assert.Equal(t, "tom", loaded.Name)
}
