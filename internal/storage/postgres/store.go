package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/contact-keeper/internal/models"
	"github.com/hongminglow/contact-keeper/internal/storage"
	"github.com/hongminglow/contact-keeper/internal/storage/postgres/migrations"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users and contacts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByID fetches a user by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// CreateContact inserts a new contact row.
func (s *Store) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	const query = `
		INSERT INTO contacts (id, user_id, name, email, phone, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, name, email, phone, type, created_at;
	`
	row := s.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Name, c.Email, c.Phone, string(c.Type), c.CreatedAt)
	created, err := scanContact(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Contact{}, storage.ErrAlreadyExists
		}
		return models.Contact{}, err
	}
	return created, nil
}

// FindContact fetches a contact by id regardless of owner.
func (s *Store) FindContact(ctx context.Context, id string) (models.Contact, error) {
	const query = `
		SELECT id, user_id, name, email, phone, type, created_at
		FROM contacts
		WHERE id = $1;
	`
	return scanContact(s.pool.QueryRow(ctx, query, id))
}

// ListContacts returns the user's contacts ordered newest first.
func (s *Store) ListContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	const query = `
		SELECT id, user_id, name, email, phone, type, created_at
		FROM contacts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

// UpdateContact sets only the fields present in patch. The owner is part of
// the match, so a row owned by someone else is reported as not found.
func (s *Store) UpdateContact(ctx context.Context, userID, id string, patch models.ContactPatch) (models.Contact, error) {
	const query = `
		UPDATE contacts
		SET name  = COALESCE($3, name),
		    email = COALESCE($4, email),
		    phone = COALESCE($5, phone),
		    type  = COALESCE($6, type)
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, email, phone, type, created_at;
	`
	var typ *string
	if patch.Type != nil {
		t := string(*patch.Type)
		typ = &t
	}
	row := s.pool.QueryRow(ctx, query, id, userID, patch.Name, patch.Email, patch.Phone, typ)
	return scanContact(row)
}

// DeleteContact removes a contact row.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanContact(row pgx.Row) (models.Contact, error) {
	var c models.Contact
	var typ string
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &typ, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Contact{}, storage.ErrNotFound
		}
		return models.Contact{}, err
	}
	c.Type = models.ContactType(typ)
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
