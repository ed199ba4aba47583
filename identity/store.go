// Package identity maps external auth-provider subjects to native user IDs
// through an explicit table. Identifiers entering the engine are always
// uuid.UUID; an unmapped subject is a validation error, never a derived
// value, so two distinct subjects can never collapse onto one user.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/open-rails/learnkit/storage/postgres"
)

var (
	// ErrUnknownSubject is returned when no mapping exists for the subject.
	ErrUnknownSubject = errors.New("identity: unknown subject")

	// ErrSubjectMapped is returned when the subject is already mapped to a
	// different user.
	ErrSubjectMapped = errors.New("identity: subject already mapped")
)

// Store resolves and registers subject mappings in the identity schema.
type Store struct {
	db     *postgres.DB
	schema string
}

// NewStore constructs the store. An empty schema defaults to "identity".
func NewStore(db *postgres.DB, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "identity"
	}
	return &Store{db: db, schema: s}
}

func (s *Store) subjectsTable() string { return s.schema + ".subjects" }

// Resolve returns the native user ID for (provider, subject).
func (s *Store) Resolve(ctx context.Context, provider, subject string) (uuid.UUID, error) {
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(subject) == "" {
		return uuid.Nil, ErrUnknownSubject
	}
	var id uuid.UUID
	err := s.db.Pool.QueryRow(ctx,
		`SELECT user_id FROM `+s.subjectsTable()+` WHERE provider=$1 AND subject=$2`,
		provider, subject,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrUnknownSubject
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Register creates the mapping. Registering the same pair for the same
// user is a no-op; for a different user it fails with ErrSubjectMapped.
func (s *Store) Register(ctx context.Context, provider, subject string, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return errors.New("identity: user id required")
	}
	tag, err := s.db.Pool.Exec(ctx,
		`INSERT INTO `+s.subjectsTable()+` (provider, subject, user_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (provider, subject) DO NOTHING`,
		provider, subject, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	existing, err := s.Resolve(ctx, provider, subject)
	if err != nil {
		return err
	}
	if existing != userID {
		return ErrSubjectMapped
	}
	return nil
}
