package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/open-rails/learnkit/entitlements"
)

// EntitlementStore implements entitlements.Store against the entitlements
// schema.
type EntitlementStore struct {
	db     *DB
	schema string
}

// NewEntitlementStore constructs the store. An empty schema defaults to
// "entitlements".
func NewEntitlementStore(db *DB, schema string) *EntitlementStore {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "entitlements"
	}
	return &EntitlementStore{db: db, schema: s}
}

func (s *EntitlementStore) entTable() string    { return s.schema + ".entitlements" }
func (s *EntitlementStore) unlockTable() string { return s.schema + ".unlocks" }

func (s *EntitlementStore) Create(ctx context.Context, g entitlements.Grant) (*entitlements.Entitlement, error) {
	var e entitlements.Entitlement
	err := s.db.Pool.QueryRow(ctx,
		`INSERT INTO `+s.entTable()+` (user_id, category_id, status, access_type, expires_at)
		 VALUES ($1, $2, 'active', $3, $4)
		 RETURNING id, user_id, category_id, status, access_type, activated_at, expires_at`,
		g.UserID, g.CategoryID, string(g.AccessType), g.ExpiresAt,
	).Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Status, &e.AccessType, &e.ActivatedAt, &e.ExpiresAt)
	if isUniqueViolation(err) {
		return nil, entitlements.ErrEntitlementExists
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindActive evaluates the expiry predicate in SQL, so rows whose sweep is
// pending still read as inactive.
func (s *EntitlementStore) FindActive(ctx context.Context, userID, categoryID uuid.UUID) (*entitlements.Entitlement, error) {
	var e entitlements.Entitlement
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, user_id, category_id, status, access_type, activated_at, expires_at
		 FROM `+s.entTable()+`
		 WHERE user_id=$1 AND category_id=$2 AND status='active'
		   AND (expires_at IS NULL OR expires_at > NOW())
		 LIMIT 1`,
		userID, categoryID,
	).Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Status, &e.AccessType, &e.ActivatedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *EntitlementStore) HasUnlockedLevel(ctx context.Context, entitlementID, pathID, levelID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+s.unlockTable()+`
		   WHERE entitlement_id=$1 AND path_id=$2 AND level_id=$3
		 )`,
		entitlementID, pathID, levelID,
	).Scan(&ok)
	return ok, err
}

// AppendUnlock is a single conditional insert: the EXISTS guard refuses to
// extend frontiers of inactive entitlements, and ON CONFLICT DO NOTHING
// gives set semantics under concurrent callers without an application-level
// read-then-write.
func (s *EntitlementStore) AppendUnlock(ctx context.Context, entitlementID, pathID, levelID uuid.UUID) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx,
		`INSERT INTO `+s.unlockTable()+` (entitlement_id, path_id, level_id)
		 SELECT $1, $2, $3
		 WHERE EXISTS (
		   SELECT 1 FROM `+s.entTable()+` e
		   WHERE e.id=$1 AND e.status='active'
		     AND (e.expires_at IS NULL OR e.expires_at > NOW())
		 )
		 ON CONFLICT (entitlement_id, path_id, level_id) DO NOTHING`,
		entitlementID, pathID, levelID,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Zero rows is either "already present" (fine) or "no active
	// entitlement" (a caller bug or a grant/expiry race).
	present, err := s.HasUnlockedLevel(ctx, entitlementID, pathID, levelID)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}
	return false, entitlements.ErrNoActiveEntitlement
}

func (s *EntitlementStore) ListUnlocked(ctx context.Context, userID, categoryID uuid.UUID) ([]entitlements.UnlockedLevel, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT u.path_id, u.level_id, u.unlocked_at
		 FROM `+s.unlockTable()+` u
		 JOIN `+s.entTable()+` e ON e.id = u.entitlement_id
		 WHERE e.user_id=$1 AND e.category_id=$2
		 ORDER BY u.unlocked_at, u.level_id`,
		userID, categoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entitlements.UnlockedLevel
	for rows.Next() {
		var ul entitlements.UnlockedLevel
		if err := rows.Scan(&ul.PathID, &ul.LevelID, &ul.UnlockedAt); err != nil {
			return nil, err
		}
		out = append(out, ul)
	}
	return out, rows.Err()
}

func (s *EntitlementStore) Cancel(ctx context.Context, userID, categoryID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx,
		`UPDATE `+s.entTable()+` SET status='cancelled'
		 WHERE user_id=$1 AND category_id=$2 AND status='active'`,
		userID, categoryID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return entitlements.ErrNoActiveEntitlement
	}
	return nil
}
