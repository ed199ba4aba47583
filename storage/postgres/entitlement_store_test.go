package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/open-rails/learnkit/entitlements"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestEntitlementStore_FindActive_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	ctx := context.Background()
	userID, categoryID, entID := uuid.New(), uuid.New(), uuid.New()
	activated := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT id, user_id, category_id, status, access_type, activated_at, expires_at`).
		WithArgs(userID, categoryID).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "user_id", "category_id", "status", "access_type", "activated_at", "expires_at"},
		).AddRow(entID, userID, categoryID, entitlements.StatusActive, entitlements.AccessPurchase, activated, nil))

	ent, err := s.FindActive(ctx, userID, categoryID)
	require.NoError(t, err)
	require.NotNil(t, ent)
	require.Equal(t, entID, ent.ID)
	require.Equal(t, entitlements.StatusActive, ent.Status)
	require.Nil(t, ent.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementStore_FindActive_None(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	userID, categoryID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT id, user_id, category_id, status`).
		WithArgs(userID, categoryID).
		WillReturnError(pgx.ErrNoRows)

	ent, err := s.FindActive(context.Background(), userID, categoryID)
	require.NoError(t, err)
	require.Nil(t, ent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementStore_Create_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	g := entitlements.Grant{
		UserID:     uuid.New(),
		CategoryID: uuid.New(),
		AccessType: entitlements.AccessAdmin,
	}
	mock.ExpectQuery(`INSERT INTO entitlements\.entitlements`).
		WithArgs(g.UserID, g.CategoryID, "admin", g.ExpiresAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := s.Create(context.Background(), g)
	require.ErrorIs(t, err, entitlements.ErrEntitlementExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementStore_AppendUnlock_Applied(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	entID, pathID, levelID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO entitlements\.unlocks`).
		WithArgs(entID, pathID, levelID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	applied, err := s.AppendUnlock(context.Background(), entID, pathID, levelID)
	require.NoError(t, err)
	require.True(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementStore_AppendUnlock_AlreadyPresent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	entID, pathID, levelID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO entitlements\.unlocks`).
		WithArgs(entID, pathID, levelID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(entID, pathID, levelID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	applied, err := s.AppendUnlock(context.Background(), entID, pathID, levelID)
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementStore_AppendUnlock_NoActiveEntitlement(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	entID, pathID, levelID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO entitlements\.unlocks`).
		WithArgs(entID, pathID, levelID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(entID, pathID, levelID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := s.AppendUnlock(context.Background(), entID, pathID, levelID)
	require.ErrorIs(t, err, entitlements.ErrNoActiveEntitlement)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntitlementStore_Cancel_None(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewEntitlementStore(db, "")

	userID, categoryID := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE entitlements\.entitlements SET status='cancelled'`).
		WithArgs(userID, categoryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.Cancel(context.Background(), userID, categoryID)
	require.ErrorIs(t, err, entitlements.ErrNoActiveEntitlement)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBadgeStore_Award_Idempotent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	b := NewBadgeStore(db, "")

	userID, pathID := uuid.New(), uuid.New()
	mock.ExpectExec(`INSERT INTO entitlements\.path_badges`).
		WithArgs(userID, pathID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO entitlements\.path_badges`).
		WithArgs(userID, pathID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	applied, err := b.Award(context.Background(), userID, pathID)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = b.Award(context.Background(), userID, pathID)
	require.NoError(t, err)
	require.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}
