package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"identra.org/internal/auth"
)

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "access_token_hash", "refresh_token_hash", "device_id",
		"device_type", "device_name", "os", "browser", "ip_address", "user_agent",
		"last_activity", "created_at", "expires_at", "revoked", "revoked_at", "revoked_by",
	})
}

func TestFindActiveReturnsLiveSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sessionRows().AddRow(
		"sess-1", "user-1", "ah", "rh", nil,
		"web", nil, nil, nil, nil, nil,
		now, now, now.Add(time.Hour), false, nil, nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM sessions").
		WithArgs("sess-1", now).
		WillReturnRows(rows)

	store := NewStore(db).Sessions()
	sess, err := store.FindActive(context.Background(), "sess-1", now)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if sess.ID != "sess-1" || sess.UserID != "user-1" || sess.Revoked {
		t.Fatalf("unexpected session %+v", sess)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindActiveMapsNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM sessions").
		WithArgs("sess-dead", now).
		WillReturnRows(sessionRows())

	store := NewStore(db).Sessions()
	if _, err := store.FindActive(context.Background(), "sess-dead", now); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE sessions SET revoked = true").
		WithArgs("sess-1", now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sessions SET revoked = true").
		WithArgs("sess-1", now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db).Sessions()
	changed, err := store.Revoke(context.Background(), "sess-1", "user-1", now)
	if err != nil || !changed {
		t.Fatalf("first revoke must report changed: %v %v", changed, err)
	}
	changed, err = store.Revoke(context.Background(), "sess-1", "user-1", now)
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if changed {
		t.Fatalf("second revoke must be a no-op")
	}
}

func TestRevokeAllForUserCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE sessions SET revoked = true").
		WithArgs("user-1", now, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := NewStore(db).Sessions()
	count, err := store.RevokeAllForUser(context.Background(), "user-1", "user-1", now)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}

func TestRotateAccessHashMissingSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE sessions SET access_token_hash").
		WithArgs("sess-gone", "newhash", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db).Sessions()
	if err := store.RotateAccessHash(context.Background(), "sess-gone", "newhash", now); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRotateAccessHashDuplicateFingerprint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE sessions SET access_token_hash").
		WithArgs("sess-1", "dupehash", now).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "sessions_access_hash_key"})

	store := NewStore(db).Sessions()
	if err := store.RotateAccessHash(context.Background(), "sess-1", "dupehash", now); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
