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

func TestCreateRoleNameConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO roles").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "roles_name_key"})

	now := time.Now().UTC()
	store := NewStore(db).Roles()
	err = store.Create(context.Background(), &auth.Role{
		ID: "r1", Name: "admin", CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAssignmentsForUserKeepsExpiredRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"user_id", "role_id", "expires_at", "assigned_at", "assigned_by"}).
		AddRow("u1", "fresh", nil, now, "admin-1").
		AddRow("u1", "stale", past, now, nil)
	mock.ExpectQuery("SELECT (.+) FROM user_roles").
		WithArgs("u1").
		WillReturnRows(rows)

	store := NewStore(db).Roles()
	assignments, err := store.AssignmentsForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("assignments: %v", err)
	}
	// expired rows stay; the resolver filters them
	if len(assignments) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(assignments))
	}
	if assignments[1].ExpiresAt == nil || !assignments[1].ExpiresAt.Equal(past) {
		t.Fatalf("expiry must round-trip")
	}
}

func TestSetForRoleReplacesInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM role_permissions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO role_permissions").
		WithArgs("r1", "p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO role_permissions").
		WithArgs("r1", "p2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewStore(db).Permissions()
	if err := store.SetForRole(context.Background(), "r1", []string{"p1", "p2"}, "admin-1"); err != nil {
		t.Fatalf("set for role: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestForRoleJoinsCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "resource", "action", "scope", "description", "created_at"}).
		AddRow("p1", "users", "read", "global", "Read any user", now)
	mock.ExpectQuery("SELECT (.+) FROM permissions p").
		WithArgs("r1").
		WillReturnRows(rows)

	store := NewStore(db).Permissions()
	perms, err := store.ForRole(context.Background(), "r1")
	if err != nil {
		t.Fatalf("for role: %v", err)
	}
	if len(perms) != 1 || perms[0].Resource != "users" || perms[0].Action != auth.ActionRead {
		t.Fatalf("unexpected permissions %+v", perms)
	}
}
