package pg

import (
	"context"
	"database/sql"
	"errors"

	"identra.org/internal/auth"
	"identra.org/internal/ids"
)

type roleStore struct {
	db *sql.DB
}

const roleColumns = `id, name, description, priority, is_system, parent_role_id, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (*auth.Role, error) {
	var (
		r           auth.Role
		description sql.NullString
		parentID    sql.NullString
	)
	err := row.Scan(&r.ID, &r.Name, &description, &r.Priority, &r.IsSystem,
		&parentID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	r.Description = description.String
	r.ParentRoleID = parentID.String
	return &r, nil
}

func (s *roleStore) Create(ctx context.Context, r *auth.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, priority, is_system, parent_role_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.Name, nullString(r.Description), r.Priority, r.IsSystem,
		nullString(r.ParentRoleID), r.CreatedAt, r.UpdatedAt)
	return translate(err)
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (s *roleStore) FindByName(ctx context.Context, name string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE lower(name) = lower($1)`, name)
	return scanRole(row)
}

func (s *roleStore) List(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY priority DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*auth.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

func (s *roleStore) Update(ctx context.Context, r *auth.Role) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE roles SET name = $2, description = $3, priority = $4,
			parent_role_id = $5, updated_at = $6
		WHERE id = $1`,
		r.ID, r.Name, nullString(r.Description), r.Priority,
		nullString(r.ParentRoleID), r.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *roleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *roleStore) Assign(ctx context.Context, a auth.RoleAssignment) error {
	// Re-assigning refreshes expiry and provenance in place.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id, expires_at, assigned_at, assigned_by)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, role_id) DO UPDATE
			SET expires_at = EXCLUDED.expires_at,
			    assigned_at = EXCLUDED.assigned_at,
			    assigned_by = EXCLUDED.assigned_by`,
		a.UserID, a.RoleID, nullTime(a.ExpiresAt), a.AssignedAt, nullString(a.AssignedBy))
	return translate(err)
}

func (s *roleStore) RemoveAssignment(ctx context.Context, userID, roleID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *roleStore) AssignmentsForUser(ctx context.Context, userID string) ([]auth.RoleAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, role_id, expires_at, assigned_at, assigned_by
		FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []auth.RoleAssignment
	for rows.Next() {
		var (
			a          auth.RoleAssignment
			expiresAt  sql.NullTime
			assignedBy sql.NullString
		)
		if err := rows.Scan(&a.UserID, &a.RoleID, &expiresAt, &a.AssignedAt, &assignedBy); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			a.ExpiresAt = &t
		}
		a.AssignedBy = assignedBy.String
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

type permissionStore struct {
	db *sql.DB
}

const permissionColumns = `id, resource, action, scope, description, created_at`

func scanPermission(row interface{ Scan(...any) error }) (auth.Permission, error) {
	var (
		p           auth.Permission
		description sql.NullString
	)
	err := row.Scan(&p.ID, &p.Resource, &p.Action, &p.Scope, &description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Permission{}, auth.ErrNotFound
		}
		return auth.Permission{}, err
	}
	p.Description = description.String
	return p, nil
}

func (s *permissionStore) Ensure(ctx context.Context, perms []auth.Permission) error {
	for _, p := range perms {
		id := p.ID
		if id == "" {
			id = ids.New()
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO permissions (id, resource, action, scope, description, created_at)
			VALUES ($1,$2,$3,$4,$5,now())
			ON CONFLICT (resource, action, scope) DO NOTHING`,
			id, p.Resource, string(p.Action), string(p.Scope), nullString(p.Description))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *permissionStore) List(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+permissionColumns+` FROM permissions ORDER BY resource, action, scope`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (s *permissionStore) SetForRole(ctx context.Context, roleID string, permissionIDs []string, grantedBy string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, pid := range permissionIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO role_permissions (role_id, permission_id, granted_at, granted_by)
			VALUES ($1,$2,now(),$3)`, roleID, pid, nullString(grantedBy))
		if err != nil {
			return translate(err)
		}
	}
	return tx.Commit()
}

func (s *permissionStore) ForRole(ctx context.Context, roleID string) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.resource, p.action, p.scope, p.description, p.created_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.resource, p.action, p.scope`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func collectPermissions(rows *sql.Rows) ([]auth.Permission, error) {
	var perms []auth.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
