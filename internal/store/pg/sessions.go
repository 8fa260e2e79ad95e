package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"identra.org/internal/auth"
)

type sessionStore struct {
	db *sql.DB
}

const sessionColumns = `id, user_id, access_token_hash, refresh_token_hash, device_id,
	device_type, device_name, os, browser, ip_address, user_agent,
	last_activity, created_at, expires_at, revoked, revoked_at, revoked_by`

func scanSession(row interface{ Scan(...any) error }) (*auth.Session, error) {
	var (
		sess       auth.Session
		deviceID   sql.NullString
		deviceName sql.NullString
		osName     sql.NullString
		browser    sql.NullString
		ipAddress  sql.NullString
		userAgent  sql.NullString
		revokedAt  sql.NullTime
		revokedBy  sql.NullString
	)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.AccessTokenHash, &sess.RefreshTokenHash,
		&deviceID, &sess.DeviceType, &deviceName, &osName, &browser, &ipAddress, &userAgent,
		&sess.LastActivity, &sess.CreatedAt, &sess.ExpiresAt,
		&sess.Revoked, &revokedAt, &revokedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	sess.DeviceID = deviceID.String
	sess.DeviceName = deviceName.String
	sess.OS = osName.String
	sess.Browser = browser.String
	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String
	sess.RevokedBy = revokedBy.String
	if revokedAt.Valid {
		t := revokedAt.Time
		sess.RevokedAt = &t
	}
	return &sess, nil
}

func (s *sessionStore) Create(ctx context.Context, sess *auth.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, access_token_hash, refresh_token_hash,
			device_id, device_type, device_name, os, browser, ip_address, user_agent,
			last_activity, created_at, expires_at, revoked)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,false)`,
		sess.ID, sess.UserID, sess.AccessTokenHash, sess.RefreshTokenHash,
		nullString(sess.DeviceID), string(sess.DeviceType), nullString(sess.DeviceName),
		nullString(sess.OS), nullString(sess.Browser), nullString(sess.IPAddress),
		nullString(sess.UserAgent), sess.LastActivity, sess.CreatedAt, sess.ExpiresAt)
	return translate(err)
}

func (s *sessionStore) Find(ctx context.Context, id string) (*auth.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (s *sessionStore) FindActive(ctx context.Context, id string, now time.Time) (*auth.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE id = $1 AND revoked = false AND expires_at > $2`, id, now)
	return scanSession(row)
}

func (s *sessionStore) RotateAccessHash(ctx context.Context, sessionID, accessHash string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET access_token_hash = $2, last_activity = $3
		WHERE id = $1`, sessionID, accessHash, at)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

func (s *sessionStore) Revoke(ctx context.Context, sessionID, revokedBy string, at time.Time) (bool, error) {
	// Conditional update keeps revocation idempotent under races.
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET revoked = true, revoked_at = $2, revoked_by = $3
		WHERE id = $1 AND revoked = false`, sessionID, at, nullString(revokedBy))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sessionStore) RevokeAllForUser(ctx context.Context, userID, revokedBy string, at time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET revoked = true, revoked_at = $2, revoked_by = $3
		WHERE user_id = $1 AND revoked = false AND expires_at > $2`, userID, at, nullString(revokedBy))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *sessionStore) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]*auth.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND revoked = false AND expires_at > $2
		ORDER BY last_activity DESC`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*auth.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *sessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
