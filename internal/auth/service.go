package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"identra.org/internal/ids"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultVerifyTTL  = 24 * time.Hour
	defaultResetTTL   = time.Hour
)

// Notification is a fire-and-forget event handed to the dispatcher
// (verification email, password reset, security alert).
type Notification struct {
	Kind   string
	UserID string
	Email  string
	Token  string
}

// Notifier delivers notifications. Implementations must not block the
// authentication path; failures are the dispatcher's problem, never the
// caller's.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// AuditSink records security events. Like the notifier it is optional and
// fire-and-forget.
type AuditSink interface {
	Record(ctx context.Context, event string, fields map[string]any)
}

// Service is the authentication engine. It orchestrates the credential
// verifier, token codec and stores; each exported operation is atomic from
// the caller's perspective.
type Service struct {
	store Store
	codec *Codec
	now   func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
	resetTTL   time.Duration

	auditSink AuditSink
	notifier  Notifier
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token and session lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithSingleUseTTL configures email-verification and password-reset token
// lifetimes.
func WithSingleUseTTL(verify, reset time.Duration) ServiceOption {
	return func(s *Service) {
		if verify > 0 {
			s.verifyTTL = verify
		}
		if reset > 0 {
			s.resetTTL = reset
		}
	}
}

// WithAuditSink attaches a fire-and-forget audit recorder.
func WithAuditSink(sink AuditSink) ServiceOption {
	return func(s *Service) { s.auditSink = sink }
}

// WithNotifier attaches a fire-and-forget notification dispatcher.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// NewService constructs the authentication engine.
func NewService(store Store, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	s := &Service{
		store:      store,
		codec:      codec,
		now:        time.Now,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		verifyTTL:  defaultVerifyTTL,
		resetTTL:   defaultResetTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) audit(ctx context.Context, event string, fields map[string]any) {
	if s.auditSink != nil {
		s.auditSink.Record(ctx, event, fields)
	}
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

// RegisterInput carries registration data.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Locale    string
	Timezone  string
}

// Register creates a new account in pending_verification status and hands a
// verification token to the notifier. It never creates a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	username := strings.TrimSpace(strings.ToLower(in.Username))

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if username != "" {
		if _, err := s.store.Users().FindByUsername(ctx, username); err == nil {
			return nil, fmt.Errorf("%w: username already taken", ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &User{
		ID:            ids.New(),
		Email:         email,
		Username:      username,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Phone:         strings.TrimSpace(in.Phone),
		Locale:        defaultString(in.Locale, "en"),
		Timezone:      defaultString(in.Timezone, "UTC"),
		Status:        StatusPendingVerification,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}

	if token, err := s.codec.IssueSingleUse(user.ID, PurposeEmailVerification, s.verifyTTL); err == nil {
		s.notify(ctx, Notification{Kind: PurposeEmailVerification, UserID: user.ID, Email: user.Email, Token: token})
	}
	s.audit(ctx, "auth.register", map[string]any{"user_id": user.ID})
	return user, nil
}

// Login authenticates credentials, creates a session and issues a token
// pair. Unknown email, wrong password and deleted accounts all fail with the
// generic ErrAuthenticationFailed; locked, suspended and inactive accounts
// fail with their distinct status errors.
func (s *Service) Login(ctx context.Context, email, password string, device DeviceInfo) (*User, TokenPair, *Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, nil, ErrAuthenticationFailed
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, nil, ErrAuthenticationFailed
		}
		return nil, TokenPair{}, nil, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		s.audit(ctx, "auth.login.failed", map[string]any{"user_id": user.ID})
		return nil, TokenPair{}, nil, ErrAuthenticationFailed
	}

	switch user.Status {
	case StatusActive:
	case StatusLocked:
		return nil, TokenPair{}, nil, ErrAccountLocked
	case StatusSuspended:
		return nil, TokenPair{}, nil, ErrAccountSuspended
	case StatusInactive:
		return nil, TokenPair{}, nil, ErrAccountInactive
	default:
		return nil, TokenPair{}, nil, fmt.Errorf("%w: email not verified", ErrAuthenticationFailed)
	}

	pair, session, err := s.createSession(ctx, user, device)
	if err != nil {
		return nil, TokenPair{}, nil, err
	}

	now := s.now().UTC()
	if err := s.store.Users().SetLastLogin(ctx, user.ID, now); err != nil {
		return nil, TokenPair{}, nil, err
	}
	user.LastLoginAt = &now

	s.audit(ctx, "auth.login", map[string]any{"user_id": user.ID, "session_id": session.ID})
	return user, pair, session, nil
}

func (s *Service) createSession(ctx context.Context, user *User, device DeviceInfo) (TokenPair, *Session, error) {
	sessionID := ids.New()
	now := s.now().UTC()

	accessToken, err := s.codec.IssueAccess(user.ID, sessionID, s.accessTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}
	refreshToken, err := s.codec.IssueRefresh(user.ID, sessionID, s.refreshTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}

	deviceType := device.DeviceType
	if !deviceType.Valid() {
		deviceType = DeviceWeb
	}
	session := &Session{
		ID:               sessionID,
		UserID:           user.ID,
		AccessTokenHash:  Fingerprint(accessToken),
		RefreshTokenHash: Fingerprint(refreshToken),
		DeviceID:         device.DeviceID,
		DeviceType:       deviceType,
		DeviceName:       device.DeviceName,
		OS:               device.OS,
		Browser:          device.Browser,
		IPAddress:        device.IPAddress,
		UserAgent:        device.UserAgent,
		LastActivity:     now,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.refreshTTL),
	}
	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return TokenPair{}, nil, err
	}

	pair := TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: session.ExpiresAt,
	}
	return pair, session, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is echoed back unchanged; only the session's access
// fingerprint rotates. A refresh token whose fingerprint no longer matches
// the session's stored one always fails, which is the sole safety net for
// concurrent refreshes.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, ErrAuthenticationFailed
	}
	if claims.TokenType != TokenTypeRefresh || claims.SessionID == "" {
		return TokenPair{}, ErrAuthenticationFailed
	}

	now := s.now().UTC()
	session, err := s.store.Sessions().FindActive(ctx, claims.SessionID, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrAuthenticationFailed
		}
		return TokenPair{}, err
	}

	presented := Fingerprint(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(session.RefreshTokenHash)) != 1 {
		return TokenPair{}, ErrAuthenticationFailed
	}

	user, err := s.store.Users().Find(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrAuthenticationFailed
		}
		return TokenPair{}, err
	}
	if user.Status != StatusActive {
		return TokenPair{}, ErrAuthenticationFailed
	}

	accessToken, err := s.codec.IssueAccess(user.ID, session.ID, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Sessions().RotateAccessHash(ctx, session.ID, Fingerprint(accessToken), now); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout revokes sessions. With allDevices it revokes every session the user
// owns; otherwise it revokes sessionID, but only if the user owns it. The
// count of revoked sessions is returned; zero matches is not an error.
func (s *Service) Logout(ctx context.Context, user *User, sessionID string, allDevices bool) (int, error) {
	if user == nil {
		return 0, ErrAuthenticationFailed
	}
	now := s.now().UTC()

	if allDevices {
		count, err := s.store.Sessions().RevokeAllForUser(ctx, user.ID, user.ID, now)
		if err != nil {
			return 0, err
		}
		s.audit(ctx, "auth.logout.all", map[string]any{"user_id": user.ID, "count": count})
		return count, nil
	}

	if sessionID == "" {
		return 0, nil
	}
	session, err := s.store.Sessions().Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if session.UserID != user.ID {
		return 0, nil
	}
	changed, err := s.store.Sessions().Revoke(ctx, session.ID, user.ID, now)
	if err != nil {
		return 0, err
	}
	if !changed {
		return 0, nil
	}
	s.audit(ctx, "auth.logout", map[string]any{"user_id": user.ID, "session_id": session.ID})
	return 1, nil
}

// Sessions lists the user's currently active sessions, most recently used
// first.
func (s *Service) Sessions(ctx context.Context, userID string) ([]*Session, error) {
	return s.store.Sessions().ListActiveForUser(ctx, userID, s.now().UTC())
}

// VerifyEmail consumes a verification token and activates the account. The
// status flip to active is unconditional, matching the original system even
// for previously locked or suspended accounts.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	userID, err := s.codec.VerifySingleUse(token, PurposeEmailVerification)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired verification token", ErrBadRequest)
	}
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.Status = StatusActive
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	s.audit(ctx, "auth.email_verified", map[string]any{"user_id": user.ID})
	return user, nil
}

// RequestPasswordReset issues a reset token for the account and hands it to
// the notifier. Unknown emails succeed silently so the endpoint cannot be
// used to probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := s.codec.IssueSingleUse(user.ID, PurposePasswordReset, s.resetTTL)
	if err != nil {
		return err
	}
	s.notify(ctx, Notification{Kind: PurposePasswordReset, UserID: user.ID, Email: user.Email, Token: token})
	s.audit(ctx, "auth.password_reset.requested", map[string]any{"user_id": user.ID})
	return nil
}

// ResetPassword consumes a reset token, replaces the credential hash and
// revokes every session the user owns.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (*User, error) {
	userID, err := s.codec.VerifySingleUse(token, PurposePasswordReset)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired reset token", ErrBadRequest)
	}
	if newPassword == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	if _, err := s.store.Sessions().RevokeAllForUser(ctx, user.ID, user.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	s.audit(ctx, "auth.password_reset", map[string]any{"user_id": user.ID})
	return user, nil
}

// Authenticate is the per-request gate: decode the access token, confirm the
// bound session is still alive, reload the user and resolve their
// permissions. Session liveness is checked on every request, which is what
// makes logout effective while the token is still cryptographically valid.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Principal, *Session, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return Principal{}, nil, ErrTokenInvalid
	}
	if claims.TokenType != TokenTypeAccess || claims.SessionID == "" {
		return Principal{}, nil, ErrTokenInvalid
	}

	session, err := s.store.Sessions().FindActive(ctx, claims.SessionID, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, nil, ErrAuthenticationFailed
		}
		return Principal{}, nil, err
	}
	if session.UserID != claims.Subject {
		return Principal{}, nil, ErrAuthenticationFailed
	}

	principal, err := s.Principal(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, nil, ErrAuthenticationFailed
		}
		return Principal{}, nil, err
	}
	switch principal.User.Status {
	case StatusActive:
	case StatusLocked:
		return Principal{}, nil, ErrAccountLocked
	case StatusSuspended:
		return Principal{}, nil, ErrAccountSuspended
	default:
		return Principal{}, nil, ErrAccountInactive
	}
	return principal, session, nil
}

// NormalizeEmail lower-cases and trims an email address for lookups and
// storage.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func defaultString(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
