package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"identra.org/internal/ids"
)

// UserService provides user administration beyond the authentication flows:
// admin CRUD, password changes, soft delete and restore.
type UserService struct {
	store Store
	now   func() time.Time
}

// NewUserService constructs the user administration service.
func NewUserService(store Store, opts ...func(*UserService)) (*UserService, error) {
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	s := &UserService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithUserClock overrides the time source (useful for tests).
func WithUserClock(fn func() time.Time) func(*UserService) {
	return func(s *UserService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*User, error) {
	return s.store.Users().Find(ctx, userID)
}

// GetByEmail returns a user by normalized email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.Users().FindByEmail(ctx, NormalizeEmail(email))
}

// List returns a page of users plus the total match count.
func (s *UserService) List(ctx context.Context, filter ListUsersFilter) ([]*User, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return s.store.Users().List(ctx, filter)
}

// CreateInput carries admin user creation data.
type CreateInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Locale    string
	Timezone  string
	Status    Status
}

// Create creates a user as an administrator. Unlike Register the initial
// status may be supplied; it defaults to pending_verification.
func (s *UserService) Create(ctx context.Context, in CreateInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = StatusPendingVerification
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	username := strings.TrimSpace(strings.ToLower(in.Username))
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
		ID:           ids.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Locale:       defaultString(in.Locale, "en"),
		Timezone:     defaultString(in.Timezone, "UTC"),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserUpdate mutates profile fields; nil pointers leave fields untouched.
type UserUpdate struct {
	Email     *string
	Username  *string
	FirstName *string
	LastName  *string
	Phone     *string
	Locale    *string
	Timezone  *string
}

// Update applies a partial profile update, checking email and username
// uniqueness when they change.
func (s *UserService) Update(ctx context.Context, userID string, upd UserUpdate) (*User, error) {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		if email != user.Email {
			if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("%w: email already registered", ErrConflict)
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if upd.Username != nil {
		username := strings.TrimSpace(strings.ToLower(*upd.Username))
		if username != user.Username {
			if username != "" {
				if _, err := s.store.Users().FindByUsername(ctx, username); err == nil {
					return nil, fmt.Errorf("%w: username already taken", ErrConflict)
				} else if !errors.Is(err, ErrNotFound) {
					return nil, err
				}
			}
			user.Username = username
		}
	}
	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Locale != nil {
		user.Locale = defaultString(*upd.Locale, "en")
	}
	if upd.Timezone != nil {
		user.Timezone = defaultString(*upd.Timezone, "UTC")
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminUpdate additionally allows status and verification changes.
type AdminUpdate struct {
	UserUpdate
	Status        *Status
	EmailVerified *bool
}

// UpdateAdmin applies a partial update including account status.
func (s *UserService) UpdateAdmin(ctx context.Context, userID string, upd AdminUpdate) (*User, error) {
	user, err := s.Update(ctx, userID, upd.UserUpdate)
	if err != nil {
		return nil, err
	}
	changed := false
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *upd.Status)
		}
		user.Status = *upd.Status
		changed = true
	}
	if upd.EmailVerified != nil {
		user.EmailVerified = *upd.EmailVerified
		changed = true
	}
	if changed {
		user.UpdatedAt = s.now().UTC()
		if err := s.store.Users().Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// ChangePassword replaces the credential hash after verifying the current
// password.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(current, user.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", ErrBadRequest)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.Users().UpdatePassword(ctx, userID, hash)
}

// Delete tombstones a user by default; hard deletion removes the row and
// cascades to sessions.
func (s *UserService) Delete(ctx context.Context, userID string, hard bool) error {
	if hard {
		if _, err := s.store.Users().FindAny(ctx, userID); err != nil {
			return err
		}
		return s.store.Users().HardDelete(ctx, userID)
	}
	if _, err := s.store.Users().Find(ctx, userID); err != nil {
		return err
	}
	return s.store.Users().SoftDelete(ctx, userID, s.now().UTC())
}

// Restore reverses a soft delete.
func (s *UserService) Restore(ctx context.Context, userID string) (*User, error) {
	user, err := s.store.Users().FindAny(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsDeleted() {
		return nil, fmt.Errorf("%w: user is not deleted", ErrBadRequest)
	}
	if err := s.store.Users().Restore(ctx, userID); err != nil {
		return nil, err
	}
	user.DeletedAt = nil
	return user, nil
}
