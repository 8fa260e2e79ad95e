package auth

import "time"

// Status is the account lifecycle state. Only active accounts may
// authenticate; pending_verification accounts exist but cannot log in until
// their email is verified.
type Status string

const (
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
	StatusSuspended           Status = "suspended"
	StatusLocked              Status = "locked"
	StatusPendingVerification Status = "pending_verification"
)

// Valid reports whether s is a known account status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusLocked, StatusPendingVerification:
		return true
	}
	return false
}

// Action is a grantable operation on a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionExecute Action = "execute"
	ActionManage  Action = "manage"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExecute, ActionManage:
		return true
	}
	return false
}

// Scope qualifies how broadly a permission applies. The resolver surfaces
// granted scopes but does not compare them against a target object; that is
// the caller's responsibility.
type Scope string

const (
	ScopeGlobal       Scope = "global"
	ScopeOrganization Scope = "organization"
	ScopeOwn          Scope = "own"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeOrganization, ScopeOwn:
		return true
	}
	return false
}

// DeviceType classifies the client a session was created from.
type DeviceType string

// DeviceWeb covers browser sessions regardless of platform, desktop
// browsers included. DeviceDesktop is reserved for native desktop clients,
// which are not distinguishable from a User-Agent string alone.
const (
	DeviceWeb     DeviceType = "web"
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceAPI     DeviceType = "api"
)

func (d DeviceType) Valid() bool {
	switch d {
	case DeviceWeb, DeviceMobile, DeviceDesktop, DeviceAPI:
		return true
	}
	return false
}

// User is an account principal. Soft-deleted users keep their row but are
// excluded from every lookup unless explicitly requested.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username,omitempty"`
	PasswordHash  string     `json:"-"`
	FirstName     string     `json:"first_name,omitempty"`
	LastName      string     `json:"last_name,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Locale        string     `json:"locale"`
	Timezone      string     `json:"timezone"`
	Status        Status     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the user has been tombstoned.
func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// Session is one authenticated device binding. Raw tokens are never stored;
// the session carries one-way fingerprints of the current access and refresh
// tokens. Refreshing mutates AccessTokenHash in place, it never creates a
// new session.
type Session struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	AccessTokenHash  string     `json:"-"`
	RefreshTokenHash string     `json:"-"`
	DeviceID         string     `json:"device_id,omitempty"`
	DeviceType       DeviceType `json:"device_type"`
	DeviceName       string     `json:"device_name,omitempty"`
	OS               string     `json:"os,omitempty"`
	Browser          string     `json:"browser,omitempty"`
	IPAddress        string     `json:"ip_address,omitempty"`
	UserAgent        string     `json:"user_agent,omitempty"`
	LastActivity     time.Time  `json:"last_activity"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	Revoked          bool       `json:"revoked"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokedBy        string     `json:"revoked_by,omitempty"`
}

// ActiveAt reports whether the session is usable at the given instant.
func (s *Session) ActiveAt(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Role is a named capability bundle. ParentRoleID records informational
// hierarchy only: it never grants the parent's permissions (explicit
// role_permissions rows are the sole source of truth).
type Role struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Priority     int       `json:"priority"`
	IsSystem     bool      `json:"is_system"`
	ParentRoleID string    `json:"parent_role_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Permission is one grantable (resource, action, scope) capability, unique
// on that triple.
type Permission struct {
	ID          string    `json:"id"`
	Resource    string    `json:"resource"`
	Action      Action    `json:"action"`
	Scope       Scope     `json:"scope"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleAssignment links a user to a role, optionally time-bounded. An expired
// assignment keeps its row but confers nothing.
type RoleAssignment struct {
	UserID     string     `json:"user_id"`
	RoleID     string     `json:"role_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	AssignedAt time.Time  `json:"assigned_at"`
	AssignedBy string     `json:"assigned_by,omitempty"`
}

// ActiveAt reports whether the assignment still confers its role.
func (a RoleAssignment) ActiveAt(now time.Time) bool {
	return a.ExpiresAt == nil || now.Before(*a.ExpiresAt)
}

// TokenPair is what a successful login or refresh hands back to the caller.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// DeviceInfo carries client metadata captured at login.
type DeviceInfo struct {
	DeviceID   string
	DeviceType DeviceType
	DeviceName string
	OS         string
	Browser    string
	IPAddress  string
	UserAgent  string
}
