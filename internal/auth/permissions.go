package auth

// Builtin resources.
const (
	ResourceUsers    = "users"
	ResourceRoles    = "roles"
	ResourceSessions = "sessions"
	ResourceAudit    = "audit"
)

// BuiltinPermissions is the seed catalog ensured at startup. Additional
// permissions can be created at runtime; the unique (resource, action,
// scope) constraint keeps Ensure idempotent.
var BuiltinPermissions = []Permission{
	{Resource: ResourceUsers, Action: ActionCreate, Scope: ScopeGlobal, Description: "Create users"},
	{Resource: ResourceUsers, Action: ActionRead, Scope: ScopeGlobal, Description: "Read any user"},
	{Resource: ResourceUsers, Action: ActionRead, Scope: ScopeOwn, Description: "Read own profile"},
	{Resource: ResourceUsers, Action: ActionUpdate, Scope: ScopeGlobal, Description: "Update any user"},
	{Resource: ResourceUsers, Action: ActionUpdate, Scope: ScopeOwn, Description: "Update own profile"},
	{Resource: ResourceUsers, Action: ActionDelete, Scope: ScopeGlobal, Description: "Delete users"},
	{Resource: ResourceUsers, Action: ActionManage, Scope: ScopeGlobal, Description: "Full user administration"},
	{Resource: ResourceRoles, Action: ActionCreate, Scope: ScopeGlobal, Description: "Create roles"},
	{Resource: ResourceRoles, Action: ActionRead, Scope: ScopeGlobal, Description: "Read roles"},
	{Resource: ResourceRoles, Action: ActionUpdate, Scope: ScopeGlobal, Description: "Update roles"},
	{Resource: ResourceRoles, Action: ActionDelete, Scope: ScopeGlobal, Description: "Delete roles"},
	{Resource: ResourceRoles, Action: ActionManage, Scope: ScopeGlobal, Description: "Assign and revoke roles"},
	{Resource: ResourceSessions, Action: ActionRead, Scope: ScopeGlobal, Description: "Inspect any session"},
	{Resource: ResourceSessions, Action: ActionRead, Scope: ScopeOwn, Description: "List own sessions"},
	{Resource: ResourceSessions, Action: ActionDelete, Scope: ScopeGlobal, Description: "Revoke any session"},
	{Resource: ResourceSessions, Action: ActionDelete, Scope: ScopeOwn, Description: "Revoke own sessions"},
	{Resource: ResourceAudit, Action: ActionRead, Scope: ScopeGlobal, Description: "Read the audit log"},
}
