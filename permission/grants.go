package permission

// PlatformAdminRole is an exported constant or variable used by the session core.
// The one role name the default registry scopes platform-wide; every other
// role is store-scoped.
const PlatformAdminRole = "platform-admin"

// RoleScope distinguishes platform-wide roles from store-scoped ones.
//
//	Docs: docs/permission.md
type RoleScope uint8

const (
	// ScopeStore is an exported constant or variable used by the session core.
	ScopeStore RoleScope = iota
	// ScopePlatform is an exported constant or variable used by the session core.
	ScopePlatform
)

// String describes the string operation and its observable behavior.
func (s RoleScope) String() string {
	if s == ScopePlatform {
		return "platform"
	}
	return "store"
}

// RoleGrant is one named role held by a session, with its scope.
type RoleGrant struct {
	Name  string
	Scope RoleScope
}

// StoreGrant lists the roles a session holds within one store.
type StoreGrant struct {
	StoreID string
	Roles   []string
}
