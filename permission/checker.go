package permission

// Checker evaluates grant queries over one session's role and store grants.
// It takes no copies; callers hand it the immutable grant slices of a
// session snapshot.
//
//	Docs: docs/permission.md
type Checker struct {
	roles  []RoleGrant
	stores []StoreGrant
}

// NewChecker creates a [Checker] over the given grants. Nil slices behave
// as empty; every query then reports false.
func NewChecker(roles []RoleGrant, stores []StoreGrant) *Checker {
	return &Checker{roles: roles, stores: stores}
}

// HasRole reports whether a grant with the given name exists, regardless of
// scope.
func (c *Checker) HasRole(name string) bool {
	if c == nil || name == "" {
		return false
	}
	for _, g := range c.roles {
		if g.Name == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether at least one of the given names is granted.
func (c *Checker) HasAnyRole(names ...string) bool {
	for _, name := range names {
		if c.HasRole(name) {
			return true
		}
	}
	return false
}

// IsPlatformAdmin reports whether any grant carries platform scope.
func (c *Checker) IsPlatformAdmin() bool {
	if c == nil {
		return false
	}
	for _, g := range c.roles {
		if g.Scope == ScopePlatform {
			return true
		}
	}
	return false
}

// HasStoreRole reports whether the session holds the named role within the
// given store. Only store grants count; a platform-wide role of the same
// name does not satisfy a store-scoped query.
func (c *Checker) HasStoreRole(storeID, role string) bool {
	if c == nil || storeID == "" || role == "" {
		return false
	}
	for _, sg := range c.stores {
		if sg.StoreID != storeID {
			continue
		}
		for _, r := range sg.Roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

// CanAccessStore reports whether the session may operate on the given
// store: platform admins may, everyone else needs a store grant for it.
// This is the one query that combines platform and store scope.
func (c *Checker) CanAccessStore(storeID string) bool {
	if c == nil || storeID == "" {
		return false
	}
	if c.IsPlatformAdmin() {
		return true
	}
	for _, sg := range c.stores {
		if sg.StoreID == storeID {
			return true
		}
	}
	return false
}

// StoreIDs returns the store identifiers the session holds grants for, in
// grant order.
func (c *Checker) StoreIDs() []string {
	if c == nil || len(c.stores) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(c.stores))
	for _, sg := range c.stores {
		out = append(out, sg.StoreID)
	}
	return out
}
