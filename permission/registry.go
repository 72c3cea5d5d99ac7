package permission

import (
	"errors"
	"sort"
	"sync"
)

// Registry holds the set of role names that carry platform scope. Any role
// name not in the registry derives as store-scoped.
//
//	Docs: docs/permission.md
type Registry struct {
	mu       sync.RWMutex
	platform map[string]struct{}
	frozen   bool
}

// NewRegistry creates an empty platform-role [Registry]. Register the
// platform-scoped names, then [Registry.Freeze] it before use.
//
//	Docs: docs/permission.md
func NewRegistry() *Registry {
	return &Registry{
		platform: make(map[string]struct{}),
	}
}

// DefaultRegistry returns a frozen registry containing exactly
// [PlatformAdminRole].
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// The only registration is a known constant; Register cannot fail here.
	_ = r.Register(PlatformAdminRole)
	r.Freeze()
	return r
}

// Register marks the named role as platform-scoped. Must be called before
// [Registry.Freeze].
//
//	Docs: docs/permission.md
func (r *Registry) Register(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}

	if name == "" {
		return errors.New("role name cannot be empty")
	}

	if _, exists := r.platform[name]; exists {
		return errors.New("role already registered")
	}

	r.platform[name] = struct{}{}

	return nil
}

// IsPlatformScoped reports whether the named role carries platform scope.
func (r *Registry) IsPlatformScoped(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.platform[name]
	return ok
}

// Freeze prevents further registrations. Must be called before the
// registry is used for derivation.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered platform-scoped roles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.platform)
}

// PlatformRoles returns the registered platform-scoped role names, sorted.
func (r *Registry) PlatformRoles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.platform))
	for name := range r.platform {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Derive classifies flat role names into grants. Order and duplicates are
// preserved; scope classification is the registry's only contribution.
func (r *Registry) Derive(roles []string) []RoleGrant {
	if len(roles) == 0 {
		return []RoleGrant{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RoleGrant, 0, len(roles))
	for _, name := range roles {
		scope := ScopeStore
		if _, ok := r.platform[name]; ok {
			scope = ScopePlatform
		}
		out = append(out, RoleGrant{Name: name, Scope: scope})
	}
	return out
}
