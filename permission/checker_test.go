package permission

import (
	"testing"
)

func newTestChecker() *Checker {
	roles := []RoleGrant{
		{Name: "store-admin", Scope: ScopeStore},
		{Name: PlatformAdminRole, Scope: ScopePlatform},
	}
	stores := []StoreGrant{
		{StoreID: "store-1", Roles: []string{"store-admin", "inventory"}},
		{StoreID: "store-2", Roles: []string{"viewer"}},
	}
	return NewChecker(roles, stores)
}

func TestHasRole(t *testing.T) {
	c := newTestChecker()

	if !c.HasRole("store-admin") {
		t.Fatal("store-admin should be granted")
	}
	if !c.HasRole(PlatformAdminRole) {
		t.Fatal("platform-admin should be granted")
	}
	if c.HasRole("missing") {
		t.Fatal("missing role should not be granted")
	}
	if c.HasRole("") {
		t.Fatal("empty role name should never match")
	}
}

func TestHasAnyRole(t *testing.T) {
	c := newTestChecker()

	if !c.HasAnyRole("missing", "store-admin") {
		t.Fatal("one granted name should satisfy HasAnyRole")
	}
	if c.HasAnyRole("missing", "also-missing") {
		t.Fatal("no granted names should fail HasAnyRole")
	}
	if c.HasAnyRole() {
		t.Fatal("zero names should fail HasAnyRole")
	}
}

func TestIsPlatformAdmin(t *testing.T) {
	if !newTestChecker().IsPlatformAdmin() {
		t.Fatal("checker with a platform grant should report platform admin")
	}

	storeOnly := NewChecker([]RoleGrant{{Name: "store-admin", Scope: ScopeStore}}, nil)
	if storeOnly.IsPlatformAdmin() {
		t.Fatal("store-scoped grants alone should not report platform admin")
	}
}

func TestHasStoreRole(t *testing.T) {
	c := newTestChecker()

	if !c.HasStoreRole("store-1", "inventory") {
		t.Fatal("granted store role should match")
	}
	if c.HasStoreRole("store-2", "inventory") {
		t.Fatal("role from another store should not match")
	}
	if c.HasStoreRole("store-9", "viewer") {
		t.Fatal("unknown store should not match")
	}
	if c.HasStoreRole("", "viewer") || c.HasStoreRole("store-1", "") {
		t.Fatal("empty arguments should never match")
	}
}

// A platform-wide role name does not satisfy a store-scoped query; only an
// explicit store grant does.
func TestHasStoreRoleIgnoresPlatformGrants(t *testing.T) {
	c := newTestChecker()

	if c.HasStoreRole("store-1", PlatformAdminRole) {
		t.Fatal("platform grant must not satisfy a store-scoped role query")
	}
}

func TestCanAccessStore(t *testing.T) {
	c := newTestChecker()

	// Platform admin reaches any store, granted or not.
	if !c.CanAccessStore("store-1") || !c.CanAccessStore("store-999") {
		t.Fatal("platform admin should access every store")
	}

	storeOnly := NewChecker(
		[]RoleGrant{{Name: "viewer", Scope: ScopeStore}},
		[]StoreGrant{{StoreID: "store-2", Roles: []string{"viewer"}}},
	)
	if !storeOnly.CanAccessStore("store-2") {
		t.Fatal("store grant should open its own store")
	}
	if storeOnly.CanAccessStore("store-1") {
		t.Fatal("no grant and no platform scope should deny access")
	}
	if storeOnly.CanAccessStore("") {
		t.Fatal("empty store ID should deny access")
	}
}

func TestStoreIDs(t *testing.T) {
	got := newTestChecker().StoreIDs()
	if len(got) != 2 || got[0] != "store-1" || got[1] != "store-2" {
		t.Fatalf("store IDs = %v, want [store-1 store-2]", got)
	}

	empty := NewChecker(nil, nil).StoreIDs()
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty checker store IDs = %v, want []", empty)
	}
}

func TestNilCheckerDeniesEverything(t *testing.T) {
	var c *Checker

	if c.HasRole("any") || c.IsPlatformAdmin() || c.HasStoreRole("s", "r") || c.CanAccessStore("s") {
		t.Fatal("nil checker should deny every query")
	}
	if got := c.StoreIDs(); len(got) != 0 {
		t.Fatalf("nil checker store IDs = %v, want empty", got)
	}
}
