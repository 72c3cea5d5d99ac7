package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const profileWithStoreJSON = `{
	"id": "u1",
	"username": "jdoe",
	"email": "jdoe@example.com",
	"roles": ["store-admin"],
	"storeAccess": [{"storeId": "s1", "roles": ["manager"]}]
}`

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireSessionRejectsWithoutSession(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)

	h := RequireSession(c)(okHandler())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireSessionInjectsSession(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	var sawUsername string
	h := RequireSession(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatal("no session in context")
		}
		sawUsername = sess.Profile.Username
		w.WriteHeader(http.StatusOK)
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sawUsername != "jdoe" {
		t.Fatalf("username = %q, want jdoe", sawUsername)
	}
}

func TestRequireRoleForbidsMissingRole(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	h := RequireRole(c, "platform-admin")(okHandler())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRoleAllowsAnyMatch(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	c := newController(t, f)
	login(t, c)

	h := RequireRole(c, "platform-admin", "store-admin")(okHandler())
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireStoreAccess(t *testing.T) {
	f := newFakeProvider(t, "store-admin")
	f.profileJSON = []byte(profileWithStoreJSON)
	c := newController(t, f)
	login(t, c)

	h := RequireStoreAccess(c, "")(okHandler())

	cases := []struct {
		name    string
		storeID string
		want    int
	}{
		{"granted store", "s1", http.StatusOK},
		{"other store", "s2", http.StatusForbidden},
		{"missing header", "", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/store", nil)
			if tc.storeID != "" {
				req.Header.Set(StoreIDHeader, tc.storeID)
			}
			rec := serve(h, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRequireStoreAccessPlatformAdmin(t *testing.T) {
	f := newFakeProvider(t, "platform-admin")
	c := newController(t, f)
	login(t, c)

	h := RequireStoreAccess(c, "")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/store", nil)
	req.Header.Set(StoreIDHeader, "s9")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want platform admin to pass", rec.Code)
	}
}
