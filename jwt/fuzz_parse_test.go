package jwt

import (
	"encoding/base64"
	"testing"
)

// FuzzDecodeUnverified exercises the payload decoder with arbitrary token
// strings. Goal: no panics; malformed inputs must be rejected with errors.
func FuzzDecodeUnverified(f *testing.F) {
	d, err := NewDecoder(Config{DefaultResource: "admin-console"})
	if err != nil {
		f.Fatal(err)
	}

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u1","realm_access":{"roles":["store-admin"]}}`))

	f.Add(header + "." + payload + ".sig")
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ0ZXN0In0.")
	f.Add(header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"resource_access":{"x":{"roles":null}}}`)) + ".")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := d.DecodeUnverified(input)
		if err != nil {
			return
		}
		if claims == nil {
			t.Fatal("DecodeUnverified returned nil claims without error")
		}
		// Accessors must tolerate any decoded shape.
		_ = claims.RealmRoles()
		_ = claims.ResourceRoles("admin-console")
		_ = d.CombinedRoles(claims)
		_ = claims.Expiry()
	})
}
