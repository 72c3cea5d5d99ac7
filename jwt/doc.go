// Package jwt decodes access-token payload claims without signature
// verification, strictly as a display/UX convenience for session consumers.
// It is not a trust boundary: authorization is always re-validated by the
// backend.
package jwt
