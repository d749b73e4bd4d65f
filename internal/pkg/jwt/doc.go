// Package jwt issues and verifies the bearer tokens used by dashboard users.
//
// Tokens are HS512 signed and carry the user id and email next to the
// registered claims. Verified claims travel through the request context via
// SetAuth and GetAuth.
package jwt
