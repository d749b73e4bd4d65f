// Package hash provides one-way hashing strategies behind the Hash interface.
//
// Salted adaptive schemes (bcrypt, argon2id) protect low-entropy secrets such
// as passwords and OTP codes. The keyed HMAC scheme produces deterministic
// digests for high-entropy tokens that must be looked up by value.
package hash
