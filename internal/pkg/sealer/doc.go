// Package sealer provides authenticated symmetric encryption for short
// secrets that must travel through infrastructure the service does not
// trust, such as a message broker.
//
// Ciphertexts are bound to caller supplied associated data, so a sealed value
// cannot be replayed under a different context.
package sealer
