// Package otp generates and verifies time-based one-time passwords (RFC 6238)
// for recovery challenges.
//
// Verification is pure: the caller passes the secret, the parameters stored
// with the challenge and the instant to check against. Every candidate in the
// drift window is computed and compared, so the time taken does not depend on
// which step matched.
package otp
