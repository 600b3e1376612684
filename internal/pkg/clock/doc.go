// Package clock lets code read time through an interface so tests can pin
// it. Production wiring uses New; tests use Fixed and move it with Advance.
package clock
