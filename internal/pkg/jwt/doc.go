// Package jwt signs and verifies the short-lived handoff tokens issued after a
// successful recovery verification (HS512, username as the only private claim).
package jwt
