// Package hash provides keyed hashing for short secrets that must be looked up
// without being stored in clear, such as one-time codes.
package hash
