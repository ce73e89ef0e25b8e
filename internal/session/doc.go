// Package session provides the in-memory conversation store that holds
// recent message history per chat, with TTL-based expiry.
package session
