// Package session provides the namespaced, TTL-aware key/value store shared
// by all conversation instances.
package session

import (
	"context"
	"errors"
	"time"
)

// EphemeralTTL bounds mid-flow scratch data. An abandoned multi-step flow
// times out by key expiry; there is no other timeout mechanism.
const EphemeralTTL = 120 * time.Second

// namespace prefixes every key to avoid collisions with unrelated data in a
// shared store.
const namespace = "usr"

// Topics under which a conversation stores values. At most one live value
// exists per (scope, topic) pair; Set replaces any prior value.
const (
	TopicState       = "state"      // ephemeral conversation-state union
	TopicCredentials = "cred"       // durable, chat-scoped
	TopicAutoInvest  = "autoinvest" // durable, user-scoped
)

// ErrNotFound reports a missing or expired key. Callers treat it as "no
// session", never as a fatal error.
var ErrNotFound = errors.New("session: key not found")

// Key builds the namespaced store key for a scope (chat id or authenticated
// user id) and topic.
func Key(scope, topic string) string {
	return namespace + ":" + scope + ":" + topic
}

// Store is the session contract. There are no transactions: callers doing
// read-modify-write perform independent operations, and near-simultaneous
// updates on the same chat can interleave.
type Store interface {
	// Get returns the live value for key, or ErrNotFound if the key is
	// absent or its TTL has elapsed.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any prior value. With
	// ephemeral=true the entry expires after EphemeralTTL; otherwise it
	// persists until Delete.
	Set(ctx context.Context, key, value string, ephemeral bool) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
