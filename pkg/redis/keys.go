package redis

import "strings"

const defaultNamespace = "sh"

// Keyspace builds colon-separated keys under one namespace. Blank parts are
// dropped so optional scope segments never produce "::".
type Keyspace string

func (k Keyspace) Key(parts ...string) string {
	var b strings.Builder
	ns := string(k)
	if ns == "" {
		ns = defaultNamespace
	}
	b.WriteString(ns)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// IdempotencyKey namespaces a stored response for a client-supplied key.
func (k Keyspace) IdempotencyKey(scope, id string) string {
	return k.Key("idempotency", scope, id)
}

// RateLimitKey namespaces a fixed-window counter.
func (k Keyspace) RateLimitKey(parts ...string) string {
	return k.Key(append([]string{"rate_limit"}, parts...)...)
}

// AccessSessionKey holds the refresh token bound to one access token id.
func (k Keyspace) AccessSessionKey(accessID string) string {
	return k.Key("session", "access", accessID)
}

// SelectionKey holds one field of a user's current company selection.
func (k Keyspace) SelectionKey(prefix, userID, field string) string {
	return k.Key(prefix, userID, field)
}
