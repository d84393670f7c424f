package redis

import "strings"

// Every key lives under "pp:<kind>:...".
const keyNamespace = "pp"

type keyKind string

const (
	kindIdempotency   keyKind = "idempotency"
	kindRateLimit     keyKind = "rate_limit"
	kindSession       keyKind = "session"
	kindPantrySession keyKind = "pantry_session"
	kindRecipe        keyKind = "recipe"
)

func key(kind keyKind, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(string(kind))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// IdempotencyKey is where a replayable response for (scope, id) is stored.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key(kindIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return key(kindRateLimit, scope)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return key(kindSession, "access", accessID)
}

// PantrySessionKey marks an anonymous pantry token as live while it exists.
func (c *Client) PantrySessionKey(token string) string {
	return key(kindPantrySession, token)
}

// RecipeCacheKey holds a generated recipe for a digest of the pantry item set.
func (c *Client) RecipeCacheKey(digest string) string {
	return key(kindRecipe, digest)
}
