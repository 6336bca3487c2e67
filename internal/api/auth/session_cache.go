package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// SessionCache is the process-local token -> session mapping. It exists so a
// request does not cost a remote round trip; the trade-off is that there is
// no cross-process invalidation, so a logout or password reset in one
// process does not revoke a token another process already cached.
type SessionCache struct {
	cache *gocache.Cache
}

// NewSessionCache builds a cache whose entries expire after ttl. Expiry is
// the Session's Expired terminal state: once the entry is gone the token can
// never resolve again.
func NewSessionCache(ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionCache{cache: gocache.New(ttl, 10*time.Minute)}
}

// Put registers a freshly issued session under its token.
func (c *SessionCache) Put(session types.Session) {
	c.cache.SetDefault(session.Token, session)
}

// Resolve returns the session for token, or false for unknown, destroyed or
// expired tokens.
func (c *SessionCache) Resolve(token string) (types.Session, bool) {
	v, ok := c.cache.Get(token)
	if !ok {
		return types.Session{}, false
	}
	return v.(types.Session), true
}

// Destroy removes the session. Destroying an already-gone session is not an
// error; the operation is idempotent.
func (c *SessionCache) Destroy(token string) {
	c.cache.Delete(token)
}

// DestroyAllForUser removes every session bound to userID. Used when a
// password reset must invalidate all outstanding credentials.
func (c *SessionCache) DestroyAllForUser(userID string) {
	for token, item := range c.cache.Items() {
		if s, ok := item.Object.(types.Session); ok && s.UserID == userID {
			c.cache.Delete(token)
		}
	}
}

// newSessionToken returns an opaque, unguessable credential: 32 bytes of
// crypto/rand, base64url encoded.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
