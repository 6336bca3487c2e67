package types

import "time"

// UsersCollection is the collection the auth layer is built on.
const UsersCollection = "users"

// UserView is the safe projection of a users record handed back to callers.
// The password hash stays inside the auth package.
type UserView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Session binds an opaque token to exactly one authenticated user.
// Lifecycle: Created -> Active -> {Expired | Destroyed | Invalidated},
// all three terminal. Expiry is enforced by the cache TTL; destruction and
// invalidation remove the entry outright, so a dead token can never resolve
// again.
type Session struct {
	Token    string    `json:"token"`
	UserID   string    `json:"userId"`
	IssuedAt time.Time `json:"issuedAt"`
}
