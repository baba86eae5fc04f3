package domain

import (
	"time"

	"github.com/google/uuid"
)

// Timestamps is embedded by every persisted entity. Both columns are
// maintained by the database (DEFAULT now() on insert, explicit now() on
// update statements).
type Timestamps struct {
	CreateDate time.Time `json:"createDate"`
	UpdateDate time.Time `json:"updateDate"`
}

// User represents an application user. The username is unique; the unique
// index on the users table is the source of truth for concurrent signups.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Timestamps
}

// Credential is the salted-hash representation of a user's password.
// Exactly one row exists per user (primary key user_id, cascade-deleted with
// the user). The raw password is never stored.
type Credential struct {
	UserID uuid.UUID
	Salt   string
	Hash   string
	Timestamps
}

// Session represents an authenticated client visit. The session id is handed
// to the client as an opaque cookie value; the expire date slides forward on
// every authorized request. A user may hold any number of concurrent
// sessions.
type Session struct {
	ID         uuid.UUID `json:"id"`
	User       User      `json:"user"`
	ExpireDate time.Time `json:"expireDate"`
	Timestamps
}

// Thing is a minimal owned resource, persisted as-is.
type Thing struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Timestamps
}
