package models

import "time"

// User represents an account in the user forest. A nil ParentUserID marks a
// root. Children is transient: it is populated only when the hierarchy is
// materialized into a tree and is never persisted.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	ParentUserID *string   `json:"parentUserId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Children     []*User   `json:"children,omitempty"`
}
