package models

import "strings"

// Role is the business classification of a user. It never changes the
// shape of the record, only which views and actions are available.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleParent Role = "parent"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleCoach, RoleParent}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleParent:
		return true
	}
	return false
}

// Label is the human-readable role name shown in the user picker.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleCoach:
		return "Coach"
	case RoleParent:
		return "Parent"
	}
	return string(r)
}

// User maps to the `users` table.
type User struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Email     *string `db:"email" json:"email,omitempty"`
	Role      Role    `db:"role" json:"role"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}
