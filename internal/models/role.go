package models

import "strings"

// Role is the closed set of user roles
type Role int

const (
	RoleNone Role = iota
	RoleAdmin
	RoleHost
	RolePlayer
	RoleUser
)

var roleNames = map[Role]string{
	RoleAdmin:  "admin",
	RoleHost:   "host",
	RolePlayer: "player",
	RoleUser:   "user",
}

// ParseRole maps a stored role string to a Role. Unknown values yield RoleNone.
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == s {
			return role
		}
	}
	return RoleNone
}

func (r Role) String() string {
	return roleNames[r]
}

// Valid reports whether r is a member of the enumeration
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// RoleNames lists the valid role strings, most privileged first
func RoleNames() []string {
	return []string{"admin", "host", "player", "user"}
}
