package domain

import (
	"errors"
	"strings"
)

// Role is a team-level role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCoach   Role = "coach"
	RoleParent  Role = "parent"
	RoleAthlete Role = "athlete"
)

var ErrUnknownRole = errors.New("unknown role")

// Roles lists every assignable role, most privileged first.
var Roles = []Role{RoleAdmin, RoleCoach, RoleParent, RoleAthlete}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleParent, RoleAthlete:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Manages reports whether members holding r run the team roster.
func (r Role) Manages() bool {
	return r == RoleAdmin || r == RoleCoach
}
