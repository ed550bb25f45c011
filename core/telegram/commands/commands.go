package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Role ranks a user's access level for command gating.
type Role int

const (
	// RoleRestricted marks users barred from the request workflows.
	RoleRestricted Role = iota - 1
	// RoleDefault is any community member.
	RoleDefault
	// RoleSoaper is a transfer responder allowed to manage workspaces.
	RoleSoaper
	// RoleStaff is a moderator with full command access.
	RoleStaff
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleRestricted:
		return "restricted"
	case RoleSoaper:
		return "soaper"
	case RoleStaff:
		return "staff"
	default:
		return "default"
	}
}

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	MinRole     Role
	Hidden      bool
	Aliases     []string
}
