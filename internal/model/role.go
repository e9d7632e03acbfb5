package model

import "time"

// Names of the roles the application itself depends on.
const (
	RoleCommunityAdmin     = "Community Admin"
	RoleCommunityModerator = "Community Moderator"
	RoleCommunityMember    = "Community Member"
)

// DefaultRoles are seeded at startup.
var DefaultRoles = []string{
	RoleCommunityAdmin,
	RoleCommunityModerator,
	RoleCommunityMember,
}

type Role struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleSummary is the {id, name} pair embedded in member rows.
type RoleSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r *Role) Summary() *RoleSummary {
	return &RoleSummary{ID: r.ID, Name: r.Name}
}

// CanRemoveMembers reports whether holders of the role may remove members
// from their community.
func CanRemoveMembers(roleName string) bool {
	return roleName == RoleCommunityAdmin || roleName == RoleCommunityModerator
}
