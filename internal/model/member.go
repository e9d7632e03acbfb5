package model

import "time"

// Member grants one user one role inside one community. A user holds at most
// one membership per community.
type Member struct {
	ID          string       `json:"id"`
	CommunityID string       `json:"community"`
	UserID      string       `json:"-"`
	RoleID      string       `json:"-"`
	User        *UserSummary `json:"user"`
	Role        *RoleSummary `json:"role"`
	CreatedAt   time.Time    `json:"created_at"`
}
