package model

import "time"

// Community is a group owned by one user. Slug is the lower-cased name and is
// unique across communities.
//
// OwnerID is the foreign key; Owner is the embedded {id, name} the API
// returns and is filled by every read.
type Community struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	OwnerID   string       `json:"-"`
	Owner     *UserSummary `json:"owner"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
