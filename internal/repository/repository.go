// Package repository declares the persistence contracts the service layer
// depends on. The only implementation lives in repository/sqldb; services and
// their tests only ever see these interfaces.
package repository

import (
	"context"
	"errors"

	"github.com/sakif/communities/internal/model"
)

// ErrOwnerRoleMissing is returned by CreateWithOwner when the role granted to
// a new community's owner does not exist.
var ErrOwnerRoleMissing = errors.New("owner role is not configured")

// ListOptions selects one page of a list query.
type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type RoleRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRoleByID(ctx context.Context, id string) (*model.Role, error)
	ListRoles(ctx context.Context, opts ListOptions) ([]model.Role, int, error)
	// EnsureRoles creates any of the named roles that do not exist yet.
	EnsureRoles(ctx context.Context, names []string) error
}

type CommunityRepository interface {
	// CreateWithOwner inserts the community and the owner's membership with
	// the role named ownerRole in one transaction. Nothing is written if any
	// step fails.
	CreateWithOwner(ctx context.Context, community *model.Community, ownerRole string) (*model.Member, error)
	GetCommunityByID(ctx context.Context, id string) (*model.Community, error)
	ListCommunities(ctx context.Context, opts ListOptions) ([]model.Community, int, error)
	ListCommunitiesByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]model.Community, int, error)
	ListCommunitiesByMember(ctx context.Context, userID string, opts ListOptions) ([]model.Community, int, error)
}

type MemberRepository interface {
	CreateMember(ctx context.Context, member *model.Member) error
	GetMemberByID(ctx context.Context, id string) (*model.Member, error)
	// GetMembership returns the user's membership in the community, or an
	// apperror.ErrNotFound error.
	GetMembership(ctx context.Context, communityID, userID string) (*model.Member, error)
	ListMembers(ctx context.Context, communityID string, opts ListOptions) ([]model.Member, int, error)
	DeleteMember(ctx context.Context, id string) error
}
