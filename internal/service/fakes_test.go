package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/auth"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore implements every repository interface in memory. It enforces the
// same uniqueness rules as the SQL schema so conflict paths can be tested
// without a database. Set failWith to make every call return that error.

type fakeStore struct {
	mu sync.Mutex

	nextID      int
	users       map[string]*model.User
	roles       map[string]*model.Role
	communities map[string]*model.Community
	members     map[string]*model.Member

	failWith error
}

var (
	_ repository.UserRepository      = (*fakeStore)(nil)
	_ repository.RoleRepository      = (*fakeStore)(nil)
	_ repository.CommunityRepository = (*fakeStore)(nil)
	_ repository.MemberRepository    = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*model.User),
		roles:       make(map[string]*model.Role),
		communities: make(map[string]*model.Community),
		members:     make(map[string]*model.Member),
	}
}

// id returns increasing, sortable IDs like the xid ones in production.
func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%04d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Exists("email", "User with this email address already exists.")
		}
	}
	user.ID = f.id("user")
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFoundField("email", "User not found.")
}

func (f *fakeStore) CreateRole(_ context.Context, role *model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, r := range f.roles {
		if r.Name == role.Name {
			return apperror.Exists("name", "Role with this name already exists.")
		}
	}
	role.ID = f.id("role")
	stored := *role
	f.roles[role.ID] = &stored
	return nil
}

func (f *fakeStore) GetRoleByID(_ context.Context, id string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return nil, apperror.NotFound("role", id)
	}
	result := *r
	return &result, nil
}

func (f *fakeStore) ListRoles(_ context.Context, opts repository.ListOptions) ([]model.Role, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	all := make([]model.Role, 0, len(f.roles))
	for _, r := range f.roles {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, opts), len(all), nil
}

func (f *fakeStore) EnsureRoles(ctx context.Context, names []string) error {
	for _, name := range names {
		if f.roleByName(name) != nil {
			continue
		}
		if err := f.CreateRole(ctx, &model.Role{Name: name}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) roleByName(name string) *model.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (f *fakeStore) CreateWithOwner(_ context.Context, c *model.Community, ownerRole string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}

	var role *model.Role
	for _, r := range f.roles {
		if r.Name == ownerRole {
			role = r
		}
	}
	if role == nil {
		return nil, fmt.Errorf("fake: %w", repository.ErrOwnerRoleMissing)
	}
	owner, ok := f.users[c.OwnerID]
	if !ok {
		return nil, apperror.NotFound("user", c.OwnerID)
	}
	for _, existing := range f.communities {
		if existing.Slug == c.Slug {
			return nil, apperror.Exists("name", "Community with this name already exists.")
		}
	}

	c.ID = f.id("community")
	c.Owner = owner.Summary()
	stored := *c
	f.communities[c.ID] = &stored

	m := &model.Member{
		ID:          f.id("member"),
		CommunityID: c.ID,
		UserID:      owner.ID,
		RoleID:      role.ID,
		User:        owner.Summary(),
		Role:        role.Summary(),
	}
	f.members[m.ID] = m
	return m, nil
}

func (f *fakeStore) GetCommunityByID(_ context.Context, id string) (*model.Community, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	c, ok := f.communities[id]
	if !ok {
		return nil, apperror.NotFound("community", id)
	}
	result := *c
	return &result, nil
}

func (f *fakeStore) ListCommunities(_ context.Context, opts repository.ListOptions) ([]model.Community, int, error) {
	return f.filterCommunities(opts, func(*model.Community) bool { return true })
}

func (f *fakeStore) ListCommunitiesByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Community, int, error) {
	return f.filterCommunities(opts, func(c *model.Community) bool { return c.OwnerID == ownerID })
}

func (f *fakeStore) ListCommunitiesByMember(_ context.Context, userID string, opts repository.ListOptions) ([]model.Community, int, error) {
	return f.filterCommunities(opts, func(c *model.Community) bool {
		for _, m := range f.members {
			if m.CommunityID == c.ID && m.UserID == userID {
				return true
			}
		}
		return false
	})
}

func (f *fakeStore) filterCommunities(opts repository.ListOptions, keep func(*model.Community) bool) ([]model.Community, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	all := []model.Community{}
	for _, c := range f.communities {
		if keep(c) {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, opts), len(all), nil
}

func (f *fakeStore) CreateMember(_ context.Context, member *model.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, m := range f.members {
		if m.CommunityID == member.CommunityID && m.UserID == member.UserID {
			return apperror.Exists("user", "User is already added in the community.")
		}
	}
	member.ID = f.id("member")
	stored := *member
	f.members[member.ID] = &stored
	return nil
}

func (f *fakeStore) GetMemberByID(_ context.Context, id string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.members[id]
	if !ok {
		return nil, apperror.NotFound("member", id)
	}
	result := *m
	return &result, nil
}

func (f *fakeStore) GetMembership(_ context.Context, communityID, userID string) (*model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, m := range f.members {
		if m.CommunityID == communityID && m.UserID == userID {
			result := *m
			return &result, nil
		}
	}
	return nil, apperror.NotFound("member", userID)
}

func (f *fakeStore) ListMembers(_ context.Context, communityID string, opts repository.ListOptions) ([]model.Member, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	all := []model.Member{}
	for _, m := range f.members {
		if m.CommunityID == communityID {
			all = append(all, *m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, opts), len(all), nil
}

func (f *fakeStore) DeleteMember(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.members[id]; !ok {
		return apperror.NotFound("member", id)
	}
	delete(f.members, id)
	return nil
}

func page[T any](all []T, opts repository.ListOptions) []T {
	if opts.Offset >= len(all) {
		return []T{}
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService("service-test-secret-0123456789")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

// seedUser stores a user directly, bypassing signup.
func seedUser(t *testing.T, store *fakeStore, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", Password: "x"}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seedUser(%s): %v", name, err)
	}
	return u
}

func seedDefaultRoles(t *testing.T, store *fakeStore) map[string]*model.Role {
	t.Helper()
	if err := store.EnsureRoles(context.Background(), model.DefaultRoles); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	byName := make(map[string]*model.Role, len(model.DefaultRoles))
	for _, name := range model.DefaultRoles {
		byName[name] = store.roleByName(name)
	}
	return byName
}
