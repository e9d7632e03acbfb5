package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/model"
)

// memberFixture is one community owned by owner, plus an outsider and the
// default roles.
type memberFixture struct {
	svc       *MemberService
	store     *fakeStore
	owner     *model.User
	outsider  *model.User
	community *model.Community
	roles     map[string]*model.Role
}

func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()
	store := newFakeStore()
	roles := seedDefaultRoles(t, store)
	owner := seedUser(t, store, "owner")
	outsider := seedUser(t, store, "outsider")

	community := &model.Community{Name: "Gophers", Slug: "gophers", OwnerID: owner.ID}
	_, err := store.CreateWithOwner(context.Background(), community, model.RoleCommunityAdmin)
	require.NoError(t, err)

	return &memberFixture{
		svc:       NewMemberService(store, store, store, store, testLogger()),
		store:     store,
		owner:     owner,
		outsider:  outsider,
		community: community,
		roles:     roles,
	}
}

// join adds user with roleName directly through the store.
func (f *memberFixture) join(t *testing.T, user *model.User, roleName string) *model.Member {
	t.Helper()
	m := &model.Member{CommunityID: f.community.ID, UserID: user.ID, RoleID: f.roles[roleName].ID}
	require.NoError(t, f.store.CreateMember(context.Background(), m))
	m.Role = f.roles[roleName].Summary()
	f.store.members[m.ID].Role = m.Role
	return m
}

func assertField(t *testing.T, err error, sentinel error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel), "got %v", err)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, field, appErr.Field)
}

// =========================================================================
// ADD
// =========================================================================

func TestMemberAdd_Success(t *testing.T) {
	f := newMemberFixture(t)

	m, err := f.svc.Add(context.Background(), f.owner.ID, AddMemberInput{
		Community: f.community.ID,
		User:      f.outsider.ID,
		Role:      f.roles[model.RoleCommunityMember].ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, f.outsider.ID, m.User.ID)
	assert.Equal(t, model.RoleCommunityMember, m.Role.Name)
}

func TestMemberAdd_Failures(t *testing.T) {
	tests := []struct {
		name      string
		caller    func(*memberFixture) string
		input     func(*memberFixture) AddMemberInput
		sentinel  error
		wantField string
	}{
		{
			name:   "missing fields",
			caller: func(f *memberFixture) string { return f.owner.ID },
			input: func(f *memberFixture) AddMemberInput {
				return AddMemberInput{}
			},
			sentinel:  apperror.ErrValidation,
			wantField: "community",
		},
		{
			name:   "unknown community",
			caller: func(f *memberFixture) string { return f.owner.ID },
			input: func(f *memberFixture) AddMemberInput {
				return AddMemberInput{Community: "nope", User: f.outsider.ID, Role: f.roles[model.RoleCommunityMember].ID}
			},
			sentinel:  apperror.ErrNotFound,
			wantField: "community",
		},
		{
			name:   "caller is not the owner",
			caller: func(f *memberFixture) string { return f.outsider.ID },
			input: func(f *memberFixture) AddMemberInput {
				return AddMemberInput{Community: f.community.ID, User: f.outsider.ID, Role: f.roles[model.RoleCommunityMember].ID}
			},
			sentinel: apperror.ErrForbidden,
		},
		{
			name:   "unknown user",
			caller: func(f *memberFixture) string { return f.owner.ID },
			input: func(f *memberFixture) AddMemberInput {
				return AddMemberInput{Community: f.community.ID, User: "ghost", Role: f.roles[model.RoleCommunityMember].ID}
			},
			sentinel:  apperror.ErrNotFound,
			wantField: "user",
		},
		{
			name:   "unknown role",
			caller: func(f *memberFixture) string { return f.owner.ID },
			input: func(f *memberFixture) AddMemberInput {
				return AddMemberInput{Community: f.community.ID, User: f.outsider.ID, Role: "ghost"}
			},
			sentinel:  apperror.ErrNotFound,
			wantField: "role",
		},
		{
			name:   "already a member",
			caller: func(f *memberFixture) string { return f.owner.ID },
			input: func(f *memberFixture) AddMemberInput {
				return AddMemberInput{Community: f.community.ID, User: f.owner.ID, Role: f.roles[model.RoleCommunityMember].ID}
			},
			sentinel:  apperror.ErrConflict,
			wantField: "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMemberFixture(t)
			before := len(f.store.members)

			_, err := f.svc.Add(context.Background(), tt.caller(f), tt.input(f))
			assertField(t, err, tt.sentinel, tt.wantField)
			assert.Len(t, f.store.members, before)
		})
	}
}

// An outsider learns that a community exists before learning they may not
// touch it; the existence check comes first.
func TestMemberAdd_CommunityCheckedBeforeOwnership(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.Add(context.Background(), f.outsider.ID, AddMemberInput{
		Community: "nope", User: "ghost", Role: "ghost",
	})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

// =========================================================================
// REMOVE
// =========================================================================

func TestMemberRemove_ByRole(t *testing.T) {
	tests := []struct {
		callerRole string
		allowed    bool
	}{
		{model.RoleCommunityAdmin, true},
		{model.RoleCommunityModerator, true},
		{model.RoleCommunityMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.callerRole, func(t *testing.T) {
			f := newMemberFixture(t)
			caller := seedUser(t, f.store, "caller")
			f.join(t, caller, tt.callerRole)
			target := f.join(t, f.outsider, model.RoleCommunityMember)

			err := f.svc.Remove(context.Background(), caller.ID, target.ID)
			if tt.allowed {
				require.NoError(t, err)
				_, err = f.store.GetMemberByID(context.Background(), target.ID)
				assert.True(t, errors.Is(err, apperror.ErrNotFound))
				return
			}
			assert.True(t, errors.Is(err, apperror.ErrForbidden))
			_, err = f.store.GetMemberByID(context.Background(), target.ID)
			assert.NoError(t, err, "member must survive a rejected removal")
		})
	}
}

func TestMemberRemove_CustomRoleIsRejected(t *testing.T) {
	f := newMemberFixture(t)
	custom := &model.Role{Name: "Community Admin Assistant"}
	require.NoError(t, f.store.CreateRole(context.Background(), custom))
	f.roles[custom.Name] = custom

	caller := seedUser(t, f.store, "caller")
	f.join(t, caller, custom.Name)
	target := f.join(t, f.outsider, model.RoleCommunityMember)

	err := f.svc.Remove(context.Background(), caller.ID, target.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestMemberRemove_CallerOutsideCommunity(t *testing.T) {
	f := newMemberFixture(t)
	target := f.join(t, f.outsider, model.RoleCommunityMember)
	stranger := seedUser(t, f.store, "stranger")

	err := f.svc.Remove(context.Background(), stranger.ID, target.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestMemberRemove_UnknownMember(t *testing.T) {
	f := newMemberFixture(t)

	err := f.svc.Remove(context.Background(), f.owner.ID, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestMemberRemove_OwnerMayRemoveThemselves(t *testing.T) {
	f := newMemberFixture(t)
	own, err := f.store.GetMembership(context.Background(), f.community.ID, f.owner.ID)
	require.NoError(t, err)

	assert.NoError(t, f.svc.Remove(context.Background(), f.owner.ID, own.ID))
}
