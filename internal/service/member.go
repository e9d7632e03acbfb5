package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/repository"
)

type AddMemberInput struct {
	Community string `json:"community" validate:"required"`
	User      string `json:"user" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

type MemberService struct {
	communities repository.CommunityRepository
	members     repository.MemberRepository
	users       repository.UserRepository
	roles       repository.RoleRepository
	logger      *slog.Logger
}

func NewMemberService(
	communities repository.CommunityRepository,
	members repository.MemberRepository,
	users repository.UserRepository,
	roles repository.RoleRepository,
	logger *slog.Logger,
) *MemberService {
	return &MemberService{
		communities: communities,
		members:     members,
		users:       users,
		roles:       roles,
		logger:      logger,
	}
}

// Add grants a user a role in a community. Checks run in order: the
// community exists, the caller owns it, the user and role exist, and the
// user is not already a member.
func (s *MemberService) Add(ctx context.Context, callerID string, in AddMemberInput) (*model.Member, error) {
	if callerID == "" {
		return nil, apperror.NotSignedIn()
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	community, err := s.communities.GetCommunityByID(ctx, in.Community)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundField("community", "Community not found.")
		}
		return nil, fmt.Errorf("loading community %s: %w", in.Community, err)
	}
	if community.OwnerID != callerID {
		return nil, apperror.Forbidden("You are not authorized to perform this action.")
	}

	user, err := s.users.GetUserByID(ctx, in.User)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundField("user", "User not found.")
		}
		return nil, fmt.Errorf("loading user %s: %w", in.User, err)
	}

	role, err := s.roles.GetRoleByID(ctx, in.Role)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundField("role", "Role not found.")
		}
		return nil, fmt.Errorf("loading role %s: %w", in.Role, err)
	}

	_, err = s.members.GetMembership(ctx, community.ID, user.ID)
	switch {
	case err == nil:
		return nil, apperror.Exists("user", "User is already added in the community.")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("checking membership: %w", err)
	}

	member := &model.Member{
		CommunityID: community.ID,
		UserID:      user.ID,
		RoleID:      role.ID,
		User:        user.Summary(),
		Role:        role.Summary(),
	}
	// The unique index still settles a race between two adds.
	if err := s.members.CreateMember(ctx, member); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to add member",
			slog.String("community_id", community.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding member: %w", err)
	}

	s.logger.Info("member added",
		slog.String("id", member.ID),
		slog.String("community_id", community.ID),
		slog.String("user_id", user.ID),
		slog.String("role", role.Name),
	)
	return member, nil
}

// Remove deletes a membership. The caller must be a member of the same
// community holding exactly the "Community Admin" or "Community Moderator"
// role.
func (s *MemberService) Remove(ctx context.Context, callerID, memberID string) error {
	if callerID == "" {
		return apperror.NotSignedIn()
	}

	target, err := s.members.GetMemberByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundField("id", "Member not found.")
		}
		return fmt.Errorf("loading member %s: %w", memberID, err)
	}

	caller, err := s.members.GetMembership(ctx, target.CommunityID, callerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Forbidden("You are not authorized to perform this action.")
		}
		return fmt.Errorf("loading caller membership: %w", err)
	}
	if caller.Role == nil || !model.CanRemoveMembers(caller.Role.Name) {
		return apperror.Forbidden("You are not authorized to perform this action.")
	}

	if err := s.members.DeleteMember(ctx, target.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFoundField("id", "Member not found.")
		}
		return fmt.Errorf("removing member %s: %w", target.ID, err)
	}

	s.logger.Info("member removed",
		slog.String("id", target.ID),
		slog.String("community_id", target.CommunityID),
		slog.String("by", callerID),
	)
	return nil
}
