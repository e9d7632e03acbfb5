package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/pagination"
	"github.com/sakif/communities/internal/repository"
)

type CreateCommunityInput struct {
	Name string `json:"name" validate:"required,gt=2"`
}

type CommunityService struct {
	communities repository.CommunityRepository
	members     repository.MemberRepository
	logger      *slog.Logger
}

func NewCommunityService(
	communities repository.CommunityRepository,
	members repository.MemberRepository,
	logger *slog.Logger,
) *CommunityService {
	return &CommunityService{
		communities: communities,
		members:     members,
		logger:      logger,
	}
}

// Slug derives the unique key of a community from its name.
func Slug(name string) string {
	return strings.ToLower(name)
}

// Create stores a community owned by ownerID and makes the owner a
// "Community Admin" member in the same transaction.
func (s *CommunityService) Create(ctx context.Context, ownerID string, in CreateCommunityInput) (*model.Community, error) {
	if ownerID == "" {
		return nil, apperror.NotSignedIn()
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	community := &model.Community{
		Name:    in.Name,
		Slug:    Slug(in.Name),
		OwnerID: ownerID,
	}
	if _, err := s.communities.CreateWithOwner(ctx, community, model.RoleCommunityAdmin); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		if errors.Is(err, repository.ErrOwnerRoleMissing) {
			s.logger.Error("community not created: admin role missing, enable SEED_ROLES or create it",
				slog.String("role", model.RoleCommunityAdmin),
			)
		} else {
			s.logger.Error("failed to create community",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("creating community: %w", err)
	}

	s.logger.Info("community created",
		slog.String("id", community.ID),
		slog.String("slug", community.Slug),
		slog.String("owner_id", ownerID),
	)
	return community, nil
}

// List returns one page of all communities with their owners.
func (s *CommunityService) List(ctx context.Context, page int) (*pagination.Result[model.Community], error) {
	items, total, err := s.communities.ListCommunities(ctx, pagination.Options(page))
	if err != nil {
		return nil, fmt.Errorf("listing communities: %w", err)
	}
	return &pagination.Result[model.Community]{Items: items, Meta: pagination.NewMeta(page, total)}, nil
}

// ListOwned returns one page of the communities userID owns.
func (s *CommunityService) ListOwned(ctx context.Context, userID string, page int) (*pagination.Result[model.Community], error) {
	items, total, err := s.communities.ListCommunitiesByOwner(ctx, userID, pagination.Options(page))
	if err != nil {
		return nil, fmt.Errorf("listing communities owned by %s: %w", userID, err)
	}
	return &pagination.Result[model.Community]{Items: items, Meta: pagination.NewMeta(page, total)}, nil
}

// ListJoined returns one page of the communities userID is a member of,
// owned ones included.
func (s *CommunityService) ListJoined(ctx context.Context, userID string, page int) (*pagination.Result[model.Community], error) {
	items, total, err := s.communities.ListCommunitiesByMember(ctx, userID, pagination.Options(page))
	if err != nil {
		return nil, fmt.Errorf("listing communities joined by %s: %w", userID, err)
	}
	return &pagination.Result[model.Community]{Items: items, Meta: pagination.NewMeta(page, total)}, nil
}

// ListMembers returns one page of a community's members. An unknown
// community yields an empty page.
func (s *CommunityService) ListMembers(ctx context.Context, communityID string, page int) (*pagination.Result[model.Member], error) {
	items, total, err := s.members.ListMembers(ctx, communityID, pagination.Options(page))
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", communityID, err)
	}
	return &pagination.Result[model.Member]{Items: items, Meta: pagination.NewMeta(page, total)}, nil
}
