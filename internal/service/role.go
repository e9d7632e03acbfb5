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

type CreateRoleInput struct {
	Name string `json:"name" validate:"required,min=2"`
}

type RoleService struct {
	roles  repository.RoleRepository
	logger *slog.Logger
}

func NewRoleService(roles repository.RoleRepository, logger *slog.Logger) *RoleService {
	return &RoleService{roles: roles, logger: logger}
}

// Create stores a new role. Names are unique; a duplicate fails with
// apperror.ErrConflict on param "name".
func (s *RoleService) Create(ctx context.Context, in CreateRoleInput) (*model.Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	role := &model.Role{Name: in.Name}
	if err := s.roles.CreateRole(ctx, role); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create role",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating role: %w", err)
	}

	s.logger.Info("role created", slog.String("id", role.ID), slog.String("name", role.Name))
	return role, nil
}

// List returns one zero-based page of roles.
func (s *RoleService) List(ctx context.Context, page int) (*pagination.Result[model.Role], error) {
	roles, total, err := s.roles.ListRoles(ctx, pagination.Options(page))
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return &pagination.Result[model.Role]{Items: roles, Meta: pagination.NewMeta(page, total)}, nil
}

// SeedDefaults makes sure the roles the application relies on exist.
// Running it again is a no-op.
func (s *RoleService) SeedDefaults(ctx context.Context) error {
	if err := s.roles.EnsureRoles(ctx, model.DefaultRoles); err != nil {
		return fmt.Errorf("seeding default roles: %w", err)
	}
	s.logger.Debug("default roles ensured", slog.Int("count", len(model.DefaultRoles)))
	return nil
}
