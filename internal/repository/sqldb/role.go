package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/repository"
)

var _ repository.RoleRepository = (*DB)(nil)

func (db *DB) CreateRole(ctx context.Context, role *model.Role) error {
	role.ID = xid.New().String()
	role.CreatedAt = now()
	role.UpdatedAt = role.CreatedAt

	_, err := db.conn.ExecContext(ctx, db.rebind(
		`INSERT INTO roles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`),
		role.ID, role.Name, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Exists("name", "Role with this name already exists.")
		}
		return fmt.Errorf("sqldb: inserting role: %w", err)
	}
	return nil
}

func (db *DB) GetRoleByID(ctx context.Context, id string) (*model.Role, error) {
	var r model.Role
	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = ?`), id,
	).Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("role", id)
		}
		return nil, fmt.Errorf("sqldb: getting role %s: %w", id, err)
	}
	return &r, nil
}

// ListRoles returns one page of roles in creation order plus the total count.
func (db *DB) ListRoles(ctx context.Context, opts repository.ListOptions) ([]model.Role, int, error) {
	total, err := db.countQuery(ctx, `SELECT COUNT(*) FROM roles`)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: counting roles: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, db.rebind(
		`SELECT id, name, created_at, updated_at
		 FROM roles
		 ORDER BY id
		 LIMIT ? OFFSET ?`),
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: listing roles: %w", err)
	}
	defer rows.Close()

	roles := make([]model.Role, 0, opts.Limit)
	for rows.Next() {
		var r model.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("sqldb: scanning role row: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqldb: iterating roles: %w", err)
	}

	return roles, total, nil
}

// EnsureRoles creates the named roles that are missing. Safe to run on every
// start.
func (db *DB) EnsureRoles(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := db.roleByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		err = db.CreateRole(ctx, &model.Role{Name: name})
		if err != nil && !errors.Is(err, apperror.ErrConflict) {
			return fmt.Errorf("sqldb: seeding role %q: %w", name, err)
		}
	}
	return nil
}

func (db *DB) roleByName(ctx context.Context, name string) (*model.Role, error) {
	var r model.Role
	err := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT id, name, created_at, updated_at FROM roles WHERE name = ?`), name,
	).Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundField("name", fmt.Sprintf("role %q not found", name))
		}
		return nil, fmt.Errorf("sqldb: getting role %q: %w", name, err)
	}
	return &r, nil
}
