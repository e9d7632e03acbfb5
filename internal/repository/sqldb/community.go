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

var _ repository.CommunityRepository = (*DB)(nil)

// communitySelect joins the owner so every read returns Owner {id, name}.
const communitySelect = `
	SELECT c.id, c.name, c.slug, c.owner_id, u.name, c.created_at, c.updated_at
	FROM communities c
	JOIN users u ON u.id = c.owner_id`

// CreateWithOwner inserts the community and makes its owner a member holding
// ownerRole. Role lookup, community insert and member insert share one
// transaction: if the role is missing or any insert fails, nothing is kept.
func (db *DB) CreateWithOwner(ctx context.Context, community *model.Community, ownerRole string) (*model.Member, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqldb: beginning transaction: %w", err)
	}
	// Rollback after Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	var role model.Role
	err = tx.QueryRowContext(ctx, db.rebind(
		`SELECT id, name FROM roles WHERE name = ?`), ownerRole,
	).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sqldb: role %q: %w", ownerRole, repository.ErrOwnerRoleMissing)
		}
		return nil, fmt.Errorf("sqldb: looking up role %q: %w", ownerRole, err)
	}

	var ownerName string
	err = tx.QueryRowContext(ctx, db.rebind(
		`SELECT name FROM users WHERE id = ?`), community.OwnerID,
	).Scan(&ownerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", community.OwnerID)
		}
		return nil, fmt.Errorf("sqldb: looking up owner %s: %w", community.OwnerID, err)
	}

	community.ID = xid.New().String()
	community.CreatedAt = now()
	community.UpdatedAt = community.CreatedAt
	community.Owner = &model.UserSummary{ID: community.OwnerID, Name: ownerName}

	_, err = tx.ExecContext(ctx, db.rebind(
		`INSERT INTO communities (id, name, slug, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		community.ID,
		community.Name,
		community.Slug,
		community.OwnerID,
		community.CreatedAt,
		community.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Exists("name", "Community with this name already exists.")
		}
		return nil, fmt.Errorf("sqldb: inserting community: %w", err)
	}

	member := &model.Member{
		ID:          xid.New().String(),
		CommunityID: community.ID,
		UserID:      community.OwnerID,
		RoleID:      role.ID,
		User:        community.Owner,
		Role:        role.Summary(),
		CreatedAt:   community.CreatedAt,
	}
	_, err = tx.ExecContext(ctx, db.rebind(
		`INSERT INTO members (id, community_id, user_id, role_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		member.ID, member.CommunityID, member.UserID, member.RoleID, member.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqldb: inserting owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqldb: committing community %s: %w", community.ID, err)
	}
	return member, nil
}

func (db *DB) GetCommunityByID(ctx context.Context, id string) (*model.Community, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(communitySelect+` WHERE c.id = ?`), id)
	c, err := scanCommunity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("community", id)
		}
		return nil, fmt.Errorf("sqldb: getting community %s: %w", id, err)
	}
	return c, nil
}

func (db *DB) ListCommunities(ctx context.Context, opts repository.ListOptions) ([]model.Community, int, error) {
	total, err := db.countQuery(ctx, `SELECT COUNT(*) FROM communities`)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: counting communities: %w", err)
	}
	list, err := db.listCommunities(ctx, communitySelect+`
		ORDER BY c.id
		LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (db *DB) ListCommunitiesByOwner(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Community, int, error) {
	total, err := db.countQuery(ctx, `SELECT COUNT(*) FROM communities WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: counting communities of owner %s: %w", ownerID, err)
	}
	list, err := db.listCommunities(ctx, communitySelect+`
		WHERE c.owner_id = ?
		ORDER BY c.id
		LIMIT ? OFFSET ?`, ownerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (db *DB) ListCommunitiesByMember(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Community, int, error) {
	total, err := db.countQuery(ctx, `SELECT COUNT(*) FROM members WHERE user_id = ?`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: counting memberships of user %s: %w", userID, err)
	}
	list, err := db.listCommunities(ctx, communitySelect+`
		JOIN members m ON m.community_id = c.id
		WHERE m.user_id = ?
		ORDER BY c.id
		LIMIT ? OFFSET ?`, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (db *DB) listCommunities(ctx context.Context, query string, args ...any) ([]model.Community, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing communities: %w", err)
	}
	defer rows.Close()

	var list []model.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("sqldb: scanning community row: %w", err)
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating communities: %w", err)
	}
	if list == nil {
		list = []model.Community{}
	}
	return list, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCommunity(s scanner) (*model.Community, error) {
	var (
		c     model.Community
		owner model.UserSummary
	)
	if err := s.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.OwnerID,
		&owner.Name,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	owner.ID = c.OwnerID
	c.Owner = &owner
	return &c, nil
}
