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

var _ repository.MemberRepository = (*DB)(nil)

// memberSelect joins the user and role so every member read carries both
// summaries.
const memberSelect = `
	SELECT m.id, m.community_id, m.user_id, u.name, m.role_id, r.name, m.created_at
	FROM members m
	JOIN users u ON u.id = m.user_id
	JOIN roles r ON r.id = m.role_id`

// CreateMember inserts a membership. A second membership of the same user in
// the same community violates UNIQUE(community_id, user_id) and is reported
// as apperror.ErrConflict.
func (db *DB) CreateMember(ctx context.Context, member *model.Member) error {
	member.ID = xid.New().String()
	member.CreatedAt = now()

	_, err := db.conn.ExecContext(ctx, db.rebind(
		`INSERT INTO members (id, community_id, user_id, role_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`),
		member.ID,
		member.CommunityID,
		member.UserID,
		member.RoleID,
		member.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Exists("user", "User is already added in the community.")
		}
		return fmt.Errorf("sqldb: inserting member: %w", err)
	}
	return nil
}

func (db *DB) GetMemberByID(ctx context.Context, id string) (*model.Member, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(memberSelect+` WHERE m.id = ?`), id)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("member", id)
		}
		return nil, fmt.Errorf("sqldb: getting member %s: %w", id, err)
	}
	return m, nil
}

func (db *DB) GetMembership(ctx context.Context, communityID, userID string) (*model.Member, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(
		memberSelect+` WHERE m.community_id = ? AND m.user_id = ?`), communityID, userID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("member", userID)
		}
		return nil, fmt.Errorf("sqldb: getting membership of %s in %s: %w", userID, communityID, err)
	}
	return m, nil
}

// ListMembers returns one page of a community's members plus the total count.
func (db *DB) ListMembers(ctx context.Context, communityID string, opts repository.ListOptions) ([]model.Member, int, error) {
	total, err := db.countQuery(ctx, `SELECT COUNT(*) FROM members WHERE community_id = ?`, communityID)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: counting members of %s: %w", communityID, err)
	}

	rows, err := db.conn.QueryContext(ctx, db.rebind(memberSelect+`
		WHERE m.community_id = ?
		ORDER BY m.id
		LIMIT ? OFFSET ?`),
		communityID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqldb: listing members of %s: %w", communityID, err)
	}
	defer rows.Close()

	members := make([]model.Member, 0, opts.Limit)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqldb: scanning member row: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqldb: iterating members: %w", err)
	}

	return members, total, nil
}

// DeleteMember removes a membership. Same RowsAffected pattern as every
// other delete: zero rows means it did not exist.
func (db *DB) DeleteMember(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM members WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("sqldb: deleting member %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqldb: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("member", id)
	}
	return nil
}

func scanMember(s scanner) (*model.Member, error) {
	var (
		m    model.Member
		user model.UserSummary
		role model.RoleSummary
	)
	if err := s.Scan(
		&m.ID,
		&m.CommunityID,
		&m.UserID,
		&user.Name,
		&m.RoleID,
		&role.Name,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.ID = m.UserID
	role.ID = m.RoleID
	m.User = &user
	m.Role = &role
	return &m, nil
}
