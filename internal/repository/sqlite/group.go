package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

var _ repository.GroupRepository = (*DB)(nil)

func (db *DB) CreateGroup(ctx context.Context, group *model.Group) error {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO auth_groups (name) VALUES (?)`, group.Name,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Name)
		}
		return fmt.Errorf("sqlite: inserting group %q: %w", group.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading group id: %w", err)
	}
	group.ID = id
	return nil
}

func (db *DB) GetGroupByID(ctx context.Context, id int64) (*model.Group, error) {
	var g model.Group
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name FROM auth_groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("group", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting group %d: %w", id, err)
	}
	return &g, nil
}

// MissingGroups returns the ids from ids that have no group row, in input order.
// An empty result means every id exists.
func (db *DB) MissingGroups(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	marks, args := placeholders(ids)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id FROM auth_groups WHERE id IN (`+marks+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking groups: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating group ids: %w", err)
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (db *DB) GroupNameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auth_groups WHERE name = ? AND id != ?`, name, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking group name %q: %w", name, err)
	}
	return n > 0, nil
}

// ListGroups returns one page of groups ordered by name.
func (db *DB) ListGroups(ctx context.Context, opts repository.ListOptions) ([]model.Group, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name FROM auth_groups ORDER BY name ASC, id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := make([]model.Group, 0, limit)
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}
	return groups, nil
}

func (db *DB) CountGroups(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_groups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting groups: %w", err)
	}
	return n, nil
}

func (db *DB) UpdateGroup(ctx context.Context, group *model.Group) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE auth_groups SET name = ? WHERE id = ?`, group.Name, group.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("group", group.Name)
		}
		return fmt.Errorf("sqlite: updating group %d: %w", group.ID, err)
	}
	return expectOneRow(result, "group", group.ID)
}

// DeleteGroup removes a group. Users that belonged to it simply lose the
// membership (ON DELETE CASCADE on auth_group_members).
func (db *DB) DeleteGroup(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM auth_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %d: %w", id, err)
	}
	return expectOneRow(result, "group", id)
}
