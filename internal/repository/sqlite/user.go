package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, github_id, is_staff, date_joined`

func scanUser(row scanner, u *model.User) error {
	var githubID sql.NullInt64
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&githubID, &u.IsStaff, &u.DateJoined); err != nil {
		return err
	}
	u.GitHubID = githubID.Int64
	return nil
}

// nullGitHubID stores "no GitHub account" as NULL so the UNIQUE index skips it.
func nullGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// CreateUser inserts user and its memberships in one transaction.
// DateJoined defaults to now (UTC) when the caller leaves it zero.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	} else {
		user.DateJoined = user.DateJoined.UTC()
	}

	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, password_hash, github_id, is_staff, date_joined)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			user.Username,
			user.Email,
			user.PasswordHash,
			nullGitHubID(user.GitHubID),
			user.IsStaff,
			user.DateJoined,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Username)
			}
			return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading user id: %w", err)
		}
		user.ID = id

		return replaceMemberships(ctx, tx, user.ID, user.GroupIDs)
	})
}

// GetUserByID retrieves a user (with memberships) by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx, "id = ?", id, strconv.FormatInt(id, 10))
}

// GetUserByUsername is used by password login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username = ?", username, username)
}

// GetUserByGitHubID finds the account linked to a GitHub user.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx, "github_id = ?", githubID, strconv.FormatInt(githubID, 10))
}

func (db *DB) getUser(ctx context.Context, where string, arg any, label string) (*model.User, error) {
	var u model.User
	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg,
	), &u)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", label)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", label, err)
	}

	groups, err := db.membershipsFor(ctx, []int64{u.ID})
	if err != nil {
		return nil, err
	}
	u.GroupIDs = groups[u.ID]

	return &u, nil
}

// UsernameTaken reports whether another user (not exceptID) has username.
func (db *DB) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id != ?`, username, exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking username %q: %w", username, err)
	}
	return n > 0, nil
}

// ListUsers returns one page of users, most recently joined first.
// Ties on date_joined fall back to the higher id so the order is total.
func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 ORDER BY date_joined DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	ids := make([]int64, 0, limit)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	// Release the connection before the membership query; with a one-connection
	// pool (":memory:") the second query would otherwise wait forever.
	rows.Close()

	groups, err := db.membershipsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].GroupIDs = groups[users[i].ID]
	}

	return users, nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}

// UpdateUser writes the profile columns and replaces memberships with
// user.GroupIDs. date_joined is immutable.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE users
			 SET username = ?, email = ?, password_hash = ?, github_id = ?, is_staff = ?
			 WHERE id = ?`,
			user.Username,
			user.Email,
			user.PasswordHash,
			nullGitHubID(user.GitHubID),
			user.IsStaff,
			user.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Username)
			}
			return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
		}
		if err := expectOneRow(result, "user", user.ID); err != nil {
			return err
		}

		return replaceMemberships(ctx, tx, user.ID, user.GroupIDs)
	})
}

// DeleteUser removes a user; memberships go with it (ON DELETE CASCADE).
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	return expectOneRow(result, "user", id)
}

// membershipsFor loads group ids for each user in userIDs, sorted ascending.
func (db *DB) membershipsFor(ctx context.Context, userIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	marks, args := placeholders(userIDs)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, group_id FROM auth_group_members
		 WHERE user_id IN (`+marks+`)
		 ORDER BY user_id, group_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, groupID int64
		if err := rows.Scan(&userID, &groupID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning membership row: %w", err)
		}
		out[userID] = append(out[userID], groupID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating memberships: %w", err)
	}
	return out, nil
}

func replaceMemberships(ctx context.Context, tx *sql.Tx, userID int64, groupIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM auth_group_members WHERE user_id = ?`, userID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing memberships of user %d: %w", userID, err)
	}

	for _, gid := range groupIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO auth_group_members (user_id, group_id) VALUES (?, ?)`,
			userID, gid,
		); err != nil {
			return fmt.Errorf("sqlite: adding user %d to group %d: %w", userID, gid, err)
		}
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on any error (including the ones fn returns).
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}
