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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails to compile if *Y doesn't implement X, so a
// missing method shows up here instead of at the call site in server.go.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, created, title, code, linenos, language, style`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row scanner, s *model.Snippet) error {
	return row.Scan(&s.ID, &s.Created, &s.Title, &s.Code, &s.Linenos, &s.Language, &s.Style)
}

// Create inserts a new snippet and fills in its ID and Created timestamp.
//
// ID GENERATION:
// The id column is INTEGER PRIMARY KEY AUTOINCREMENT: SQLite picks the next
// number and never reuses one from a deleted row. LastInsertId() hands it back.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// NEVER build SQL strings with fmt.Sprintf or string concatenation!
// The driver escapes each argument, so user input can't change the query.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.Created = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (created, title, code, linenos, language, style)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snippet.Created,
		snippet.Title,
		snippet.Code,
		snippet.Linenos,
		snippet.Language,
		snippet.Style,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading snippet id: %w", err)
	}
	snippet.ID = id

	return nil
}

// GetByID retrieves a single snippet by its ID.
//
// sql.ErrNoRows is translated into apperror.NotFound so the handler can answer
// 404 without knowing anything about SQL.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var snippet model.Snippet

	err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id,
	), &snippet)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, err)
	}

	return &snippet, nil
}

// List retrieves one page of snippets, oldest first.
//
// defer rows.Close() is ABSOLUTELY CRITICAL:
// sql.Rows holds a connection from the pool until it is closed. Forget it and
// the pool eventually runs dry and every request hangs.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampList(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 ORDER BY created ASC, id ASC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}

	// rows.Err() catches errors that happened DURING iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Count returns the total number of snippets, for pagination.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting snippets: %w", err)
	}
	return n, nil
}

// Update writes every mutable column of snippet. id and created never change.
//
// RowsAffected() == 0 means the WHERE clause matched nothing → not found.
// One query instead of SELECT + UPDATE.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, code = ?, linenos = ?, language = ?, style = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Code,
		snippet.Linenos,
		snippet.Language,
		snippet.Style,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %d: %w", snippet.ID, err)
	}

	return expectOneRow(result, "snippet", snippet.ID)
}

// Delete removes a snippet from the database by its ID.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %d: %w", id, err)
	}

	return expectOneRow(result, "snippet", id)
}

// expectOneRow turns "no rows affected" into apperror.NotFound.
func expectOneRow(result sql.Result, resource string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}
