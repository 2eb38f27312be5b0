// Package sqlexec runs candidate SQL statements against the application
// database and returns tabular results.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// UserErrorMessage is the stable user-facing phrase reported when execution
// fails. Callers attach the underlying error as detail.
const UserErrorMessage = "Error executing query"

type Options struct {
	// RowLimit caps the result set by wrapping the statement in a subquery.
	// Zero means no cap.
	RowLimit int
	// AllowWrites disables the read-only gate. Candidate SQL comes from a
	// language model, so the gate is on by default.
	AllowWrites bool
	// Timeout bounds a single execution. Zero means no explicit bound.
	Timeout time.Duration
}

type Result struct {
	Columns      []string      `json:"columns"`
	Rows         [][]any       `json:"rows"`
	RowCount     int           `json:"row_count"`
	RowsAffected int64         `json:"rows_affected,omitempty"`
	Duration     time.Duration `json:"-"`
}

type Executor struct {
	db   *sql.DB
	opts Options
}

func New(handle *sql.DB, opts Options) *Executor {
	return &Executor{db: handle, opts: opts}
}

// Execute runs one SQL statement. Statements that are not SELECT/WITH are
// rejected unless writes are allowed; write statements run inside a
// transaction and report rows affected instead of a result set.
func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	statement := stripTrailingSemicolons(sqlText)
	if statement == "" {
		return Result{}, fmt.Errorf("sql is required")
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	if !IsReadOnly(statement) {
		if !e.opts.AllowWrites {
			return Result{}, fmt.Errorf("only read-only SELECT/WITH statements are allowed")
		}
		return e.executeWrite(ctx, statement)
	}

	if e.opts.RowLimit > 0 {
		statement = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", statement, e.opts.RowLimit)
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, statement)
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return Result{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Duration: time.Since(start),
	}, nil
}

func (e *Executor) executeWrite(ctx context.Context, statement string) (Result, error) {
	start := time.Now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	execResult, err := tx.ExecContext(ctx, statement)
	if err != nil {
		return Result{}, fmt.Errorf("execute statement: %w", err)
	}
	affected, err := execResult.RowsAffected()
	if err != nil {
		affected = 0
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit transaction: %w", err)
	}

	return Result{
		Columns:      []string{},
		Rows:         [][]any{},
		RowsAffected: affected,
		Duration:     time.Since(start),
	}, nil
}

// IsReadOnly reports whether the statement begins a read-only query.
func IsReadOnly(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
