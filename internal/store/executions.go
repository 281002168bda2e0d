package store

import (
	"context"
	"fmt"
)

const executionColumns = "id, language, code, stdout, stderr, exit_code, created_at"

// CreateCodeExecution appends a record to the execution log. Records are
// never updated or deleted individually.
func (s *Store) CreateCodeExecution(ctx context.Context, params CreateCodeExecutionParams) (*CodeExecution, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO code_executions (language, code, stdout, stderr, exit_code)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+executionColumns,
		params.Language, params.Code,
		nullIfEmpty(params.Stdout), nullIfEmpty(params.Stderr), params.ExitCode)

	execution, err := scanExecution(row)
	if err != nil {
		return nil, fmt.Errorf("creating code execution: %w", err)
	}

	return execution, nil
}

// CodeExecutions returns up to limit records, newest first.
// A non-positive limit falls back to DefaultExecutionLimit.
func (s *Store) CodeExecutions(ctx context.Context, limit int) ([]*CodeExecution, error) {
	limit = normalizeLimit(limit, DefaultExecutionLimit)

	rows, err := s.db.Query(ctx,
		`SELECT `+executionColumns+` FROM code_executions ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing code executions: %w", err)
	}
	defer rows.Close()

	executions := make([]*CodeExecution, 0, limit)
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning code execution: %w", err)
		}
		executions = append(executions, execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing code executions: %w", err)
	}

	return executions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (*CodeExecution, error) {
	var (
		e      CodeExecution
		stdout *string
		stderr *string
	)
	if err := row.Scan(&e.ID, &e.Language, &e.Code, &stdout, &stderr, &e.ExitCode, &e.CreatedAt); err != nil {
		return nil, err
	}
	if stdout != nil {
		e.Stdout = *stdout
	}
	if stderr != nil {
		e.Stderr = *stderr
	}
	return &e, nil
}
