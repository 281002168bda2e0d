package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = "id, name, description, files, created_at, updated_at"

// CreateProject inserts a project and returns it with the generated id and
// timestamps.
func (s *Store) CreateProject(ctx context.Context, params CreateProjectParams) (*Project, error) {
	files, err := marshalFiles(params.Files)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO projects (name, description, files)
		 VALUES ($1, $2, $3)
		 RETURNING `+projectColumns,
		params.Name, nullIfEmpty(params.Description), files)

	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Debug("created project", "id", project.ID, "name", project.Name)
	return project, nil
}

// Project retrieves a project by id. Returns ErrNotFound for unknown ids.
func (s *Store) Project(ctx context.Context, id uuid.UUID) (*Project, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}

	return project, nil
}

// Projects lists all projects ordered by last update, newest first.
func (s *Store) Projects(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return projects, nil
}

// UpdateProject applies a partial update. Nil params leave the column
// unchanged; Files replaces the whole array. Returns ErrNotFound for
// unknown ids. Concurrent updates to the same project race with last-write-
// wins semantics; there is no version check.
func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, params UpdateProjectParams) (*Project, error) {
	var files []byte
	if params.Files != nil {
		var err error
		files, err = marshalFiles(*params.Files)
		if err != nil {
			return nil, err
		}
	}

	row := s.db.QueryRow(ctx,
		`UPDATE projects
		 SET name        = COALESCE($2, name),
		     description = COALESCE($3, description),
		     files       = COALESCE($4, files),
		     updated_at  = now()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		id, params.Name, params.Description, files)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating project %s: %w", id, err)
	}

	s.logger.Debug("updated project", "id", id)
	return project, nil
}

// DeleteProject removes a project. Returns ErrNotFound for unknown ids.
// The delete is unconditional and irreversible.
func (s *Store) DeleteProject(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted project", "id", id)
	return nil
}

// scanProject scans one project row, decoding the JSONB files column.
func scanProject(row pgx.Row) (*Project, error) {
	var (
		p           Project
		description *string
		files       []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &files, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if description != nil {
		p.Description = *description
	}

	p.Files = make([]ProjectFile, 0)
	if len(files) > 0 {
		if err := json.Unmarshal(files, &p.Files); err != nil {
			return nil, fmt.Errorf("decoding files column: %w", err)
		}
	}

	return &p, nil
}

// marshalFiles encodes the files array for the JSONB column, preserving order.
func marshalFiles(files []ProjectFile) ([]byte, error) {
	if files == nil {
		files = []ProjectFile{}
	}
	out, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("encoding files column: %w", err)
	}
	return out, nil
}

// nullIfEmpty maps empty strings to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
