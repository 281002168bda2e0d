package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Config returns the singleton user config, or ErrNotFound when no config
// has been saved yet.
func (s *Store) Config(ctx context.Context) (*UserConfig, error) {
	row := s.db.QueryRow(ctx,
		`SELECT backend_url, api_key, updated_at FROM user_config WHERE id = 1`)

	config, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user config: %w", err)
	}

	return config, nil
}

// UpsertConfig creates or replaces the singleton config row in a single
// statement, so concurrent saves cannot interleave an existence check with
// the write.
func (s *Store) UpsertConfig(ctx context.Context, params UpsertConfigParams) (*UserConfig, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO user_config (id, backend_url, api_key, updated_at)
		 VALUES (1, $1, $2, now())
		 ON CONFLICT (id) DO UPDATE
		 SET backend_url = EXCLUDED.backend_url,
		     api_key     = EXCLUDED.api_key,
		     updated_at  = now()
		 RETURNING backend_url, api_key, updated_at`,
		nullIfEmpty(params.BackendURL), nullIfEmpty(params.APIKey))

	config, err := scanConfig(row)
	if err != nil {
		return nil, fmt.Errorf("upserting user config: %w", err)
	}

	s.logger.Debug("saved user config")
	return config, nil
}

func scanConfig(row pgx.Row) (*UserConfig, error) {
	var (
		c          UserConfig
		backendURL *string
		apiKey     *string
	)
	if err := row.Scan(&backendURL, &apiKey, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if backendURL != nil {
		c.BackendURL = *backendURL
	}
	if apiKey != nil {
		c.APIKey = *apiKey
	}
	return &c, nil
}
