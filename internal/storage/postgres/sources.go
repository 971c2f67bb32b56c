package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"nextstep/internal/apperr"
	"nextstep/internal/models"
)

const sourceColumns = `id, name, base_url, list_path, provider_type, enabled, frequency_minutes,
	selectors, api_config, last_run_at, created_at, updated_at`

func (s *Store) CreateSource(ctx context.Context, src *models.Source) error {
	selectors, apiConfig, err := sourceJSON(src)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scraping_sources (`+sourceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		src.ID, src.Name, src.BaseURL, src.ListPath, string(src.ProviderType), src.Enabled,
		src.FrequencyMinutes, selectors, apiConfig, src.LastRunAt, src.CreatedAt, src.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Validation("name", "a source named %q already exists", src.Name)
		}
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// UpdateSource writes the admin-editable fields. last_run_at belongs to
// MarkSourceRun; the stored value is read back into src.
func (s *Store) UpdateSource(ctx context.Context, src *models.Source) error {
	selectors, apiConfig, err := sourceJSON(src)
	if err != nil {
		return err
	}
	err = s.pool.QueryRow(ctx,
		`UPDATE scraping_sources
		 SET name = $2, base_url = $3, list_path = $4, provider_type = $5, enabled = $6,
		     frequency_minutes = $7, selectors = $8, api_config = $9, updated_at = $10
		 WHERE id = $1
		 RETURNING last_run_at`,
		src.ID, src.Name, src.BaseURL, src.ListPath, string(src.ProviderType), src.Enabled,
		src.FrequencyMinutes, selectors, apiConfig, src.UpdatedAt,
	).Scan(&src.LastRunAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound("source", src.ID)
	case isUniqueViolation(err):
		return apperr.Validation("name", "a source named %q already exists", src.Name)
	case err != nil:
		return fmt.Errorf("update source: %w", err)
	}
	return nil
}

func (s *Store) GetSource(ctx context.Context, id string) (*models.Source, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM scraping_sources WHERE id = $1`, id)
	src, err := scanSource(row)
	if err != nil {
		return nil, notFound(err, "source", id)
	}
	return src, nil
}

func (s *Store) GetSourceByName(ctx context.Context, name string) (*models.Source, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM scraping_sources WHERE name = $1`, name)
	src, err := scanSource(row)
	if err != nil {
		return nil, notFound(err, "source", name)
	}
	return src, nil
}

func (s *Store) ListSources(ctx context.Context) ([]*models.Source, error) {
	return s.querySources(ctx, `SELECT `+sourceColumns+` FROM scraping_sources ORDER BY created_at DESC, id DESC`)
}

func (s *Store) ListEnabledSources(ctx context.Context) ([]*models.Source, error) {
	return s.querySources(ctx, `SELECT `+sourceColumns+` FROM scraping_sources WHERE enabled ORDER BY created_at DESC, id DESC`)
}

func (s *Store) MarkSourceRun(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scraping_sources SET last_run_at = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark source run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("source", id)
	}
	return nil
}

func (s *Store) querySources(ctx context.Context, sql string) ([]*models.Source, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Source, 0)
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func scanSource(row pgx.Row) (*models.Source, error) {
	var (
		src       models.Source
		provider  string
		selectors []byte
		apiConfig []byte
	)
	if err := row.Scan(&src.ID, &src.Name, &src.BaseURL, &src.ListPath, &provider, &src.Enabled,
		&src.FrequencyMinutes, &selectors, &apiConfig, &src.LastRunAt, &src.CreatedAt, &src.UpdatedAt); err != nil {
		return nil, err
	}
	src.ProviderType = models.ProviderType(provider)
	if len(selectors) > 0 {
		if err := json.Unmarshal(selectors, &src.Selectors); err != nil {
			return nil, fmt.Errorf("decode selectors: %w", err)
		}
	}
	if len(apiConfig) > 0 && string(apiConfig) != "null" {
		src.APIConfig = &models.APIConfig{}
		if err := json.Unmarshal(apiConfig, src.APIConfig); err != nil {
			return nil, fmt.Errorf("decode api config: %w", err)
		}
	}
	return &src, nil
}

func sourceJSON(src *models.Source) ([]byte, []byte, error) {
	var selectors, apiConfig []byte
	var err error
	if len(src.Selectors) > 0 {
		if selectors, err = toJSON(src.Selectors); err != nil {
			return nil, nil, fmt.Errorf("encode selectors: %w", err)
		}
	}
	if src.APIConfig != nil {
		if apiConfig, err = toJSON(src.APIConfig); err != nil {
			return nil, nil, fmt.Errorf("encode api config: %w", err)
		}
	}
	return selectors, apiConfig, nil
}
