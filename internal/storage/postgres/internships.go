package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"nextstep/internal/models"
)

var internshipColumns = []string{
	"id", "title", "description", "location", "mode", "type", "duration_in_months", "skills",
	"created_by", "source", "source_id", "job_id", "company_name", "external_apply_url",
	"posted_at", "status", "needs_review", "created_at",
}

// InsertInternships bulk loads rows with COPY inside one transaction.
func (s *Store) InsertInternships(ctx context.Context, items []*models.Internship) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"internships"}, internshipColumns,
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			skills := it.Skills
			if skills == nil {
				skills = []string{}
			}
			return []any{
				it.ID, it.Title, it.Description, it.Location, string(it.Mode), string(it.Type),
				it.DurationInMonths, skills, it.CreatedBy, string(it.Source),
				nullable(it.SourceID), nullable(it.JobID), it.CompanyName, it.ExternalApplyURL,
				it.PostedAt, string(it.Status), it.NeedsReview, it.CreatedAt,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy internships: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) SearchInternships(ctx context.Context, q models.InternshipQuery) ([]*models.Internship, int, error) {
	where := []string{"status = 'open'"}
	args := []any{}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(args))))
	}
	if q.Q != "" {
		add("(title ILIKE ? OR description ILIKE ?)", "%"+q.Q+"%")
	}
	if q.Location != "" {
		add("location ILIKE ?", "%"+q.Location+"%")
	}
	if q.Mode != "" {
		add("mode = ?", q.Mode)
	}
	if q.Type != "" {
		add("type = ?", q.Type)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM internships WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count internships: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	pageArgs := append(append([]any{}, args...), limit, q.Offset())
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM internships WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			strings.Join(internshipColumns, ", "), cond, len(args)+1, len(args)+2),
		pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query internships: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Internship, 0)
	for rows.Next() {
		var (
			it                        models.Internship
			mode, typ, source, status string
			sourceID, jobID           *string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Location, &mode, &typ,
			&it.DurationInMonths, &it.Skills, &it.CreatedBy, &source, &sourceID, &jobID,
			&it.CompanyName, &it.ExternalApplyURL, &it.PostedAt, &status, &it.NeedsReview, &it.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		it.Mode = models.InternshipMode(mode)
		it.Type = models.InternshipType(typ)
		it.Source = models.InternshipOrigin(source)
		it.Status = models.InternshipStatus(status)
		if sourceID != nil {
			it.SourceID = *sourceID
		}
		if jobID != nil {
			it.JobID = *jobID
		}
		out = append(out, &it)
	}
	return out, total, rows.Err()
}

func (s *Store) CountInternshipsByJob(ctx context.Context, jobID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM internships WHERE job_id = $1`, jobID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count internships: %w", err)
	}
	return n, nil
}
