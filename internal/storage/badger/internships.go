package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"nextstep/internal/models"
)

func (s *Store) InsertInternships(ctx context.Context, items []*models.Internship) error {
	if len(items) == 0 {
		return nil
	}
	err := s.db.Badger().Update(func(tx *badgerdb.Txn) error {
		for _, it := range items {
			if err := s.db.TxInsert(tx, it.ID, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert internships: %w", err)
	}
	return nil
}

func (s *Store) SearchInternships(ctx context.Context, q models.InternshipQuery) ([]*models.Internship, int, error) {
	var all []models.Internship
	if err := s.db.Find(&all, nil); err != nil {
		return nil, 0, fmt.Errorf("failed to search internships: %w", err)
	}

	matched := make([]*models.Internship, 0, len(all))
	for i := range all {
		if matchesQuery(&all[i], q) {
			matched = append(matched, &all[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

func (s *Store) CountInternshipsByJob(ctx context.Context, jobID string) (int, error) {
	n, err := s.db.Count(&models.Internship{}, badgerhold.Where("JobID").Eq(jobID))
	if err != nil {
		return 0, fmt.Errorf("failed to count internships: %w", err)
	}
	return int(n), nil
}

func matchesQuery(in *models.Internship, q models.InternshipQuery) bool {
	if in.Status != models.InternshipOpen {
		return false
	}
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		if !strings.Contains(strings.ToLower(in.Title), needle) &&
			!strings.Contains(strings.ToLower(in.Description), needle) {
			return false
		}
	}
	if q.Location != "" && !strings.Contains(strings.ToLower(in.Location), strings.ToLower(q.Location)) {
		return false
	}
	if q.Mode != "" && string(in.Mode) != q.Mode {
		return false
	}
	if q.Type != "" && string(in.Type) != q.Type {
		return false
	}
	return true
}
