package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"nextstep/internal/apperr"
	"nextstep/internal/models"
)

func (s *Store) CreateSource(ctx context.Context, src *models.Source) error {
	if err := s.db.Insert(src.ID, src); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return apperr.Validation("id", "source %s already exists", src.ID)
		}
		return fmt.Errorf("failed to insert source: %w", err)
	}
	return nil
}

// UpdateSource writes the admin-editable fields. LastRunAt is owned by
// MarkSourceRun, so the stored value is kept and copied back into src.
func (s *Store) UpdateSource(ctx context.Context, src *models.Source) error {
	return s.modifySource(src.ID, func(cur *models.Source) {
		lastRun := cur.LastRunAt
		*cur = *src
		cur.LastRunAt = lastRun
		src.LastRunAt = lastRun
	})
}

func (s *Store) GetSource(ctx context.Context, id string) (*models.Source, error) {
	var src models.Source
	if err := s.db.Get(id, &src); err != nil {
		return nil, notFound(err, "source", id)
	}
	return &src, nil
}

func (s *Store) GetSourceByName(ctx context.Context, name string) (*models.Source, error) {
	var found []models.Source
	if err := s.db.Find(&found, badgerhold.Where("Name").Eq(name)); err != nil {
		return nil, fmt.Errorf("failed to find source by name: %w", err)
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("source", name)
	}
	return &found[0], nil
}

func (s *Store) ListSources(ctx context.Context) ([]*models.Source, error) {
	var all []models.Source
	if err := s.db.Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return newestSources(all), nil
}

func (s *Store) ListEnabledSources(ctx context.Context) ([]*models.Source, error) {
	all, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	enabled := make([]*models.Source, 0, len(all))
	for _, src := range all {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled, nil
}

func (s *Store) MarkSourceRun(ctx context.Context, id string, at time.Time) error {
	return s.modifySource(id, func(cur *models.Source) {
		cur.LastRunAt = &at
	})
}

const maxConflictRetries = 5

// modifySource applies fn to the stored source inside one read-write
// transaction, retrying when a concurrent writer commits first.
func (s *Store) modifySource(id string, fn func(cur *models.Source)) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Badger().Update(func(tx *badgerdb.Txn) error {
			var cur models.Source
			if err := s.db.TxGet(tx, id, &cur); err != nil {
				return err
			}
			fn(&cur)
			return s.db.TxUpdate(tx, id, &cur)
		})
		if !errors.Is(err, badgerdb.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return apperr.NotFound("source", id)
		}
		return fmt.Errorf("failed to update source: %w", err)
	}
	return nil
}

func newestSources(in []models.Source) []*models.Source {
	out := make([]*models.Source, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
