package aggregate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"nextstep/internal/core/listing"
	"nextstep/internal/logger"
	"nextstep/internal/models"
	"nextstep/internal/storage"
)

// Service merges internal listings with a live pull from every enabled source.
type Service struct {
	internships storage.InternshipStore
	sources     storage.SourceStore
	fetcher     ListingFetcher
	cache       Cache
	opts        Options
	log         *logger.Logger
}

// NewAggregateService builds the service; cache may be nil.
func NewAggregateService(internships storage.InternshipStore, sources storage.SourceStore,
	fetcher ListingFetcher, cache Cache, opts Options) *Service {
	return &Service{
		internships: internships,
		sources:     sources,
		fetcher:     fetcher,
		cache:       cache,
		opts:        opts,
		log:         logger.New("AggregateService"),
	}
}

// Aggregate never fails because of an external source; a failing or slow
// source is reported in Sources and contributes nothing.
func (s *Service) Aggregate(ctx context.Context, p Params) (*Result, error) {
	p.normalize()

	internal, internalTotal, err := s.internships.SearchInternships(ctx, models.InternshipQuery{
		Q:        p.Q,
		Location: p.Location,
		Mode:     p.Mode,
		Type:     p.Type,
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("load internal listings: %w", err)
	}

	enabled, err := s.sources.ListEnabledSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	external, outcomes := s.fetchAll(ctx, enabled)

	merged := make([]listing.Listing, 0, len(internal)+len(external))
	for _, in := range internal {
		merged = append(merged, listing.FromInternship(in))
	}
	merged = append(merged, external...)

	items := make([]listing.Listing, 0, len(merged))
	for _, l := range merged {
		if l.Matches(p.Q, p.Location) {
			items = append(items, l)
		}
	}

	return &Result{
		Items:         items,
		Total:         len(items),
		Page:          p.Page,
		Limit:         p.Limit,
		InternalTotal: internalTotal,
		Sources:       outcomes,
	}, nil
}

// fetchAll queries every source concurrently. Each goroutine owns one slot of
// the result slices, so no locking is needed.
func (s *Service) fetchAll(ctx context.Context, srcs []*models.Source) ([]listing.Listing, []SourceOutcome) {
	results := make([][]listing.Listing, len(srcs))
	outcomes := make([]SourceOutcome, len(srcs))

	var g errgroup.Group
	if s.opts.MaxConcurrency > 0 {
		g.SetLimit(s.opts.MaxConcurrency)
	}
	for i, src := range srcs {
		g.Go(func() error {
			results[i], outcomes[i] = s.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var all []listing.Listing
	for _, r := range results {
		all = append(all, r...)
	}
	return all, outcomes
}

func (s *Service) fetchOne(ctx context.Context, src *models.Source) ([]listing.Listing, SourceOutcome) {
	out := SourceOutcome{SourceID: src.ID, Name: src.Name}

	key := cacheKey(src)
	if s.cacheEnabled() {
		var cached []listing.Listing
		if err := s.cache.CacheGet(ctx, key, &cached); err == nil {
			out.Count = len(cached)
			out.Cached = true
			return cached, out
		}
	}

	fetchCtx := ctx
	if s.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.SourceTimeout)
		defer cancel()
	}

	items, err := s.fetcher.Fetch(fetchCtx, src)
	if err != nil {
		s.log.Warn().Str("source_id", src.ID).Err(err).Msg("External source failed during aggregation")
		out.Error = err.Error()
		return nil, out
	}
	out.Count = len(items)

	if s.cacheEnabled() {
		if err := s.cache.CacheSet(ctx, key, items, s.opts.CacheTTL); err != nil {
			s.log.LogWarnf("Failed to cache listings for source %s: %v", src.ID, err)
		}
	}
	return items, out
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.opts.CacheTTL > 0
}

// cacheKey changes whenever the source is edited.
func cacheKey(src *models.Source) string {
	return fmt.Sprintf("aggregate:source:%s:%d", src.ID, src.UpdatedAt.UnixNano())
}
