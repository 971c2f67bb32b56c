package main

import (
	"context"
	"fmt"
	"strings"

	"nextstep/internal/config"
	"nextstep/internal/core/aggregate"
	"nextstep/internal/core/extract"
	"nextstep/internal/core/job"
	"nextstep/internal/core/source"
	"nextstep/internal/logger"
	rds "nextstep/internal/platform/redis"
	"nextstep/internal/storage"
	"nextstep/internal/storage/badger"
	"nextstep/internal/storage/postgres"
)

// services holds everything the commands share. redis is nil when REDIS_ADDR
// is unset.
type services struct {
	cfg   config.Config
	store storage.Store
	redis *rds.Service

	extract   *extract.Service
	sources   *source.Service
	jobs      *job.JobService
	runner    *job.Runner
	aggregate *aggregate.Service
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseURL, logger.New("PostgresStore"))
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		bs, err := badger.Open(badger.Options{Path: cfg.BadgerPath}, logger.New("BadgerStore"))
		if err != nil {
			if isDirectoryLocked(err) {
				return nil, fmt.Errorf("badger store at %s is in use by another process (is serve running?): "+
					"use --server to go through the running API, or STORAGE_DRIVER=postgres to share the store: %w",
					cfg.BadgerPath, err)
			}
			return nil, err
		}
		return bs, nil
	}
}

// Badger holds an exclusive lock on its directory while open.
func isDirectoryLocked(err error) bool {
	return strings.Contains(err.Error(), "Cannot acquire directory lock")
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &services{cfg: cfg, store: store}

	var (
		pub    job.Publisher
		locker job.Locker
		cache  aggregate.Cache
	)
	if cfg.UseQueue() {
		s.redis, err = rds.New(rds.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		pub, locker, cache = s.redis, s.redis, s.redis
	}

	fetcher := extract.NewFetcher(extract.FetcherOptions{
		Timeout:      cfg.FetchTimeout,
		RatePerHost:  cfg.FetchRatePerHost,
		MaxBodyBytes: cfg.FetchMaxBodyBytes,
		UserAgent:    cfg.FetchUserAgent,
	})
	s.extract = extract.NewDefaultService(fetcher, nil)
	s.sources = source.NewService(store)
	s.jobs = job.NewJobService(store, store, pub)
	s.runner = job.NewRunner(s.jobs, store, store, s.extract, locker, job.RunnerOptions{
		OwnerID:    cfg.ScraperOwnerID,
		JobTimeout: cfg.JobTimeout,
		LockTTL:    cfg.RunLockTTL,
	})
	s.aggregate = aggregate.NewAggregateService(store, store, s.extract, cache, aggregate.Options{
		SourceTimeout:  cfg.SourceTimeout,
		CacheTTL:       cfg.AggregateCacheTTL,
		MaxConcurrency: cfg.AggregateMaxConcurrency,
	})
	return s, nil
}

func (s *services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	_ = s.store.Close()
}
