package aggregate

import (
	"context"
	"time"

	"nextstep/internal/core/listing"
	"nextstep/internal/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are the query parameters of the aggregated listing endpoint.
type Params struct {
	Q        string `form:"q"`
	Location string `form:"location"`
	Mode     string `form:"mode"`
	Type     string `form:"type"`
	Page     int    `form:"page" default:"1"`
	Limit    int    `form:"limit" default:"10"`
}

func (p *Params) normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// SourceOutcome reports what one external source contributed.
type SourceOutcome struct {
	SourceID string `json:"sourceId"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Cached   bool   `json:"cached,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is the aggregated page. Only the internal part is paged; Total is
// the size of Items after the final filter.
type Result struct {
	Items         []listing.Listing `json:"items"`
	Total         int               `json:"total"`
	Page          int               `json:"page"`
	Limit         int               `json:"limit"`
	InternalTotal int               `json:"internalTotal"`
	Sources       []SourceOutcome   `json:"sources"`
}

// ListingFetcher is satisfied by extract.Service.
type ListingFetcher interface {
	Fetch(ctx context.Context, src *models.Source) ([]listing.Listing, error)
}

// Cache is satisfied by redis.Service.
type Cache interface {
	CacheGet(ctx context.Context, key string, dest interface{}) error
	CacheSet(ctx context.Context, key string, val interface{}, ttl time.Duration) error
}

type Options struct {
	SourceTimeout  time.Duration
	CacheTTL       time.Duration
	MaxConcurrency int
}
