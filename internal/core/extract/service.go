package extract

import (
	"context"
	"fmt"

	"nextstep/internal/apperr"
	"nextstep/internal/core/listing"
	"nextstep/internal/models"
)

// Provider produces normalized listings for one kind of source.
type Provider interface {
	Kind() models.ProviderType
	Fetch(ctx context.Context, src *models.Source) ([]listing.Listing, error)
}

// Service routes a source to the provider registered for its kind.
type Service struct {
	providers map[models.ProviderType]Provider
}

// NewService registers providers by kind; a later provider replaces an earlier one.
func NewService(providers ...Provider) *Service {
	s := &Service{providers: make(map[models.ProviderType]Provider, len(providers))}
	for _, p := range providers {
		s.providers[p.Kind()] = p
	}
	return s
}

// NewDefaultService wires the html and api providers onto one fetcher.
func NewDefaultService(f *Fetcher, lookupEnv LookupEnvFunc) *Service {
	return NewService(NewHTMLExtractor(f), NewAPIAdapter(f, lookupEnv))
}

// Fetch returns the source's current listings.
func (s *Service) Fetch(ctx context.Context, src *models.Source) ([]listing.Listing, error) {
	kind := src.ProviderType
	if kind == "" {
		kind = models.ProviderHTML
	}
	p, ok := s.providers[kind]
	if !ok {
		return nil, &apperr.ConfigError{Source: src.Name, Message: fmt.Sprintf("unknown provider type %q", kind)}
	}
	return p.Fetch(ctx, src)
}
