package source

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"nextstep/internal/apperr"
	"nextstep/internal/logger"
	"nextstep/internal/models"
	"nextstep/internal/storage"
)

type Service struct {
	store    storage.SourceStore
	validate *validator.Validate
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store storage.SourceStore) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Service{
		store:    store,
		validate: v,
		log:      logger.New("SourceService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ParseID rejects ids that are not UUIDs.
func ParseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("id", "invalid source id %q", id)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Source, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.checkCreate(req); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	src := fromCreate(req)
	now := s.now()
	src.ID = uuid.NewString()
	src.CreatedAt = now
	src.UpdatedAt = now

	if err := s.store.CreateSource(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	s.log.LogInfof("Source created: %s (%s)", src.Name, src.ID)
	return src, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*models.Source, error) {
	if err := ParseID(id); err != nil {
		return nil, err
	}
	if req.Name != nil {
		req.Name = ptrTo(strings.TrimSpace(*req.Name))
		if *req.Name == "" {
			return nil, apperr.Validation("name", "is required")
		}
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	src, err := s.store.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != src.Name {
		if err := s.ensureNameFree(ctx, *req.Name, src.ID); err != nil {
			return nil, err
		}
		src.Name = *req.Name
	}
	if req.BaseURL != nil {
		src.BaseURL = *req.BaseURL
	}
	if req.ListPath != nil {
		src.ListPath = *req.ListPath
	}
	if req.ProviderType != nil {
		src.ProviderType = *req.ProviderType
	}
	if req.Enabled != nil {
		src.Enabled = *req.Enabled
	}
	if req.FrequencyMinutes != nil {
		src.FrequencyMinutes = *req.FrequencyMinutes
	}
	if req.Selectors != nil {
		src.Selectors = req.Selectors
	}
	if req.APIConfig != nil {
		src.APIConfig = req.APIConfig
	}

	if req.touchesKind() {
		if err := checkKind(src.ProviderType, src.Selectors, src.APIConfig); err != nil {
			return nil, err
		}
	}

	src.UpdatedAt = s.now()
	if err := s.store.UpdateSource(ctx, src); err != nil {
		return nil, err
	}
	s.log.LogInfof("Source updated: %s (%s)", src.Name, src.ID)
	return src, nil
}

// Get returns the source. A malformed id cannot name a source, so it is
// reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*models.Source, error) {
	if ParseID(id) != nil {
		return nil, apperr.NotFound("source", id)
	}
	return s.store.GetSource(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.Source, error) {
	return s.store.ListSources(ctx)
}

func (s *Service) ListEnabled(ctx context.Context) ([]*models.Source, error) {
	return s.store.ListEnabledSources(ctx)
}

// Import creates or replaces sources by name. Every entry is validated before
// anything is written.
func (s *Service) Import(ctx context.Context, reqs []CreateRequest) (ImportResult, error) {
	var res ImportResult
	reqs = append([]CreateRequest(nil), reqs...)
	for i := range reqs {
		reqs[i].Name = strings.TrimSpace(reqs[i].Name)
	}
	seen := map[string]bool{}
	for i, req := range reqs {
		if err := s.checkCreate(req); err != nil {
			return res, fmt.Errorf("source #%d (%s): %w", i+1, req.Name, err)
		}
		if seen[req.Name] {
			return res, apperr.Validation("name", "duplicate source name %q in import", req.Name)
		}
		seen[req.Name] = true
	}

	for _, req := range reqs {
		existing, err := s.store.GetSourceByName(ctx, req.Name)
		var nf *apperr.NotFoundError
		switch {
		case errors.As(err, &nf):
			if _, err := s.Create(ctx, req); err != nil {
				return res, err
			}
			res.Created++
		case err != nil:
			return res, err
		default:
			src := fromCreate(req)
			src.ID = existing.ID
			src.CreatedAt = existing.CreatedAt
			src.UpdatedAt = s.now()
			if err := s.store.UpdateSource(ctx, src); err != nil {
				return res, err
			}
			res.Updated++
		}
	}
	s.log.LogInfof("Imported sources: %d created, %d updated", res.Created, res.Updated)
	return res, nil
}

func (s *Service) checkCreate(req CreateRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return toValidationError(err)
	}
	kind := req.ProviderType
	if kind == "" {
		kind = models.ProviderHTML
	}
	return checkKind(kind, req.Selectors, req.APIConfig)
}

func (s *Service) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.store.GetSourceByName(ctx, name)
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return apperr.Validation("name", "a source named %q already exists", name)
	}
	return nil
}

func checkKind(kind models.ProviderType, selectors map[string]string, api *models.APIConfig) error {
	switch kind {
	case models.ProviderHTML:
		var errs apperr.ValidationErrors
		for _, key := range []string{models.SelectorItem, models.SelectorTitle} {
			if strings.TrimSpace(selectors[key]) == "" {
				errs = append(errs, &apperr.ValidationError{Field: "selectors." + key, Message: "is required for html sources"})
			}
		}
		if len(errs) > 0 {
			return errs
		}
	case models.ProviderAPI:
		if api == nil || strings.TrimSpace(api.Endpoint) == "" {
			return apperr.Validation("apiConfig.endpoint", "is required for api sources")
		}
	default:
		return apperr.Validation("providerType", "must be one of html api")
	}
	return nil
}

func ptrTo[T any](v T) *T { return &v }

func fromCreate(req CreateRequest) *models.Source {
	src := &models.Source{
		Name:             strings.TrimSpace(req.Name),
		BaseURL:          req.BaseURL,
		ListPath:         req.ListPath,
		ProviderType:     req.ProviderType,
		Enabled:          true,
		FrequencyMinutes: req.FrequencyMinutes,
		Selectors:        req.Selectors,
		APIConfig:        req.APIConfig,
	}
	if src.ProviderType == "" {
		src.ProviderType = models.ProviderHTML
	}
	if req.Enabled != nil {
		src.Enabled = *req.Enabled
	}
	if src.FrequencyMinutes == 0 {
		src.FrequencyMinutes = models.DefaultFrequencyMinutes
	}
	return src
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("", "%v", err)
	}
	out := make(apperr.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &apperr.ValidationError{Field: fieldPath(fe), Message: describe(fe)})
	}
	return out
}

// fieldPath drops the top-level struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}
