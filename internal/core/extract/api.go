package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"nextstep/internal/apperr"
	"nextstep/internal/core/listing"
	"nextstep/internal/models"
)

// LookupEnvFunc resolves credentials by environment variable name.
type LookupEnvFunc func(key string) (string, bool)

// APIAdapter reads listings from a JSON job-board API.
type APIAdapter struct {
	fetcher   *Fetcher
	lookupEnv LookupEnvFunc
}

func NewAPIAdapter(f *Fetcher, lookupEnv LookupEnvFunc) *APIAdapter {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &APIAdapter{fetcher: f, lookupEnv: lookupEnv}
}

func (a *APIAdapter) Kind() models.ProviderType { return models.ProviderAPI }

// Fetch calls the configured endpoint and maps the results array.
func (a *APIAdapter) Fetch(ctx context.Context, src *models.Source) ([]listing.Listing, error) {
	if src.APIConfig == nil || strings.TrimSpace(src.APIConfig.Endpoint) == "" {
		return nil, &apperr.ConfigError{Source: src.Name, Message: "api source requires apiConfig.endpoint"}
	}
	cfg := src.APIConfig

	headers := map[string]string{}
	if cfg.APIKeyEnvVar != "" {
		if key, ok := a.lookupEnv(cfg.APIKeyEnvVar); ok && key != "" {
			headers["Authorization"] = "Bearer " + key
		}
	}

	resp, err := a.fetcher.Get(ctx, cfg.Endpoint, apiProfile, headers, queryParams(cfg.ExtraParams))
	if err != nil {
		return nil, err
	}
	return DecodeAPI(resp.Body, resp.URL, src)
}

// DecodeAPI maps a JSON response body onto listings. Bodies whose shape is not
// understood yield no listings; only undecodable JSON is an error.
func DecodeAPI(body []byte, rawURL string, src *models.Source) ([]listing.Listing, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &apperr.ParseError{URL: rawURL, Cause: err}
	}

	field := models.DefaultResultsField
	if src.APIConfig != nil && src.APIConfig.ResultsField != "" {
		field = src.APIConfig.ResultsField
	}

	items, ok := lookupPath(doc, field).([]any)
	if !ok {
		return []listing.Listing{}, nil
	}

	out := make([]listing.Listing, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		raw := listing.Raw{
			Title:       str(obj["title"]),
			Description: str(obj["description"]),
			Location:    locationOf(obj["location"]),
			Company:     companyOf(obj["company"]),
			ApplyURL:    firstString(obj, "applyUrl", "apply_url", "url", "redirect_url"),
		}
		if l, ok := listing.Normalize(raw, src.Name); ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func lookupPath(doc any, path string) any {
	cur := doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}

func companyOf(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case map[string]any:
		return firstString(c, "name", "display_name")
	}
	return ""
}

// locationOf accepts a plain string or an object carrying display_name.
func locationOf(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]any:
		return firstString(l, "display_name", "name")
	}
	return ""
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(obj[k]); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func queryParams(params map[string]any) url.Values {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []any:
			for _, e := range v {
				q.Add(k, fmt.Sprint(e))
			}
		case []string:
			for _, e := range v {
				q.Add(k, e)
			}
		default:
			q.Add(k, fmt.Sprint(v))
		}
	}
	return q
}
