// Package models holds the persistent records of the ingestion subsystem.
package models

import "time"

// ProviderType selects how listings are obtained from a source.
type ProviderType string

const (
	ProviderHTML ProviderType = "html"
	ProviderAPI  ProviderType = "api"
)

// Selector keys understood by the HTML extractor.
const (
	SelectorItem        = "item"
	SelectorTitle       = "title"
	SelectorLocation    = "location"
	SelectorCompany     = "company"
	SelectorLink        = "link"
	SelectorDescription = "description"
)

const (
	DefaultFrequencyMinutes = 1440
	DefaultResultsField     = "jobs"
)

// APIConfig configures an api-kind source. APIKeyEnvVar names the environment
// variable holding the credential; the secret itself is never stored.
type APIConfig struct {
	Endpoint     string         `json:"endpoint,omitempty" yaml:"endpoint" toml:"endpoint" validate:"omitempty,url"`
	APIKeyEnvVar string         `json:"apiKeyEnvVar,omitempty" yaml:"apiKeyEnvVar" toml:"apiKeyEnvVar"`
	ExtraParams  map[string]any `json:"extraParams,omitempty" yaml:"extraParams" toml:"extraParams"`
	ResultsField string         `json:"resultsField,omitempty" yaml:"resultsField" toml:"resultsField"`
}

// Source is a configured external listing provider.
type Source struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	BaseURL          string            `json:"baseUrl"`
	ListPath         string            `json:"listPath,omitempty"`
	ProviderType     ProviderType      `json:"providerType"`
	Enabled          bool              `json:"enabled"`
	FrequencyMinutes int               `json:"frequencyMinutes"`
	Selectors        map[string]string `json:"selectors,omitempty"`
	APIConfig        *APIConfig        `json:"apiConfig,omitempty"`
	LastRunAt        *time.Time        `json:"lastRunAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// TargetURL is the page fetched for html sources.
func (s *Source) TargetURL() string {
	if s.ListPath == "" {
		return s.BaseURL
	}
	return s.BaseURL + s.ListPath
}

// Selector returns the configured selector for key, or "".
func (s *Source) Selector(key string) string {
	if s.Selectors == nil {
		return ""
	}
	return s.Selectors[key]
}
