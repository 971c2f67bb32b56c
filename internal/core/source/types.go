package source

import "nextstep/internal/models"

// CreateRequest is the admin payload for a new source. It is also the shape
// of one entry in a sources import file.
type CreateRequest struct {
	Name             string              `json:"name" yaml:"name" toml:"name" validate:"required,min=2,max=100"`
	BaseURL          string              `json:"baseUrl" yaml:"baseUrl" toml:"baseUrl" validate:"required,url"`
	ListPath         string              `json:"listPath" yaml:"listPath" toml:"listPath"`
	ProviderType     models.ProviderType `json:"providerType" yaml:"providerType" toml:"providerType" validate:"omitempty,oneof=html api"`
	Enabled          *bool               `json:"enabled" yaml:"enabled" toml:"enabled"`
	FrequencyMinutes int                 `json:"frequencyMinutes" yaml:"frequencyMinutes" toml:"frequencyMinutes" validate:"omitempty,min=5"`
	Selectors        map[string]string   `json:"selectors" yaml:"selectors" toml:"selectors"`
	APIConfig        *models.APIConfig   `json:"apiConfig" yaml:"apiConfig" toml:"apiConfig"`
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	Name             *string              `json:"name" validate:"omitempty,min=2,max=100"`
	BaseURL          *string              `json:"baseUrl" validate:"omitempty,url"`
	ListPath         *string              `json:"listPath"`
	ProviderType     *models.ProviderType `json:"providerType" validate:"omitempty,oneof=html api"`
	Enabled          *bool                `json:"enabled"`
	FrequencyMinutes *int                 `json:"frequencyMinutes" validate:"omitempty,min=5"`
	Selectors        map[string]string    `json:"selectors"`
	APIConfig        *models.APIConfig    `json:"apiConfig"`
}

func (r UpdateRequest) touchesKind() bool {
	return r.ProviderType != nil || r.Selectors != nil || r.APIConfig != nil
}

// ImportFile is the document read by the sources import command.
type ImportFile struct {
	Sources []CreateRequest `json:"sources" yaml:"sources" toml:"sources"`
}

// ImportResult counts what an import changed.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type sourceResponse struct {
	Message string         `json:"message,omitempty"`
	Source  *models.Source `json:"source"`
}

type sourcesResponse struct {
	Sources []*models.Source `json:"sources"`
}

type previewResponse struct {
	Items any    `json:"items"`
	Error string `json:"error,omitempty"`
}
