package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep/internal/models"
)

func TestNormalize(t *testing.T) {
	l, ok := Normalize(Raw{
		Title:    "  Backend\n  Intern ",
		Location: "",
		Company:  " Acme\tCorp ",
		ApplyURL: " https://acme.test/apply ",
	}, "acme-careers")

	require.True(t, ok)
	assert.Equal(t, "Backend Intern", l.Title)
	assert.Equal(t, UnspecifiedLocation, l.Location)
	assert.Equal(t, "Acme Corp", l.CompanyName)
	assert.Equal(t, "https://acme.test/apply", l.ApplyURL)
	assert.Equal(t, "acme-careers", l.Source)
	assert.Empty(t, l.InternalID)
}

func TestNormalize_EmptyTitleRejected(t *testing.T) {
	_, ok := Normalize(Raw{Title: " \n\t ", Location: "Pune"}, "x")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Data Intern at Acme - Remote", Describe("Data Intern", "Acme", "Remote"))
	assert.Equal(t, "Data Intern - Not specified", Describe("Data Intern", "", UnspecifiedLocation))
}

func TestFromInternship(t *testing.T) {
	l := FromInternship(&models.Internship{
		ID:               "in-1",
		Title:            "React Intern",
		Description:      "Build UIs",
		Location:         "Bengaluru",
		CompanyName:      "Hidden",
		ExternalApplyURL: "https://elsewhere.test",
	})

	assert.Equal(t, "in-1", l.InternalID)
	assert.Equal(t, InternalSource, l.Source)
	assert.Empty(t, l.ApplyURL)
	assert.Empty(t, l.CompanyName)
}

func TestMatches(t *testing.T) {
	l := Listing{Title: "React Developer Intern", Location: "Remote - India"}

	assert.True(t, l.Matches("", ""))
	assert.True(t, l.Matches("react", ""))
	assert.True(t, l.Matches("DEVELOPER", "india"))
	assert.False(t, l.Matches("golang", ""))
	assert.False(t, l.Matches("react", "berlin"))
}
