package markdown

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSelection(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div class="desc">
			<p>Work on <strong>search</strong>.</p>
			<script>track()</script>
			<ul><li>Go</li><li>SQL</li></ul>
		</div>`))
	require.NoError(t, err)

	out := ConvertSelection(doc.Find(".desc"), "https://jobs.example.com")

	assert.Contains(t, out, "Work on **search**.")
	assert.Contains(t, out, "- Go")
	assert.NotContains(t, out, "track()")
}

func TestConvertSelection_Empty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div></div>`))
	require.NoError(t, err)

	assert.Empty(t, ConvertSelection(doc.Find(".missing"), ""))
}

func TestClean(t *testing.T) {
	in := "line one\u200B\n\n\n\n![logo](https://x.test/logo.png)\nline\x07 two  "
	assert.Equal(t, "line one\n\nline two", Clean(in))
}
