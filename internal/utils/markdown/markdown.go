package markdown

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^\)]+\)`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	controlCharsRe = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

var invisibleChars = []string{
	"\u200B", "\u200C", "\u200D", "\u200E", "\u200F",
	"\u2028", "\u2029", "\uFEFF", "\uFFFD", "\uFFFF",
}

// ConvertSelection renders a selected fragment (a listing's description
// node) as markdown. Relative links are made absolute against domain.
func ConvertSelection(sel *goquery.Selection, domain string) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	clone := sel.First().Clone()
	clone.Find("script, style, noscript, iframe, svg, button, form").Remove()

	html, err := goquery.OuterHtml(clone)
	if err != nil {
		return ""
	}
	return ConvertFragment(html, domain)
}

// ConvertFragment converts an HTML fragment to cleaned markdown.
func ConvertFragment(html, domain string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	conv := md.NewConverter(domain, true, nil)
	out, err := conv.ConvertString(html)
	if err != nil {
		return ""
	}
	return Clean(out)
}

// Clean drops image-only lines and control characters and collapses blank runs.
func Clean(mdText string) string {
	lines := strings.Split(mdText, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		line := strings.TrimRight(l, " \t")
		if imageRe.MatchString(line) && strings.TrimSpace(imageRe.ReplaceAllString(line, "")) == "" {
			continue
		}
		out = append(out, stripControl(line))
	}
	cleaned := strings.Join(out, "\n")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func stripControl(text string) string {
	text = controlCharsRe.ReplaceAllString(text, "")
	for _, c := range invisibleChars {
		text = strings.ReplaceAll(text, c, "")
	}
	return text
}
