package extract

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nextstep/internal/apperr"
	"nextstep/internal/core/listing"
	"nextstep/internal/models"
	"nextstep/internal/utils/markdown"
)

// HTMLExtractor reads listings out of a career page using the source's CSS selectors.
type HTMLExtractor struct {
	fetcher *Fetcher
}

func NewHTMLExtractor(f *Fetcher) *HTMLExtractor {
	return &HTMLExtractor{fetcher: f}
}

func (e *HTMLExtractor) Kind() models.ProviderType { return models.ProviderHTML }

// Fetch downloads the source's list page and extracts one listing per item node.
// Missing item/title selectors are reported before any request is made.
func (e *HTMLExtractor) Fetch(ctx context.Context, src *models.Source) ([]listing.Listing, error) {
	itemSel := strings.TrimSpace(src.Selector(models.SelectorItem))
	titleSel := strings.TrimSpace(src.Selector(models.SelectorTitle))
	if itemSel == "" || titleSel == "" {
		return nil, &apperr.ConfigError{Source: src.Name, Message: "html source requires item and title selectors"}
	}

	resp, err := e.fetcher.Get(ctx, src.TargetURL(), browserProfile, nil, nil)
	if err != nil {
		return nil, err
	}
	return ExtractHTML(resp.Body, src)
}

// ExtractHTML runs the selector pass over an already fetched page.
func ExtractHTML(body []byte, src *models.Source) ([]listing.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &apperr.ParseError{URL: src.TargetURL(), Cause: err}
	}

	base, _ := url.Parse(src.BaseURL)
	titleSel := src.Selector(models.SelectorTitle)
	locationSel := src.Selector(models.SelectorLocation)
	companySel := src.Selector(models.SelectorCompany)
	linkSel := src.Selector(models.SelectorLink)
	descSel := src.Selector(models.SelectorDescription)

	out := make([]listing.Listing, 0)
	doc.Find(src.Selector(models.SelectorItem)).Each(func(_ int, item *goquery.Selection) {
		raw := listing.Raw{
			Title: item.Find(titleSel).First().Text(),
		}
		if locationSel != "" {
			raw.Location = item.Find(locationSel).First().Text()
		}
		if companySel != "" {
			raw.Company = item.Find(companySel).First().Text()
		}
		if linkSel != "" {
			if href, ok := item.Find(linkSel).First().Attr("href"); ok {
				raw.ApplyURL = resolveLink(base, href)
			}
		}

		l, ok := listing.Normalize(raw, src.Name)
		if !ok {
			return
		}
		if descSel != "" {
			l.Description = markdown.ConvertSelection(item.Find(descSel), src.BaseURL)
		}
		if l.Description == "" {
			l.Description = listing.Describe(l.Title, l.CompanyName, l.Location)
		}
		out = append(out, l)
	})
	return out, nil
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
