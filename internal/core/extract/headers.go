package extract

import "net/http"

// HeaderProfile is a coherent set of request headers for one client kind.
type HeaderProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	SecFetchDest   string
	SecFetchMode   string
	SecFetchSite   string
}

// browserProfile is sent to career pages, which often reject bare clients.
var browserProfile = HeaderProfile{
	UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	AcceptLanguage: "en-US,en;q=0.9",
	SecFetchDest:   "document",
	SecFetchMode:   "navigate",
	SecFetchSite:   "none",
}

// apiProfile is sent to JSON providers.
var apiProfile = HeaderProfile{
	UserAgent:      "NextStepBot/1.0 (+https://nextstep.example/bot)",
	Accept:         "application/json",
	AcceptLanguage: "en-US,en;q=0.9",
}

// Apply sets the profile's headers on h; an explicit userAgent wins.
func (p HeaderProfile) Apply(h http.Header, userAgent string) {
	ua := p.UserAgent
	if userAgent != "" {
		ua = userAgent
	}
	h.Set("User-Agent", ua)
	h.Set("Accept", p.Accept)
	h.Set("Accept-Language", p.AcceptLanguage)
	if p.SecFetchDest != "" {
		h.Set("Sec-Fetch-Dest", p.SecFetchDest)
		h.Set("Sec-Fetch-Mode", p.SecFetchMode)
		h.Set("Sec-Fetch-Site", p.SecFetchSite)
	}
}
