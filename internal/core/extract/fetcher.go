package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"nextstep/internal/apperr"
)

// FetcherOptions configures outbound requests to sources.
type FetcherOptions struct {
	Timeout      time.Duration
	RatePerHost  float64 // requests per second; <= 0 disables limiting
	MaxBodyBytes int64
	UserAgent    string
}

// DefaultFetcherOptions mirrors the config defaults.
func DefaultFetcherOptions() FetcherOptions {
	return FetcherOptions{
		Timeout:      15 * time.Second,
		RatePerHost:  2,
		MaxBodyBytes: 5 << 20,
	}
}

// Response is a fully read 2xx response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher performs bounded GET requests against source hosts.
type Fetcher struct {
	client *http.Client
	opts   FetcherOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher builds a fetcher. The client timeout is always set so a hanging
// source cannot block a job or an aggregation forever.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetcherOptions().Timeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultFetcherOptions().MaxBodyBytes
	}
	return &Fetcher{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Get issues a GET with the given profile, extra headers and query params.
// Transport failures and non-2xx statuses are returned as *apperr.FetchError.
func (f *Fetcher) Get(ctx context.Context, rawURL string, profile HeaderProfile, headers map[string]string, query url.Values) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &apperr.FetchError{URL: rawURL, Cause: fmt.Errorf("invalid URL")}
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	if err := f.wait(ctx, u.Host); err != nil {
		return nil, &apperr.FetchError{URL: target, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &apperr.FetchError{URL: target, Cause: err}
	}
	profile.Apply(req.Header, f.opts.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &apperr.FetchError{URL: target, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.FetchError{URL: target, StatusCode: resp.StatusCode}
	}
	// one extra byte tells a body of exactly the cap from a larger one
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, &apperr.FetchError{URL: target, StatusCode: resp.StatusCode, Cause: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		return nil, &apperr.FetchError{URL: target, StatusCode: resp.StatusCode,
			Cause: fmt.Errorf("response exceeds %d bytes", f.opts.MaxBodyBytes)}
	}

	return &Response{
		URL:         target,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (f *Fetcher) wait(ctx context.Context, host string) error {
	if f.opts.RatePerHost <= 0 {
		return nil
	}
	f.mu.Lock()
	lim, ok := f.limiters[host]
	if !ok {
		burst := int(f.opts.RatePerHost)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(f.opts.RatePerHost), burst)
		f.limiters[host] = lim
	}
	f.mu.Unlock()
	return lim.Wait(ctx)
}
