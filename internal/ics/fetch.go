package ics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	appLog "aical/internal/log"
	"aical/internal/retry"
)

const (
	defaultCacheDir     = "./var/ics-cache"
	defaultFetchTimeout = 15 * time.Second
)

// Source is one calendar feed.
type Source struct {
	ID  string
	URL string
}

// FetchResult is the body served for one source.
type FetchResult struct {
	Source Source
	Body   []byte
	// FromCache is set when the body came from the local cache, either
	// because the feed answered 304 or because it was unavailable.
	FromCache bool
}

// FetchOptions configures a Fetcher. Zero values select the defaults.
type FetchOptions struct {
	CacheDir string
	Timeout  time.Duration
	Retry    retry.Policy
}

// Fetcher downloads feeds with conditional requests and serves the last
// good body when a feed is down.
type Fetcher struct {
	client *resty.Client
	cache  feedCache
	retry  retry.Policy
}

func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.CacheDir == "" {
		opts.CacheDir = defaultCacheDir
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client: resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "text/calendar, */*"),
		cache: feedCache{dir: opts.CacheDir},
		retry: opts.Retry,
	}
}

// FetchAll fetches every source in order. Results only hold sources that
// produced a body; failures are logged and returned alongside.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// FetchOne downloads src, sending the cached validators. Transient failures
// are retried under the fetcher's policy; if the feed still cannot be read
// the cached body is served instead.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, fmt.Errorf("fetch %s: source URL is empty", src.ID)
	}
	cached, haveCache := f.cache.load(src.URL)

	resp, err := f.get(ctx, src, cached)
	if err == nil {
		switch status := resp.StatusCode(); {
		case status == http.StatusOK:
			fresh := cachedFeed{
				URL:          src.URL,
				ETag:         resp.Header().Get("ETag"),
				LastModified: resp.Header().Get("Last-Modified"),
				FetchedAt:    time.Now().UTC(),
				Body:         resp.String(),
			}
			if err := f.cache.save(fresh); err != nil {
				appLog.Error("ics cache save failed", err, "id", src.ID)
			}
			feedFetches.WithLabelValues("fresh").Inc()
			appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(resp.Body()))
			return FetchResult{Source: src, Body: resp.Body()}, nil
		case status == http.StatusNotModified && haveCache:
			feedFetches.WithLabelValues("not_modified").Inc()
			appLog.Debug("ics feed not modified", "id", src.ID, "cached_at", cached.FetchedAt)
			return FetchResult{Source: src, Body: []byte(cached.Body), FromCache: true}, nil
		case status == http.StatusNotModified:
			err = errors.New("304 Not Modified without a cached body")
		default:
			err = fmt.Errorf("unexpected status %s", resp.Status())
		}
	}

	if haveCache {
		feedFetches.WithLabelValues("stale").Inc()
		appLog.Error("ics feed unavailable, serving cached body", err, "id", src.ID, "url", redactURL(src.URL), "cached_at", cached.FetchedAt)
		return FetchResult{Source: src, Body: []byte(cached.Body), FromCache: true}, nil
	}
	feedFetches.WithLabelValues("error").Inc()
	return FetchResult{}, fmt.Errorf("fetch %s: %w", src.ID, err)
}

// get performs the conditional GET. Network errors and transient statuses
// are retried; any other response is returned for FetchOne to judge.
func (f *Fetcher) get(ctx context.Context, src Source, cached cachedFeed) (*resty.Response, error) {
	var resp *resty.Response
	err := f.retry.Do(ctx, func(attempt int) error {
		req := f.client.R().SetContext(ctx)
		if cached.ETag != "" {
			req.SetHeader("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.SetHeader("If-Modified-Since", cached.LastModified)
		}

		r, err := req.Get(src.URL)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(err)
			}
			appLog.Debug("ics fetch attempt failed", "id", src.ID, "attempt", attempt, "err", err.Error())
			return err
		}
		if retry.Transient(r.StatusCode()) {
			appLog.Debug("ics fetch attempt got transient status", "id", src.ID, "attempt", attempt, "status", r.StatusCode())
			return fmt.Errorf("unexpected status %s", r.Status())
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// redactURL keeps only the scheme and host of a feed URL for logging.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
