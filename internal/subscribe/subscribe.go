// Package subscribe keeps events from remote ICS feeds in the store.
package subscribe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"aical/internal/ics"
	appLog "aical/internal/log"
	"aical/internal/model"
)

// SourcePrefix is prepended to a feed ID to form the event source tag.
const SourcePrefix = "ics:"

// Fetcher retrieves feed bodies.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, []error)
}

// Replacer swaps all events of one source.
type Replacer interface {
	ReplaceSource(source string, drafts []model.Draft) ([]model.Event, error)
}

// Options configures a Refresher.
type Options struct {
	Sources         []ics.Source
	DisplayLocation *time.Location
	BackfillDays    int
	HorizonDays     int
	Now             func() time.Time
}

// Result summarizes one refresh pass.
type Result struct {
	Sources int            `json:"sources"`
	Events  map[string]int `json:"events"`
	Errors  []string       `json:"errors,omitempty"`
}

// Refresher runs fetch, parse, expand and replace for every feed.
type Refresher struct {
	fetcher Fetcher
	store   Replacer
	opts    Options

	mu sync.Mutex
}

// NewRefresher creates a Refresher.
func NewRefresher(f Fetcher, store Replacer, opts Options) *Refresher {
	if opts.DisplayLocation == nil {
		opts.DisplayLocation = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 365
	}
	if opts.BackfillDays < 0 {
		opts.BackfillDays = 0
	}
	return &Refresher{fetcher: f, store: store, opts: opts}
}

// window returns the floating expansion range around today.
func (r *Refresher) window() (time.Time, time.Time) {
	now := r.opts.Now().In(r.opts.DisplayLocation)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -r.opts.BackfillDays)
	end := today.AddDate(0, 0, r.opts.HorizonDays+1).Add(-time.Second)
	return start, end
}

// Refresh updates every configured feed. A feed that fails keeps whatever
// events it contributed last time. Passes never overlap.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{Sources: len(r.opts.Sources), Events: map[string]int{}}
	if len(r.opts.Sources) == 0 {
		return res, nil
	}

	start := time.Now()
	defer func() { refreshDuration.Observe(time.Since(start).Seconds()) }()

	results, fetchErrs := r.fetcher.FetchAll(ctx, r.opts.Sources)
	errs := append([]error(nil), fetchErrs...)
	for range fetchErrs {
		refreshTotal.WithLabelValues("fetch_error").Inc()
	}

	rangeStart, rangeEnd := r.window()
	for _, fr := range results {
		n, err := r.apply(fr, rangeStart, rangeEnd)
		if err != nil {
			refreshTotal.WithLabelValues("apply_error").Inc()
			appLog.Error("subscription apply failed", err, "id", fr.Source.ID)
			errs = append(errs, fmt.Errorf("%s: %w", fr.Source.ID, err))
			continue
		}
		refreshTotal.WithLabelValues("ok").Inc()
		feedEvents.WithLabelValues(fr.Source.ID).Set(float64(n))
		res.Events[fr.Source.ID] = n
	}

	for _, err := range errs {
		res.Errors = append(res.Errors, err.Error())
	}
	appLog.Info("subscription refresh completed", "sources", len(r.opts.Sources), "applied", len(res.Events), "errors", len(errs))
	return res, errors.Join(errs...)
}

func (r *Refresher) apply(fr ics.FetchResult, rangeStart, rangeEnd time.Time) (int, error) {
	parsed, err := ics.ParseICS(fr.Source, fr.Body)
	if err != nil {
		return 0, err
	}
	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: r.opts.DisplayLocation,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return 0, err
	}

	drafts, skipped := expanded.Drafts()
	if len(skipped) > 0 {
		appLog.Info("subscription occurrences skipped", "id", fr.Source.ID, "skipped", len(skipped))
	}

	added, err := r.store.ReplaceSource(SourcePrefix+fr.Source.ID, drafts)
	if err != nil {
		return 0, err
	}
	return len(added), nil
}

// Start schedules Refresh on schedule and runs one pass immediately. The
// scheduler stops when ctx is done.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := r.Refresh(ctx); err != nil {
			appLog.Error("scheduled subscription refresh had errors", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: invalid refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	appLog.Info("subscription refresh scheduled", "schedule", schedule, "sources", len(r.opts.Sources))

	go func() {
		if _, err := r.Refresh(ctx); err != nil {
			appLog.Error("initial subscription refresh had errors", err)
		}
	}()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("subscription scheduler stopped")
	}()
	return nil
}
