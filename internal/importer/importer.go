// Package importer turns natural-language descriptions into stored events
// through an external parsing collaborator.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	appLog "aical/internal/log"
	"aical/internal/model"
)

// SourceImport tags events created from natural-language input.
const SourceImport = "import"

const defaultTimeout = 30 * time.Second

// Parser proposes candidate events for a piece of text. reference is the
// user's notion of "now" and is passed to the backend verbatim.
type Parser interface {
	Parse(ctx context.Context, text, reference string) ([]model.Candidate, error)
}

// BatchAdder is the store operation an import commits through.
type BatchAdder interface {
	AddBatch(drafts []model.Draft, source string) ([]model.Event, error)
}

// Importer validates a parser's proposals and commits them as one batch.
type Importer struct {
	parser  Parser
	events  BatchAdder
	timeout time.Duration
	now     func() time.Time
}

// New creates an Importer. A non-positive timeout selects the default.
func New(p Parser, events BatchAdder, timeout time.Duration) *Importer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Importer{parser: p, events: events, timeout: timeout, now: time.Now}
}

// Import parses text and adds every resulting event. Nothing is added unless
// every candidate is valid.
func (im *Importer) Import(ctx context.Context, text, reference string) ([]model.Event, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		importsTotal.WithLabelValues("rejected").Inc()
		return nil, importErr(http.StatusBadRequest, "no input provided", nil)
	}
	if strings.TrimSpace(reference) == "" {
		reference = ReferenceTime(im.now())
	}

	ctx, cancel := context.WithTimeout(ctx, im.timeout)
	defer cancel()

	started := time.Now()
	candidates, err := im.parser.Parse(ctx, text, reference)
	importDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		importsTotal.WithLabelValues("upstream_error").Inc()
		appLog.Error("import parse failed", err)
		var ie *ImportError
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, importErr(0, "", err)
	}
	if len(candidates) == 0 {
		importsTotal.WithLabelValues("empty").Inc()
		return nil, importErr(0, "no events", nil)
	}

	drafts := make([]model.Draft, 0, len(candidates))
	for i, c := range candidates {
		d, err := c.Draft()
		if err != nil {
			importsTotal.WithLabelValues("invalid").Inc()
			appLog.Error("import candidate rejected", err, "index", i, "title", c.Title)
			return nil, importErr(0, fmt.Sprintf("event %d", i), err)
		}
		drafts = append(drafts, d)
	}

	added, err := im.events.AddBatch(drafts, SourceImport)
	if err != nil {
		importsTotal.WithLabelValues("invalid").Inc()
		return nil, importErr(0, "", err)
	}

	importsTotal.WithLabelValues("ok").Inc()
	eventsImported.Add(float64(len(added)))
	appLog.Info("import completed", "events", len(added))
	return added, nil
}
