package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is a single concrete calendar entry as held by the store.
//
// Start and End are floating wall-clock instants: the clock reading is what
// the user entered, and the value is always normalized into time.UTC so that
// no zone conversion can shift it.
type Event struct {
	ID string `json:"id"`

	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Source is empty for user-created events and holds the subscription ID
	// for events materialized from an ICS feed.
	Source string `json:"source,omitempty"`
}

// MultiDay reports whether Start and End fall on different calendar dates.
func (e Event) MultiDay() bool {
	sy, sm, sd := e.Start.Date()
	ey, em, ed := e.End.Date()
	return sy != ey || sm != em || sd != ed
}

// Duration is End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Draft is the input for creating or replacing an event. It is validated by
// Validate before it reaches the store.
type Draft struct {
	Title       string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
}

// Validate trims text fields and checks the event invariants.
func (d Draft) Validate() (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Location = strings.TrimSpace(d.Location)
	d.Description = strings.TrimSpace(d.Description)

	if d.Title == "" {
		return d, &ValidationError{Field: "title", Reason: "title is required"}
	}
	if d.Start.IsZero() {
		return d, &ValidationError{Field: "start", Reason: "start time is required"}
	}
	if d.End.IsZero() {
		return d, &ValidationError{Field: "end", Reason: "end time is required"}
	}
	d.Start = Floating(d.Start)
	d.End = Floating(d.End)
	if !d.End.After(d.Start) {
		return d, &ValidationError{Field: "end", Reason: "end time must be after start time"}
	}
	return d, nil
}

// Candidate is the wire shape of an event proposed by an external parser or
// submitted through the JSON API. Times are naive ISO-8601 strings.
type Candidate struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// Draft parses the candidate's times and validates the result.
func (c Candidate) Draft() (Draft, error) {
	d := Draft{
		Title:       c.Title,
		Location:    c.Location,
		Description: c.Description,
	}
	if strings.TrimSpace(c.Start) == "" {
		return d, &ValidationError{Field: "start", Reason: "start time is required"}
	}
	if strings.TrimSpace(c.End) == "" {
		return d, &ValidationError{Field: "end", Reason: "end time is required"}
	}

	start, err := ParseFloating(c.Start)
	if err != nil {
		return d, &ValidationError{Field: "start", Reason: fmt.Sprintf("unparseable time %q", c.Start)}
	}
	end, err := ParseFloating(c.End)
	if err != nil {
		return d, &ValidationError{Field: "end", Reason: fmt.Sprintf("unparseable time %q", c.End)}
	}
	d.Start = start
	d.End = end
	return d.Validate()
}

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a rejected event field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
