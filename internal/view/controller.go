package view

import (
	"sync"
	"time"

	"aical/internal/format"
	"aical/internal/layout"
	"aical/internal/model"
)

// State is the anchor date and the active view.
type State struct {
	Date time.Time `json:"date"`
	View Kind      `json:"view"`
}

// Step moves the anchor by direction units of the active view: days, weeks,
// calendar months or years. Month and year steps clamp the day of month to
// the target month's length.
func Step(s State, direction int) State {
	switch s.View {
	case Day:
		s.Date = s.Date.AddDate(0, 0, direction)
	case Week:
		s.Date = s.Date.AddDate(0, 0, 7*direction)
	case Month:
		s.Date = AddMonths(s.Date, direction)
	case Year:
		s.Date = AddMonths(s.Date, 12*direction)
	}
	return s
}

// Lister is the read side of the event store.
type Lister interface {
	List() []model.Event
}

// Controller owns the current view state and renders it from the store. It
// only reads from the store.
type Controller struct {
	mu    sync.Mutex
	state State
	src   Lister
	clock format.ClockFormat
	now   func() time.Time
}

// NewController starts on the month view of today. now may be nil.
func NewController(src Lister, clock format.ClockFormat, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	c := &Controller{src: src, clock: clock, now: now}
	c.state = State{Date: layout.StartOfDay(c.today()), View: Month}
	return c
}

func (c *Controller) today() time.Time {
	return model.Floating(c.now())
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Step moves the anchor backwards (negative) or forwards (positive).
func (c *Controller) Step(direction int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Step(c.state, direction)
	return c.state
}

// SetView switches the view and keeps the anchor date.
func (c *Controller) SetView(k Kind) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = k
	return c.state
}

// GoToDate anchors on date and switches to the day view.
func (c *Controller) GoToDate(date time.Time) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Date: layout.StartOfDay(model.Floating(date)), View: Day}
	return c.state
}

// GoToMonth anchors on the 1st of the month and switches to the month view.
func (c *Controller) GoToMonth(year int, month time.Month) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Date: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), View: Month}
	return c.state
}

// Today anchors on the current date without changing the view.
func (c *Controller) Today() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Date = layout.StartOfDay(c.today())
	return c.state
}

// Render projects the current state over a fresh read of the store.
func (c *Controller) Render() Projection {
	return c.Project(c.State())
}

// Project renders an arbitrary state with the controller's store and clock
// without changing the current state.
func (c *Controller) Project(s State) Projection {
	return Project(s, c.src.List(), Options{Clock: c.clock, Now: c.today()})
}
