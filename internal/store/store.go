// Package store is the in-memory event store. It exclusively owns all event
// records; readers always get copies.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"aical/internal/model"
)

// ErrNotFound is returned when an id does not match any stored event.
var ErrNotFound = errors.New("event not found")

// Store keeps events in insertion order. List sorts a copy by start time with
// a stable sort so that ties keep insertion order.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
	newID  func() string
}

// New returns an empty store that assigns UUIDv7 identifiers.
func New() *Store {
	return &Store{newID: newUUID}
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Add validates the draft and inserts it.
func (s *Store) Add(d model.Draft) (model.Event, error) {
	d, err := d.Validate()
	if err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := s.build(s.newID(), d, "")
	s.events = append(s.events, ev)
	return ev, nil
}

// AddBatch validates every draft before inserting any of them. If one draft
// is rejected the store is left untouched.
func (s *Store) AddBatch(drafts []model.Draft, source string) ([]model.Event, error) {
	valid, err := validateAll(drafts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]model.Event, 0, len(valid))
	for _, d := range valid {
		ev := s.build(s.newID(), d, source)
		added = append(added, ev)
	}
	s.events = append(s.events, added...)
	return added, nil
}

// ReplaceSource atomically swaps every event carrying the given source for
// the new drafts.
func (s *Store) ReplaceSource(source string, drafts []model.Draft) ([]model.Event, error) {
	if source == "" {
		return nil, errors.New("store: source is empty")
	}
	valid, err := validateAll(drafts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0:0]
	for _, ev := range s.events {
		if ev.Source != source {
			kept = append(kept, ev)
		}
	}
	added := make([]model.Event, 0, len(valid))
	for _, d := range valid {
		added = append(added, s.build(s.newID(), d, source))
	}
	s.events = append(kept, added...)
	return added, nil
}

// Replace implements edit as remove-then-insert. The id is reused and the
// event moves to the end of the insertion order.
func (s *Store) Replace(id string, d model.Draft) (model.Event, error) {
	d, err := d.Validate()
	if err != nil {
		return model.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	source := s.events[i].Source
	s.events = append(s.events[:i], s.events[i+1:]...)

	ev := s.build(id, d, source)
	s.events = append(s.events, ev)
	return ev, nil
}

// Remove deletes the event with the given id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	return true
}

// Get returns the event with the given id.
func (s *Store) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, false
	}
	return s.events[i], true
}

// List returns all events ordered by start, ties in insertion order.
func (s *Store) List() []model.Event {
	s.mu.RLock()
	cloned := append([]model.Event(nil), s.events...)
	s.mu.RUnlock()

	sort.SliceStable(cloned, func(i, j int) bool {
		return cloned[i].Start.Before(cloned[j].Start)
	})
	return cloned
}

// Len reports how many events are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) indexOf(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) build(id string, d model.Draft, source string) model.Event {
	return model.Event{
		ID:          id,
		Title:       d.Title,
		Location:    d.Location,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
		Source:      source,
	}
}

func validateAll(drafts []model.Draft) ([]model.Draft, error) {
	out := make([]model.Draft, 0, len(drafts))
	for i, d := range drafts {
		v, err := d.Validate()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}
