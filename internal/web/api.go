package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"aical/internal/config"
	"aical/internal/format"
	"aical/internal/ics"
	"aical/internal/importer"
	appLog "aical/internal/log"
	"aical/internal/model"
	"aical/internal/store"
	"aical/internal/view"
)

// SourceUpload tags events added from an uploaded ICS document.
const SourceUpload = "ics-upload"

const maxICSUpload = 5 << 20

func clockOf(cfg *config.Config) format.ClockFormat {
	return format.ParseClock(cfg.Clock)
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
}

// writeFailure maps domain errors onto responses.
func writeFailure(w http.ResponseWriter, err error) {
	var ie *importer.ImportError
	if errors.As(err, &ie) {
		writeJSON(w, ie.HTTPStatus(), errResp{Error: ie.Error(), Details: ie.Detail})
		return
	}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errResp{Error: ve.Reason, Field: ve.Field})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	appLog.Error("request failed", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// GET /api/events
func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	events := s.deps.Store.List()
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Count: len(events)})
}

// POST /api/events
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var c model.Candidate
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := c.Draft()
	if err != nil {
		writeFailure(w, err)
		return
	}
	ev, err := s.deps.Store.Add(d)
	if err != nil {
		writeFailure(w, err)
		return
	}
	eventsChanged.WithLabelValues("add").Inc()
	appLog.Info("event added", "id", ev.ID, "title", ev.Title)
	writeJSON(w, http.StatusCreated, ev)
}

// GET /api/events/{id}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ev, ok := s.deps.Store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// PUT /api/events/{id}
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var c model.Candidate
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := c.Draft()
	if err != nil {
		writeFailure(w, err)
		return
	}
	ev, err := s.deps.Store.Replace(id, d)
	if err != nil {
		writeFailure(w, err)
		return
	}
	eventsChanged.WithLabelValues("replace").Inc()
	writeJSON(w, http.StatusOK, ev)
}

// DELETE /api/events/{id}. Deleting an unknown id is not an error.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.deps.Store.Remove(id) {
		eventsChanged.WithLabelValues("remove").Inc()
		appLog.Info("event removed", "id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Input       string `json:"input"`
	UserContext string `json:"userContext"`
}

// POST /api/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Importer == nil {
		writeError(w, http.StatusServiceUnavailable, "import is not configured")
		return
	}
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "No input provided")
		return
	}

	added, err := s.deps.Importer.Import(r.Context(), req.Input, req.UserContext)
	if err != nil {
		writeFailure(w, err)
		return
	}
	eventsChanged.WithLabelValues("import").Add(float64(len(added)))
	writeJSON(w, http.StatusCreated, eventsResponse{Events: added, Count: len(added)})
}

func (s *Server) exportOptions() ics.ExportOptions {
	return ics.ExportOptions{
		ProductID:    s.cfg.Export.ProductID,
		CalendarName: s.cfg.Export.CalendarName,
		UIDDomain:    s.cfg.Export.UIDDomain,
		Now:          s.deps.Now(),
	}
}

// GET /api/export.ics
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	opts := s.exportOptions()
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="my-calendar-%d.ics"`, opts.Now.Unix()))
	if err := ics.ExportTo(w, s.deps.Store.List(), opts); err != nil {
		appLog.Error("export failed", err)
	}
}

type icsImportResponse struct {
	eventsResponse
	// Skipped counts occurrences the store rejected, e.g. zero-length events.
	Skipped   int      `json:"skipped"`
	Truncated []string `json:"truncated_uids,omitempty"`
}

// POST /api/import.ics with a raw VCALENDAR body.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxICSUpload))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "calendar too large")
		return
	}

	parsed, err := ics.ParseICS(ics.Source{ID: SourceUpload}, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid calendar: "+err.Error())
		return
	}
	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{DisplayLocation: s.cfg.Location()})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	drafts, skipped := expanded.Drafts()
	added, err := s.deps.Store.AddBatch(drafts, SourceUpload)
	if err != nil {
		writeFailure(w, err)
		return
	}
	eventsChanged.WithLabelValues("import").Add(float64(len(added)))
	appLog.Info("ics upload imported", "events", len(added), "skipped", len(skipped), "truncated", len(expanded.TruncatedEvents))
	writeJSON(w, http.StatusCreated, icsImportResponse{
		eventsResponse: eventsResponse{Events: added, Count: len(added)},
		Skipped:        len(skipped),
		Truncated:      expanded.TruncatedEvents,
	})
}

// stateFromQuery reads ?view=&date=, defaulting to the month of today.
func (s *Server) stateFromQuery(r *http.Request) (view.State, error) {
	q := r.URL.Query()
	st := view.State{View: view.Month, Date: model.Floating(s.deps.Now())}
	if v := q.Get("view"); v != "" {
		k, err := view.ParseKind(v)
		if err != nil {
			return st, &model.ValidationError{Field: "view", Reason: err.Error()}
		}
		st.View = k
	}
	if d := q.Get("date"); d != "" {
		t, err := model.ParseDate(d)
		if err != nil {
			return st, &model.ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q", d)}
		}
		st.Date = t
	}
	return st, nil
}

// GET /api/view?view=&date=
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	st, err := s.stateFromQuery(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Controller.Project(st))
}

// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Controller.Render())
}

// POST /api/state/step {"direction": -1|1}
func (s *Server) handleStateStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction int `json:"direction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Direction == 0 {
		writeFailure(w, &model.ValidationError{Field: "direction", Reason: "direction must be non-zero"})
		return
	}
	s.deps.Controller.Step(req.Direction)
	writeJSON(w, http.StatusOK, s.deps.Controller.Render())
}

// POST /api/state/view {"view": "week"}
func (s *Server) handleStateView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	k, err := view.ParseKind(req.View)
	if err != nil {
		writeFailure(w, &model.ValidationError{Field: "view", Reason: err.Error()})
		return
	}
	s.deps.Controller.SetView(k)
	writeJSON(w, http.StatusOK, s.deps.Controller.Render())
}

// POST /api/state/date {"date": "2025-01-08"} opens the day view.
func (s *Server) handleStateDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := model.ParseDate(req.Date)
	if err != nil {
		writeFailure(w, &model.ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q", req.Date)})
		return
	}
	s.deps.Controller.GoToDate(d)
	writeJSON(w, http.StatusOK, s.deps.Controller.Render())
}

// POST /api/state/month {"year": 2025, "month": 3} opens the month view.
func (s *Server) handleStateMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeFailure(w, &model.ValidationError{Field: "month", Reason: "month must be 1-12"})
		return
	}
	if req.Year < 1 || req.Year > 9999 {
		writeFailure(w, &model.ValidationError{Field: "year", Reason: "year out of range"})
		return
	}
	s.deps.Controller.GoToMonth(req.Year, time.Month(req.Month))
	writeJSON(w, http.StatusOK, s.deps.Controller.Render())
}

// POST /api/state/today
func (s *Server) handleStateToday(w http.ResponseWriter, _ *http.Request) {
	s.deps.Controller.Today()
	writeJSON(w, http.StatusOK, s.deps.Controller.Render())
}

// POST /api/subscriptions/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "no subscriptions configured")
		return
	}
	res, err := s.deps.Refresher.Refresh(r.Context())
	if err != nil {
		appLog.Error("manual subscription refresh had errors", err)
	}
	writeJSON(w, http.StatusOK, res)
}
