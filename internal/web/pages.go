package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"time"

	appLog "aical/internal/log"
	"aical/internal/model"
	"aical/internal/view"
)

// embeddedTemplates holds the server-rendered calendar pages.
//
//go:embed templates/*.html
var embeddedTemplates embed.FS

const dateParam = "2006-01-02"

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"pct":      func(f float64) string { return fmt.Sprintf("%.3f%%", f*100) },
	"hourFrac": func(h int) float64 { return float64(h) / 24 },
	"seq":      func(n int) []int { return make([]int, n) },
	"ymd":      func(t time.Time) string { return t.Format(dateParam) },
	"weekdays": func() []string { return []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} },
}).ParseFS(embeddedTemplates, "templates/*.html"))

type pageData struct {
	P      view.Projection
	Kinds  []view.Kind
	Anchor string
	Prev   string
	Next   string
	Today  string
	Live   bool
}

func (s *Server) pageFor(p view.Projection, live bool) pageData {
	st := view.State{Date: p.Date, View: p.View}
	return pageData{
		P:      p,
		Kinds:  view.Kinds,
		Anchor: p.Date.Format(dateParam),
		Prev:   view.Step(st, -1).Date.Format(dateParam),
		Next:   view.Step(st, 1).Date.Format(dateParam),
		Today:  model.Floating(s.deps.Now()).Format(dateParam),
		Live:   live,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "calendar.html", data); err != nil {
		appLog.Error("page render failed", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// GET / renders the controller's current state.
func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, s.pageFor(s.deps.Controller.Render(), true))
}

// GET /calendar?view=&date= renders any state without touching the
// controller.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	st, err := s.stateFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.renderPage(w, s.pageFor(s.deps.Controller.Project(st), false))
}

// GET /preview.png?view=&date= captures /calendar in a headless browser.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.deps.Capturer == nil || !s.cfg.Capture.Enabled {
		writeError(w, http.StatusNotFound, "preview capture is disabled")
		return
	}
	st, err := s.stateFromQuery(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	q := url.Values{}
	q.Set("view", st.View.String())
	q.Set("date", st.Date.Format(dateParam))
	target := s.selfURL("/calendar") + "?" + q.Encode()

	png, err := s.deps.Capturer.Capture(r.Context(), target)
	if err != nil {
		appLog.Error("preview capture failed", err, "url", target)
		writeError(w, http.StatusBadGateway, "preview capture failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// selfURL addresses this server on its own listen address. The request's
// Host header is never used: the capture browser must only load our pages.
func (s *Server) selfURL(path string) string {
	host, port, err := net.SplitHostPort(s.cfg.Listen)
	if err != nil {
		host, port = s.cfg.Listen, "80"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + path
}
