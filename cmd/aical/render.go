package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"aical/internal/format"
	"aical/internal/ics"
	"aical/internal/model"
	"aical/internal/store"
	"aical/internal/view"
)

const sourceFile = "file"

type renderFlags struct {
	files    []string
	view     string
	date     string
	clock    string
	timezone string
}

func newRenderCmd() *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a day, week, month or year view of ICS files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.OutOrStdout(), f, time.Now())
		},
	}
	cmd.Flags().StringSliceVarP(&f.files, "ics", "i", nil, "ICS file to load (repeatable)")
	cmd.Flags().StringVar(&f.view, "view", "month", "View: day, week, month or year")
	cmd.Flags().StringVar(&f.date, "date", "", "Anchor date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.clock, "clock", "12h", "Clock format: 12h or 24h")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "Display zone for UTC and TZID times (default local)")
	_ = cmd.MarkFlagRequired("ics")
	return cmd
}

type exportFlags struct {
	files []string
	out   string
	name  string
}

func newExportCmd() *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Expand ICS files into a flat floating-time calendar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			events, err := loadFiles(f.files, time.Local)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if f.out != "" && f.out != "-" {
				file, err := os.Create(f.out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			return ics.ExportTo(w, events.List(), ics.ExportOptions{CalendarName: f.name})
		},
	}
	cmd.Flags().StringSliceVarP(&f.files, "ics", "i", nil, "ICS file to load (repeatable)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&f.name, "name", "", "Calendar name")
	_ = cmd.MarkFlagRequired("ics")
	return cmd
}

func runRender(w io.Writer, f renderFlags, now time.Time) error {
	loc := time.Local
	if f.timezone != "" {
		l, err := time.LoadLocation(f.timezone)
		if err != nil {
			return fmt.Errorf("timezone %q: %w", f.timezone, err)
		}
		loc = l
	}
	kind, err := view.ParseKind(f.view)
	if err != nil {
		return err
	}
	anchor := model.Floating(now)
	if f.date != "" {
		anchor, err = model.ParseDate(f.date)
		if err != nil {
			return fmt.Errorf("date %q: %w", f.date, err)
		}
	}

	events, err := loadFiles(f.files, loc)
	if err != nil {
		return err
	}
	p := view.Project(view.State{Date: anchor, View: kind}, events.List(), view.Options{
		Clock: format.ParseClock(f.clock),
		Now:   model.Floating(now),
	})
	return writeProjection(w, p)
}

// loadFiles expands every VEVENT of the given files into a fresh store.
// Recurrences are cut at the per-event cap since no window applies.
func loadFiles(paths []string, loc *time.Location) (*store.Store, error) {
	events := store.New()
	for _, path := range paths {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		src := ics.Source{ID: filepath.Base(path), URL: "file://" + path}
		parsed, err := ics.ParseICS(src, body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		res, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{DisplayLocation: loc})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		drafts, _ := res.Drafts()
		if _, err := events.AddBatch(drafts, sourceFile); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return events, nil
}

func writeProjection(w io.Writer, p view.Projection) error {
	fmt.Fprintf(w, "%s (%s)\n\n", p.Title, p.View)
	switch {
	case p.Day != nil:
		writeDay(w, p.Day)
	case p.Week != nil:
		writeWeek(w, p.Week)
	case p.Month != nil:
		writeMonth(w, p.Month)
	case p.Year != nil:
		writeYear(w, p.Year)
	}

	fmt.Fprintln(w)
	if len(p.Agenda) == 0 {
		_, err := fmt.Fprintln(w, "No events yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range p.Agenda {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Date, it.Time, it.Event.Title, it.Event.Location)
	}
	return tw.Flush()
}

func writeDay(w io.Writer, d *view.DayView) {
	if len(d.Blocks) == 0 {
		fmt.Fprintln(w, "  (free)")
		return
	}
	for _, b := range d.Blocks {
		fmt.Fprintf(w, "  [%d/%d] %-20s %s\n", b.Column+1, b.Columns, b.Time, b.Event.Title)
	}
}

func writeWeek(w io.Writer, wk *view.WeekView) {
	for _, day := range wk.Days {
		marker := " "
		if day.Today {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %s\n", marker, day.Date.Format("Mon Jan 02"))
		for _, ref := range day.Events {
			fmt.Fprintf(w, "    %-20s %s\n", ref.Time, ref.Event.Title)
		}
	}
}

func writeMonth(w io.Writer, m *view.MonthView) {
	fmt.Fprintln(w, " Sun  Mon  Tue  Wed  Thu  Fri  Sat")
	var row strings.Builder
	for i, c := range m.Cells {
		mark := " "
		switch {
		case c.Overflow > 0:
			mark = "+"
		case c.Chip != nil:
			mark = "*"
		}
		if c.InMonth {
			fmt.Fprintf(&row, " %2d%s ", c.Date.Day(), mark)
		} else {
			row.WriteString("  .  ")
		}
		if i%7 == 6 {
			fmt.Fprintln(w, strings.TrimRight(row.String(), " "))
			row.Reset()
		}
	}
}

func writeYear(w io.Writer, y *view.YearView) {
	for _, m := range y.Months {
		busy := 0
		for _, d := range m.Days {
			if d.HasEvents {
				busy++
			}
		}
		fmt.Fprintf(w, "  %-16s %2d day(s) with events\n", m.Title, busy)
	}
}
