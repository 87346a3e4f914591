package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Mohammedmarzuk17/EduShield/internal/bootstrap"
	"github.com/Mohammedmarzuk17/EduShield/internal/domain"
)

// renderReport prints the per-source summary, when the report has one,
// and the artifacts that were written.
func renderReport(w io.Writer, report *bootstrap.Report) {
	if report.Summary != nil {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle("Sources")
		t.AppendHeader(table.Row{"Source", "Feeds", "Candidates", "Accepted", "Guessed", "Rejected", "Unavailable", "Decode errors"})

		for _, s := range report.Summary.Stats() {
			t.AppendRow(table.Row{
				s.Source,
				s.Feeds,
				s.Candidates,
				s.Accepted,
				s.Guessed(),
				s.Rejected(),
				s.Errors[domain.KindFetchUnavailable],
				s.Errors[domain.KindDecodeError],
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", "", "Duration", report.Summary.Duration().Round(time.Millisecond)})
		t.Render()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Artifacts")
	t.AppendHeader(table.Row{"Source", "File", "Domains"})
	for _, a := range report.Artifacts {
		t.AppendRow(table.Row{a.Source, a.File, len(a.Domains)})
	}
	t.AppendFooter(table.Row{"Snapshot", report.Snapshot.GeneratedAt.Format(time.RFC3339), len(report.Snapshot.Domains)})
	t.Render()

	if err := report.PublishError(); err != nil {
		fmt.Fprintf(w, "warning: publishing failed: %v\n", err)
	}
}
