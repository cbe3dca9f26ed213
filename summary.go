package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"portalfetch/portal"
)

func printRunSummary(w io.Writer, res *portal.Result) {
	status := "success"
	if !res.Succeeded() {
		status = "failed"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("portalfetch run " + res.RunID)
	t.AppendHeader(table.Row{"Stage", "Took"})
	for _, timing := range res.Timings {
		t.AppendRow(table.Row{timing.Name, timing.Duration.Round(time.Millisecond)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Status", status})
	t.AppendRow(table.Row{"Last stage", res.Stage})
	if res.Artifact != "" {
		t.AppendRow(table.Row{"Artifact", res.Artifact})
	}
	if res.Output != "" {
		t.AppendRow(table.Row{"Output", res.Output})
		t.AppendRow(table.Row{"Rows (read/written/dropped)", rowCounts(res.RowsRead, res.RowsWritten, res.RowsDropped)})
	}
	if res.Published > 0 {
		t.AppendRow(table.Row{"Published rows", res.Published})
	}
	t.AppendFooter(table.Row{"Total", res.Elapsed.Round(time.Millisecond)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printNormalizeSummary(w io.Writer, artifact string, stats portal.NormalizeStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Artifact", "Output", "Rows (read/written/dropped)"})
	t.AppendRow(table.Row{artifact, stats.Output, rowCounts(stats.RowsRead, stats.RowsWritten, stats.RowsDropped)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func rowCounts(read, written, dropped int) string {
	return fmt.Sprintf("%d/%d/%d", read, written, dropped)
}
