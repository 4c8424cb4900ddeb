// Package sheets mirrors the entry table into a spreadsheet.
package sheets

import (
	"context"
	"time"

	"tracker/internal/core"
)

// Snapshot is the full table plus totals at one point in time.
type Snapshot struct {
	Entries     []core.Entry
	Summary     core.Summary
	GeneratedAt time.Time
}

// SnapshotWriter replaces the mirrored sheet with a snapshot.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, s Snapshot) error
}

// Header is the first row of every written sheet.
var Header = []any{"ID", "Pillar", "Pillar Key", "Task", "Description", "Time Saved (h)", "Money Saved", "Date", "Created At"}

// Rows lays the snapshot out as sheet rows: the header, one row per entry,
// a blank spacer and a totals row. Numbers stay numeric so the sheet can
// sum them.
func Rows(s Snapshot) [][]any {
	rows := make([][]any, 0, len(s.Entries)+3)
	rows = append(rows, Header)
	for _, e := range s.Entries {
		rows = append(rows, []any{
			e.ID,
			e.Pillar,
			core.PillarKey(e.Pillar),
			e.Task,
			e.Description,
			e.TimeSaved,
			e.MoneySaved,
			e.Date.String(),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	rows = append(rows,
		[]any{},
		[]any{"", "Totals", "", "", core.FormatHours(s.Summary.TimeTotal) + " / " + core.FormatMoney(s.Summary.MoneyTotal),
			s.Summary.TimeTotal, s.Summary.MoneyTotal, "", s.GeneratedAt.UTC().Format(time.RFC3339)},
	)
	return rows
}
