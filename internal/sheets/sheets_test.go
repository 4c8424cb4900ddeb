package sheets

import (
	"testing"
	"time"

	"tracker/internal/core"
)

func TestRows(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	snap := Snapshot{
		Entries: []core.Entry{
			{ID: 2, Pillar: "HR Operations", Task: "Payroll", TimeSaved: 5, MoneySaved: 1234.4, Date: core.NewDate(2025, 3, 1), CreatedAt: created},
			{ID: 1, Pillar: "Custom Pillar", Task: "Other", TimeSaved: 1.5, Date: core.NewDate(2025, 2, 1), CreatedAt: created},
		},
		Summary:     core.Summary{TimeTotal: 6.5, MoneyTotal: 1234.4},
		GeneratedAt: created.Add(time.Hour),
	}

	rows := Rows(snap)
	if len(rows) != 5 {
		t.Fatalf("expected header + 2 entries + spacer + totals, got %d rows", len(rows))
	}
	if rows[0][0] != "ID" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][2] != "hr-operations" || rows[2][2] != "custom-pillar" {
		t.Fatalf("pillar keys = %v / %v", rows[1][2], rows[2][2])
	}
	if rows[1][7] != "2025-03-01" || rows[1][8] != "2025-03-01T09:30:00Z" {
		t.Fatalf("date columns = %v", rows[1])
	}
	if len(rows[3]) != 0 {
		t.Fatalf("spacer row = %v", rows[3])
	}
	totals := rows[4]
	if totals[1] != "Totals" || totals[4] != "6.5h / $1,234" || totals[5] != 6.5 {
		t.Fatalf("totals row = %v", totals)
	}
}

func TestRowsEmpty(t *testing.T) {
	rows := Rows(Snapshot{})
	if len(rows) != 3 {
		t.Fatalf("empty snapshot should still carry header and totals, got %d", len(rows))
	}
}
