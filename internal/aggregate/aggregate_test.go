package aggregate

import (
	"testing"
	"time"

	"tracker/internal/core"
)

func entry(pillar string, hours, money float64, d core.Date) core.Entry {
	return core.Entry{Pillar: pillar, Task: "t", TimeSaved: hours, MoneySaved: money, Date: d}
}

var now = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestSum(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 5, 100, core.NewDate(2025, 3, 1)),
		entry("HR Operations", 2.5, 0, core.NewDate(2025, 2, 1)),
		entry("Talent Acquisition", -1, 50, core.NewDate(2025, 1, 1)),
	}
	got := Sum(entries)
	if got.Time != 6.5 || got.Money != 150 || got.Pillars != 2 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if s := Summary(nil); s.TimeTotal != 0 || s.MoneyTotal != 0 {
		t.Fatalf("empty summary should be zero, got %+v", s)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		cur, prev float64
		want      int
	}{
		{10, 0, 0},
		{0, 0, 0},
		{15, 10, 50},
		{5, 10, -50},
		{9, 8, 13},
		{1, 8, -87},
		{10, -4, 0},
	}
	for _, tc := range cases {
		if got := PercentChange(tc.cur, tc.prev); got != tc.want {
			t.Fatalf("PercentChange(%v, %v) = %d, want %d", tc.cur, tc.prev, got, tc.want)
		}
	}
}

func TestMonthOverMonth(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 12, 300, core.NewDate(2025, 3, 2)),
		entry("Talent Acquisition", 3, 0, core.NewDate(2025, 3, 20)),
		entry("HR Operations", 10, 200, core.NewDate(2025, 2, 28)),
		entry("HR Operations", 99, 999, core.NewDate(2024, 3, 2)), // a year earlier
	}
	got := MonthOverMonth(entries, now)
	if got.CurrentTime != 15 || got.PreviousTime != 10 {
		t.Fatalf("time partition wrong: %+v", got)
	}
	if got.TimeChange != 50 || got.MoneyChange != 50 {
		t.Fatalf("change wrong: %+v", got)
	}
	if got.PillarChange != 1 {
		t.Fatalf("pillar change %d, want 1", got.PillarChange)
	}
}

func TestMonthOverMonthJanuaryWraps(t *testing.T) {
	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	entries := []core.Entry{
		entry("HR Operations", 4, 0, core.NewDate(2025, 1, 1)),
		entry("HR Operations", 8, 0, core.NewDate(2024, 12, 31)),
	}
	got := MonthOverMonth(entries, jan)
	if got.PreviousTime != 8 || got.TimeChange != -50 {
		t.Fatalf("december not treated as previous month: %+v", got)
	}
}

func TestMonthOverMonthPreviousZero(t *testing.T) {
	entries := []core.Entry{entry("HR Operations", 12, 300, core.NewDate(2025, 3, 2))}
	got := MonthOverMonth(entries, now)
	if got.TimeChange != 0 || got.MoneyChange != 0 {
		t.Fatalf("expected 0%% with empty previous month, got %+v", got)
	}
}

func TestByPillar(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 10, 0, core.NewDate(2025, 3, 1)),
		entry("Talent Acquisition", 5, 0, core.NewDate(2025, 3, 1)),
		entry("People Analytics", 20, 0, core.NewDate(2025, 3, 1)),
		entry("Finance", 1, 0, core.NewDate(2025, 3, 1)),
	}
	bars := ByPillar(entries, MetricTime)
	if len(bars) != 8 {
		t.Fatalf("expected 6 fixed + 2 extra bars, got %d", len(bars))
	}
	if bars[0].Key != "talent-acquisition" || bars[5].Key != "hr-operations" {
		t.Fatalf("fixed order broken: %v", bars)
	}
	if bars[6].Key != "finance" || bars[7].Key != "people-analytics" {
		t.Fatalf("extra keys not sorted: %v", bars[6:])
	}
	if bars[7].Percent != 100 || bars[5].Percent != 50 || bars[0].Percent != 25 {
		t.Fatalf("percentages wrong: %+v", bars)
	}
	if bars[1].Value != 0 || bars[1].Percent != 0 {
		t.Fatalf("empty pillar should be zero: %+v", bars[1])
	}
}

func TestByPillarAllZero(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 3, 0, core.NewDate(2025, 3, 1)),
		entry("Workforce Planning", 2, 0, core.NewDate(2025, 3, 1)),
	}
	for _, b := range ByPillar(entries, MetricMoney) {
		if b.Percent != 0 {
			t.Fatalf("expected 0%% for %s, got %v", b.Key, b.Percent)
		}
	}
	for _, b := range ByPillar(nil, MetricTime) {
		if b.Percent != 0 || b.Value != 0 {
			t.Fatalf("empty input should give zero bars: %+v", b)
		}
	}
}

func TestTrailingMonths(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 8, 0, core.NewDate(2025, 3, 1)),
		entry("HR Operations", 4, 0, core.NewDate(2025, 1, 31)),
		entry("HR Operations", 50, 0, core.NewDate(2024, 12, 1)), // outside the window
	}
	pts := TrailingMonths(entries, now, MetricTime)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	wantKeys := []string{"2025-01", "2025-02", "2025-03"}
	wantLabels := []string{"Jan 2025", "Feb 2025", "Mar 2025"}
	for i, p := range pts {
		if p.Key != wantKeys[i] || p.Label != wantLabels[i] {
			t.Fatalf("point %d = %+v", i, p)
		}
	}
	if pts[2].Percent != 100 || pts[0].Percent != 50 || pts[1].Percent != 0 {
		t.Fatalf("percent wrong: %+v", pts)
	}
}

func TestTrailingMonthsDivisorFloor(t *testing.T) {
	entries := []core.Entry{entry("HR Operations", 0.5, 0, core.NewDate(2025, 3, 1))}
	pts := TrailingMonths(entries, now, MetricTime)
	if pts[2].Percent != 50 {
		t.Fatalf("expected divisor floor of 1, got %v", pts[2].Percent)
	}
	for _, p := range TrailingMonths(nil, now, MetricMoney) {
		if p.Percent != 0 {
			t.Fatalf("empty series should be 0%%: %+v", p)
		}
	}
}

func TestTrend(t *testing.T) {
	cases := []struct {
		kind    TrendKind
		change  int
		current float64
		text    string
		dir     Direction
	}{
		{TrendTime, 12, 10, "+12% this month", Positive},
		{TrendMoney, -30, 10, "-30% this month", Negative},
		{TrendTime, 0, 10, "No change this month", Neutral},
		{TrendMoney, 0, 0, "First month data", Neutral},
		{TrendPillars, 3, 3, "3 new this month", Positive},
		{TrendPillars, -2, 1, "2 fewer this month", Negative},
		{TrendPillars, 0, 2, "No new this month", Neutral},
		{TrendPillars, 0, 0, "First month data", Neutral},
	}
	for _, tc := range cases {
		got := Trend(tc.kind, tc.change, tc.current)
		if got.Text != tc.text || got.Direction != tc.dir {
			t.Fatalf("Trend(%v, %d, %v) = %+v, want %q/%s", tc.kind, tc.change, tc.current, got, tc.text, tc.dir)
		}
	}
}

func TestFilter(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 1, 0, core.NewDate(2025, 3, 10)),
		entry("HR Operations", 1, 0, core.NewDate(2025, 2, 15)),
		entry("Talent Acquisition", 1, 0, core.NewDate(2025, 2, 14)),
		entry("HR Operations", 1, 0, core.NewDate(2024, 12, 20)),
		entry("HR Operations", 1, 0, core.NewDate(2024, 12, 14)),
	}
	cases := []struct {
		pillar string
		preset Preset
		want   int
	}{
		{"", PresetNone, 5},
		{"hr-operations", PresetNone, 4},
		{"", PresetLastMonth, 2},
		{"", PresetLastQuarter, 4},
		{"", PresetThisYear, 3},
		{"talent-acquisition", PresetThisYear, 1},
	}
	for _, tc := range cases {
		got := Filter(entries, tc.pillar, tc.preset, now)
		if len(got) != tc.want {
			t.Fatalf("Filter(%q, %q) returned %d entries, want %d", tc.pillar, tc.preset, len(got), tc.want)
		}
	}
	if _, err := ParsePreset("next-week"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestBuild(t *testing.T) {
	entries := []core.Entry{
		entry("HR Operations", 10, 1000, core.NewDate(2025, 3, 1)),
		entry("HR Operations", 5, 500, core.NewDate(2025, 2, 1)),
	}
	d := Build(entries, now)
	if d.Totals.Time != 15 || d.Totals.Money != 1500 {
		t.Fatalf("totals %+v", d.Totals)
	}
	if d.TimeTrend.Text != "+100% this month" {
		t.Fatalf("time trend %q", d.TimeTrend.Text)
	}
	if d.PillarTrend.Text != "No new this month" {
		t.Fatalf("pillar trend %q", d.PillarTrend.Text)
	}
	if len(d.TimeMonths) != 3 || d.TimeMonths[2].Percent != 100 {
		t.Fatalf("months %+v", d.TimeMonths)
	}
	if MetricMoney.Format(d.Totals.Money) != "$1,500" {
		t.Fatalf("money format %q", MetricMoney.Format(d.Totals.Money))
	}
}
