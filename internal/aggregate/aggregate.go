// Package aggregate folds entries into dashboard metrics. All functions are
// pure; callers pass the reference time explicitly.
package aggregate

import (
	"sort"
	"time"

	"tracker/internal/core"
)

// Metric selects which entry value a breakdown sums.
type Metric int

const (
	MetricTime Metric = iota
	MetricMoney
)

func (m Metric) value(e core.Entry) float64 {
	if m == MetricMoney {
		return e.MoneySaved
	}
	return e.TimeSaved
}

func (m Metric) String() string {
	if m == MetricMoney {
		return "money"
	}
	return "time"
}

// Format renders v the way the dashboard shows this metric.
func (m Metric) Format(v float64) string {
	if m == MetricMoney {
		return core.FormatMoney(v)
	}
	return core.FormatHours(v)
}

type (
	// Totals is the overall sum across entries.
	Totals struct {
		Time    float64 `json:"time"`
		Money   float64 `json:"money"`
		Pillars int     `json:"pillars"`
	}

	// MonthComparison compares the current calendar month to the previous one.
	MonthComparison struct {
		CurrentTime    float64 `json:"currentTime"`
		PreviousTime   float64 `json:"previousTime"`
		CurrentMoney   float64 `json:"currentMoney"`
		PreviousMoney  float64 `json:"previousMoney"`
		CurrentPillars int     `json:"currentPillars"`
		PrevPillars    int     `json:"previousPillars"`

		TimeChange   int `json:"timeChange"`   // percent
		MoneyChange  int `json:"moneyChange"`  // percent
		PillarChange int `json:"pillarChange"` // signed difference
	}

	// Bar is one category in a per-pillar breakdown.
	Bar struct {
		Key     string  `json:"key"`
		Label   string  `json:"label"`
		Value   float64 `json:"value"`
		Percent float64 `json:"percent"`
	}

	// MonthPoint is one bucket of a trailing monthly series.
	MonthPoint struct {
		Key     string  `json:"key"`
		Label   string  `json:"label"`
		Value   float64 `json:"value"`
		Percent float64 `json:"percent"`
	}
)

// TrailingWindow is the number of months in a trailing series.
const TrailingWindow = 3

// Sum adds up time and money and counts distinct pillars.
func Sum(entries []core.Entry) Totals {
	var t Totals
	for _, e := range entries {
		t.Time += e.TimeSaved
		t.Money += e.MoneySaved
	}
	t.Pillars = DistinctPillars(entries)
	return t
}

// Summary returns the same totals in the API's summary shape.
func Summary(entries []core.Entry) core.Summary {
	t := Sum(entries)
	return core.Summary{TimeTotal: t.Time, MoneyTotal: t.Money}
}

// DistinctPillars counts distinct raw pillar strings.
func DistinctPillars(entries []core.Entry) int {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Pillar] = struct{}{}
	}
	return len(seen)
}

// PercentChange returns round((cur-prev)/prev*100), or 0 when prev <= 0.
func PercentChange(cur, prev float64) int {
	if prev <= 0 {
		return 0
	}
	return int(core.RoundHalfUp((cur - prev) / prev * 100))
}

// InMonth returns the entries dated in the given calendar month.
func InMonth(entries []core.Entry, year int, month time.Month) []core.Entry {
	var out []core.Entry
	for _, e := range entries {
		if e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out
}

// MonthOverMonth partitions entries into the month of now and the month
// before it and compares them.
func MonthOverMonth(entries []core.Entry, now time.Time) MonthComparison {
	curStart := monthStart(now)
	prevStart := curStart.AddDate(0, -1, 0)

	cur := Sum(InMonth(entries, curStart.Year(), curStart.Month()))
	prev := Sum(InMonth(entries, prevStart.Year(), prevStart.Month()))

	return MonthComparison{
		CurrentTime:    cur.Time,
		PreviousTime:   prev.Time,
		CurrentMoney:   cur.Money,
		PreviousMoney:  prev.Money,
		CurrentPillars: cur.Pillars,
		PrevPillars:    prev.Pillars,
		TimeChange:     PercentChange(cur.Time, prev.Time),
		MoneyChange:    PercentChange(cur.Money, prev.Money),
		PillarChange:   cur.Pillars - prev.Pillars,
	}
}

// ByPillar groups entries by pillar key. Bars for the fixed pillars come
// first in table order, followed by any other keys sorted.
func ByPillar(entries []core.Entry, m Metric) []Bar {
	totals := make(map[string]float64)
	for _, e := range entries {
		totals[core.PillarKey(e.Pillar)] += m.value(e)
	}

	bars := make([]Bar, 0, len(totals)+6)
	fixed := make(map[string]bool)
	for _, p := range core.Pillars() {
		fixed[p.Key()] = true
		bars = append(bars, Bar{Key: p.Key(), Label: p.DisplayName(), Value: totals[p.Key()]})
	}
	var extra []string
	for k := range totals {
		if !fixed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		bars = append(bars, Bar{Key: k, Label: core.PillarDisplayName(k), Value: totals[k]})
	}

	// The max runs over groups that hold entries; an empty breakdown stays at 0.
	top, seen := 0.0, false
	for _, v := range totals {
		if !seen || v > top {
			top, seen = v, true
		}
	}
	if top > 0 {
		for i := range bars {
			bars[i].Percent = bars[i].Value / top * 100
		}
	}
	return bars
}

// TrailingMonths returns the month of now and the months before it, oldest
// first. Percent is relative to the largest displayed value, floored at 1.
func TrailingMonths(entries []core.Entry, now time.Time, m Metric) []MonthPoint {
	totals := make(map[string]float64)
	for _, e := range entries {
		totals[e.Date.MonthKey()] += m.value(e)
	}

	start := monthStart(now)
	points := make([]MonthPoint, 0, TrailingWindow)
	for i := TrailingWindow - 1; i >= 0; i-- {
		d := start.AddDate(0, -i, 0)
		key := core.MonthKey(d.Year(), d.Month())
		points = append(points, MonthPoint{Key: key, Label: d.Format("Jan 2006"), Value: totals[key]})
	}

	divisor := 1.0
	for _, p := range points {
		if p.Value > divisor {
			divisor = p.Value
		}
	}
	for i := range points {
		points[i].Percent = points[i].Value / divisor * 100
	}
	return points
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
