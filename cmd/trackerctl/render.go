package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tracker/internal/aggregate"
	"tracker/internal/core"
)

const barWidth = 20

func renderDashboard(w io.Writer, d aggregate.Dashboard) {
	fmt.Fprintln(w, "AI Impact Dashboard")
	fmt.Fprintln(w)
	renderCard(w, "Total Time Saved", core.FormatHours(d.Totals.Time)+"/month", d.TimeTrend)
	renderCard(w, "Total Money Saved", core.FormatMoney(d.Totals.Money)+"/month", d.MoneyTrend)
	renderCard(w, "Active Pillars", fmt.Sprintf("%d", d.Totals.Pillars), d.PillarTrend)

	fmt.Fprintln(w)
	renderBars(w, "Time saved by pillar", d.TimeByPillar, aggregate.MetricTime)
	fmt.Fprintln(w)
	renderBars(w, "Money saved by pillar", d.MoneyByPillar, aggregate.MetricMoney)
	fmt.Fprintln(w)
	renderMonths(w, "Time saved, last 3 months", d.TimeMonths, aggregate.MetricTime)
	fmt.Fprintln(w)
	renderMonths(w, "Money saved, last 3 months", d.MoneyMonths, aggregate.MetricMoney)
}

func renderCard(w io.Writer, title, value string, trend aggregate.TrendIndicator) {
	fmt.Fprintf(w, "%-18s %-14s %s%s\n", title, value, arrow(trend.Direction), trend.Text)
}

func arrow(d aggregate.Direction) string {
	switch d {
	case aggregate.Positive:
		return "▲ "
	case aggregate.Negative:
		return "▼ "
	}
	return "  "
}

func renderBars(w io.Writer, title string, bars []aggregate.Bar, m aggregate.Metric) {
	fmt.Fprintln(w, title)
	if len(bars) == 0 {
		fmt.Fprintln(w, "  no data")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, b := range bars {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", b.Label, bar(b.Percent), m.Format(b.Value))
	}
	tw.Flush()
}

func renderMonths(w io.Writer, title string, points []aggregate.MonthPoint, m aggregate.Metric) {
	fmt.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range points {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Label, bar(p.Percent), m.Format(p.Value))
	}
	tw.Flush()
}

// bar draws percent (0-100) as a fixed-width gauge.
func bar(percent float64) string {
	filled := int(percent/100*barWidth + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("·", barWidth-filled)
}

func renderEntries(w io.Writer, entries []core.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPILLAR\tTASK\tTIME\tMONEY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, e.Pillar, e.Task, core.FormatHours(e.TimeSaved), core.FormatMoney(e.MoneySaved))
	}
	tw.Flush()
}

func renderSummary(w io.Writer, s core.Summary) {
	fmt.Fprintf(w, "Time saved: %s/month\nMoney saved: %s/month\n", core.FormatHours(s.TimeTotal), core.FormatMoney(s.MoneyTotal))
}
