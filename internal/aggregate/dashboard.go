package aggregate

import (
	"fmt"
	"time"

	"tracker/internal/core"
)

// TrendKind selects the wording of a trend indicator.
type TrendKind int

const (
	TrendTime TrendKind = iota
	TrendMoney
	TrendPillars
)

// Direction classifies a trend for rendering.
type Direction string

const (
	Positive Direction = "positive"
	Negative Direction = "negative"
	Neutral  Direction = "neutral"
)

// TrendIndicator is the short text shown under a dashboard card.
type TrendIndicator struct {
	Text      string    `json:"text"`
	Direction Direction `json:"direction"`
}

// Trend words a month-over-month change. For time and money change is a
// percentage; for pillars it is the difference in distinct counts. current
// is this month's value and decides between "no change" and "first month".
func Trend(kind TrendKind, change int, current float64) TrendIndicator {
	if kind == TrendPillars {
		switch {
		case change > 0:
			return TrendIndicator{fmt.Sprintf("%d new this month", change), Positive}
		case change < 0:
			return TrendIndicator{fmt.Sprintf("%d fewer this month", -change), Negative}
		case current > 0:
			return TrendIndicator{"No new this month", Neutral}
		}
		return TrendIndicator{"First month data", Neutral}
	}

	switch {
	case change > 0:
		return TrendIndicator{fmt.Sprintf("+%d%% this month", change), Positive}
	case change < 0:
		return TrendIndicator{fmt.Sprintf("%d%% this month", change), Negative}
	case current > 0:
		return TrendIndicator{"No change this month", Neutral}
	}
	return TrendIndicator{"First month data", Neutral}
}

// Dashboard is every derived figure the overview screen needs.
type Dashboard struct {
	Totals      Totals          `json:"totals"`
	Month       MonthComparison `json:"month"`
	TimeTrend   TrendIndicator  `json:"timeTrend"`
	MoneyTrend  TrendIndicator  `json:"moneyTrend"`
	PillarTrend TrendIndicator  `json:"pillarTrend"`

	TimeByPillar  []Bar        `json:"timeByPillar"`
	MoneyByPillar []Bar        `json:"moneyByPillar"`
	TimeMonths    []MonthPoint `json:"timeMonths"`
	MoneyMonths   []MonthPoint `json:"moneyMonths"`
}

// Build computes the full dashboard for entries as of now.
func Build(entries []core.Entry, now time.Time) Dashboard {
	mom := MonthOverMonth(entries, now)
	return Dashboard{
		Totals:        Sum(entries),
		Month:         mom,
		TimeTrend:     Trend(TrendTime, mom.TimeChange, mom.CurrentTime),
		MoneyTrend:    Trend(TrendMoney, mom.MoneyChange, mom.CurrentMoney),
		PillarTrend:   Trend(TrendPillars, mom.PillarChange, float64(mom.CurrentPillars)),
		TimeByPillar:  ByPillar(entries, MetricTime),
		MoneyByPillar: ByPillar(entries, MetricMoney),
		TimeMonths:    TrailingMonths(entries, now, MetricTime),
		MoneyMonths:   TrailingMonths(entries, now, MetricMoney),
	}
}

// Preset is a history date filter.
type Preset string

const (
	PresetNone        Preset = ""
	PresetLastMonth   Preset = "last-month"
	PresetLastQuarter Preset = "last-quarter"
	PresetThisYear    Preset = "this-year"
)

// ParsePreset validates a preset name.
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(s); p {
	case PresetNone, PresetLastMonth, PresetLastQuarter, PresetThisYear:
		return p, nil
	}
	return PresetNone, fmt.Errorf("unknown date filter %q", s)
}

// Filter narrows entries for the history view. An empty pillarKey keeps all
// pillars; entries are matched on the key derived from their pillar name.
func Filter(entries []core.Entry, pillarKey string, preset Preset, now time.Time) []core.Entry {
	today := core.DateOf(now)
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if pillarKey != "" && core.PillarKey(e.Pillar) != pillarKey {
			continue
		}
		if !matchPreset(e.Date, preset, today) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchPreset(d core.Date, preset Preset, today core.Date) bool {
	switch preset {
	case PresetLastMonth:
		return !d.Before(today.AddDate(0, -1, 0))
	case PresetLastQuarter:
		return !d.Before(today.AddDate(0, -3, 0))
	case PresetThisYear:
		return d.Year() == today.Year()
	}
	return true
}
