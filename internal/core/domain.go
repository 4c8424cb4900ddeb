package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage form of a calendar date.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date without a time of day. The wrapped time is
	// always midnight UTC.
	Date struct {
		time.Time
	}

	// Entry is one persisted record of a claimed AI-driven saving.
	Entry struct {
		ID          int64     `json:"id"`
		Pillar      string    `json:"pillar"`
		Task        string    `json:"task"`
		Description string    `json:"description"`
		TimeSaved   float64   `json:"timeSaved"`  // hours per month
		MoneySaved  float64   `json:"moneySaved"` // currency units per month
		Date        Date      `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// NewEntry carries the caller-supplied fields of an entry before the
	// store assigns ID and CreatedAt.
	NewEntry struct {
		Pillar      string
		Task        string
		Description string
		TimeSaved   float64
		MoneySaved  float64
		Date        Date
	}

	// EntryPatch lists the fields an update replaces. Nil means untouched.
	EntryPatch struct {
		Pillar      *string  `json:"pillar,omitempty"`
		Task        *string  `json:"task,omitempty"`
		Description *string  `json:"description,omitempty"`
		TimeSaved   *float64 `json:"timeSaved,omitempty"`
		MoneySaved  *float64 `json:"moneySaved,omitempty"`
		Date        *Date    `json:"date,omitempty"`
	}

	// ListFilter narrows a listing. Zero values disable a filter.
	ListFilter struct {
		Pillar string
		Since  Date
	}

	// Summary is the aggregate over all entries.
	Summary struct {
		TimeTotal  float64 `json:"timeTotal"`
		MoneyTotal float64 `json:"moneyTotal"`
	}
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrNoFields     = errors.New("no fields to update")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrEmptyPillar  = fmt.Errorf("%w: empty pillar", ErrInvalidEntry)
	ErrEmptyTask    = fmt.Errorf("%w: empty task", ErrInvalidEntry)
	ErrMissingDate  = fmt.Errorf("%w: missing date", ErrInvalidEntry)
)

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts YYYY-MM-DD and, for callers that send full timestamps,
// RFC 3339 (the date part is kept).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date falls in.
func (d Date) MonthKey() string {
	return MonthKey(d.Year(), d.Month())
}

// MonthKey formats a year and month as YYYY-MM.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the presence rules for a new entry.
func (e NewEntry) Validate() error {
	if strings.TrimSpace(e.Pillar) == "" {
		return ErrEmptyPillar
	}
	if strings.TrimSpace(e.Task) == "" {
		return ErrEmptyTask
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// IsEmpty reports whether the patch would change nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Pillar == nil && p.Task == nil && p.Description == nil &&
		p.TimeSaved == nil && p.MoneySaved == nil && p.Date == nil
}

// Validate rejects a patch that blanks a required field.
func (p EntryPatch) Validate() error {
	if p.IsEmpty() {
		return ErrNoFields
	}
	if p.Pillar != nil && strings.TrimSpace(*p.Pillar) == "" {
		return ErrEmptyPillar
	}
	if p.Task != nil && strings.TrimSpace(*p.Task) == "" {
		return ErrEmptyTask
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Apply returns a copy of e with the patch fields replaced.
func (p EntryPatch) Apply(e Entry) Entry {
	if p.Pillar != nil {
		e.Pillar = *p.Pillar
	}
	if p.Task != nil {
		e.Task = *p.Task
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.TimeSaved != nil {
		e.TimeSaved = *p.TimeSaved
	}
	if p.MoneySaved != nil {
		e.MoneySaved = *p.MoneySaved
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	return e
}

// Matches reports whether e passes the filter.
func (f ListFilter) Matches(e Entry) bool {
	if f.Pillar != "" && e.Pillar != f.Pillar {
		return false
	}
	if !f.Since.IsZero() && e.Date.Before(f.Since.Time) {
		return false
	}
	return true
}
