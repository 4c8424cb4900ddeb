package gormdb

import (
	"fmt"
	"time"

	"tracker/internal/core"
)

// entryRecord is the gorm model of the entries table.
type entryRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Pillar      string    `gorm:"size:255;not null;index"`
	Task        string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text;not null"`
	TimeSaved   float64   `gorm:"not null;default:0"`
	MoneySaved  float64   `gorm:"not null;default:0"`
	Date        string    `gorm:"size:10;not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (entryRecord) TableName() string {
	return "entries"
}

func (r entryRecord) toEntry() (core.Entry, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d: %w", r.ID, err)
	}
	return core.Entry{
		ID:          r.ID,
		Pillar:      r.Pillar,
		Task:        r.Task,
		Description: r.Description,
		TimeSaved:   r.TimeSaved,
		MoneySaved:  r.MoneySaved,
		Date:        d,
		CreatedAt:   r.CreatedAt.UTC(),
	}, nil
}

// patchColumns maps the supplied fields of p to column updates.
func patchColumns(p core.EntryPatch) map[string]any {
	cols := make(map[string]any)
	if p.Pillar != nil {
		cols["pillar"] = *p.Pillar
	}
	if p.Task != nil {
		cols["task"] = *p.Task
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.TimeSaved != nil {
		cols["time_saved"] = *p.TimeSaved
	}
	if p.MoneySaved != nil {
		cols["money_saved"] = *p.MoneySaved
	}
	if p.Date != nil {
		cols["date"] = p.Date.String()
	}
	return cols
}
