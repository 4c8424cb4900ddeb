package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-31", "2025-01-31", true},
		{" 2024-02-29 ", "2024-02-29", true},
		{"2025-03-04T10:20:30Z", "2025-03-04", true},
		{"2025-13-01", "", false},
		{"31/01/2025", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseDate(%q) err=%v, want ok=%v", tc.in, err, tc.ok)
		}
		if tc.ok && got.String() != tc.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-06-01"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.D.Year() != 2025 || v.D.Month() != time.June || v.D.Day() != 1 {
		t.Fatalf("unexpected date %v", v.D)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2025-06-01"}` {
		t.Fatalf("got %s", b)
	}

	if err := json.Unmarshal([]byte(`{"d":12}`), &v); err == nil {
		t.Fatal("expected error for numeric date")
	}
}

func TestMonthKey(t *testing.T) {
	if got := NewDate(2025, time.March, 9).MonthKey(); got != "2025-03" {
		t.Fatalf("got %s", got)
	}
}

func TestNewEntryValidate(t *testing.T) {
	good := NewEntry{Pillar: "HR Operations", Task: "Onboarding", TimeSaved: 2, Date: NewDate(2025, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*NewEntry)
		want error
	}{
		{"empty pillar", func(e *NewEntry) { e.Pillar = "  " }, ErrEmptyPillar},
		{"empty task", func(e *NewEntry) { e.Task = "" }, ErrEmptyTask},
		{"missing date", func(e *NewEntry) { e.Date = Date{} }, ErrMissingDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mod(&e)
			err := e.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry in chain, got %v", err)
			}
		})
	}
}

func TestEntryPatch(t *testing.T) {
	var empty EntryPatch
	if !empty.IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
	if err := empty.Validate(); !errors.Is(err, ErrNoFields) {
		t.Fatalf("got %v", err)
	}

	blank := ""
	if err := (EntryPatch{Task: &blank}).Validate(); !errors.Is(err, ErrEmptyTask) {
		t.Fatalf("got %v", err)
	}

	money := 300.0
	desc := "updated"
	p := EntryPatch{MoneySaved: &money, Description: &desc}
	orig := Entry{ID: 7, Pillar: "Talent Acquisition", Task: "Screening", TimeSaved: 4, MoneySaved: 100}
	got := p.Apply(orig)
	if got.MoneySaved != 300 || got.Description != "updated" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.ID != 7 || got.Pillar != orig.Pillar || got.Task != orig.Task || got.TimeSaved != 4 {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestEntryPatchJSONNullIsAbsent(t *testing.T) {
	var p EntryPatch
	if err := json.Unmarshal([]byte(`{"task":null,"unknown":1}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.IsEmpty() {
		t.Fatalf("expected empty patch, got %+v", p)
	}
}

func TestListFilterMatches(t *testing.T) {
	e := Entry{Pillar: "HR Operations", Date: NewDate(2025, 5, 10)}
	cases := []struct {
		f    ListFilter
		want bool
	}{
		{ListFilter{}, true},
		{ListFilter{Pillar: "HR Operations"}, true},
		{ListFilter{Pillar: "Workforce Planning"}, false},
		{ListFilter{Since: NewDate(2025, 5, 10)}, true},
		{ListFilter{Since: NewDate(2025, 5, 11)}, false},
	}
	for i, tc := range cases {
		if got := tc.f.Matches(e); got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}

func TestCodedError(t *testing.T) {
	err := WithCode(CodeDBRead, errors.New("disk gone"))
	if CodeOf(err) != CodeDBRead {
		t.Fatalf("got %q", CodeOf(err))
	}
	wrapped := errors.Join(errors.New("outer"), err)
	if CodeOf(wrapped) != CodeDBRead {
		t.Fatalf("code lost through wrapping")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatal("plain error should have no code")
	}
}
