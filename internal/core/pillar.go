package core

import (
	"regexp"
	"strings"
)

// Pillar is one of the fixed HR function categories entries are grouped by.
type Pillar int

const (
	TalentAcquisition Pillar = iota
	LearningDevelopment
	PerformanceManagement
	WorkforcePlanning
	EmployeeExperience
	HROperations

	pillarCount
)

type pillarInfo struct {
	key  string
	name string
}

// pillarTable is indexed by Pillar; its length is tied to pillarCount.
var pillarTable = [pillarCount]pillarInfo{
	TalentAcquisition:     {"talent-acquisition", "Talent Acquisition"},
	LearningDevelopment:   {"learning-development", "Learning & Development"},
	PerformanceManagement: {"performance-management", "Performance Management"},
	WorkforcePlanning:     {"workforce-planning", "Workforce Planning"},
	EmployeeExperience:    {"employee-experience", "Employee Experience"},
	HROperations:          {"hr-operations", "HR Operations"},
}

var (
	pillarsByKey  = make(map[string]Pillar, pillarCount)
	pillarsByName = make(map[string]Pillar, pillarCount)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

func init() {
	for i, info := range pillarTable {
		pillarsByKey[info.key] = Pillar(i)
		pillarsByName[info.name] = Pillar(i)
	}
}

// Pillars returns every fixed pillar in display order.
func Pillars() []Pillar {
	out := make([]Pillar, 0, pillarCount)
	for p := Pillar(0); p < pillarCount; p++ {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is one of the fixed pillars.
func (p Pillar) Valid() bool {
	return p >= 0 && p < pillarCount
}

// Key returns the machine-readable slug.
func (p Pillar) Key() string {
	if !p.Valid() {
		return ""
	}
	return pillarTable[p].key
}

// DisplayName returns the human-readable label.
func (p Pillar) DisplayName() string {
	if !p.Valid() {
		return ""
	}
	return pillarTable[p].name
}

func (p Pillar) String() string {
	return p.DisplayName()
}

// LookupPillarKey finds the fixed pillar with the given slug.
func LookupPillarKey(key string) (Pillar, bool) {
	p, ok := pillarsByKey[key]
	return p, ok
}

// LookupPillarName finds the fixed pillar with the given display name.
func LookupPillarName(name string) (Pillar, bool) {
	p, ok := pillarsByName[name]
	return p, ok
}

// PillarKey maps a display name to its slug. Names outside the fixed table
// are lower-cased with whitespace runs replaced by "-".
func PillarKey(name string) string {
	if p, ok := pillarsByName[name]; ok {
		return p.Key()
	}
	return Slugify(name)
}

// PillarDisplayName maps a slug to its label, returning unknown keys as is.
func PillarDisplayName(key string) string {
	if p, ok := pillarsByKey[key]; ok {
		return p.DisplayName()
	}
	return key
}

// Slugify lower-cases s and hyphenates whitespace.
func Slugify(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(s), "-")
}
