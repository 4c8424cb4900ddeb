package core

import "testing"

func TestPillarTable(t *testing.T) {
	ps := Pillars()
	if len(ps) != 6 {
		t.Fatalf("expected 6 pillars, got %d", len(ps))
	}
	if ps[0] != TalentAcquisition || ps[5] != HROperations {
		t.Fatalf("unexpected order: %v", ps)
	}
	if LearningDevelopment.DisplayName() != "Learning & Development" {
		t.Fatalf("got %q", LearningDevelopment.DisplayName())
	}
	if Pillar(99).Valid() || Pillar(99).Key() != "" {
		t.Fatal("out-of-range pillar should be invalid")
	}
}

func TestPillarKeyRoundTrip(t *testing.T) {
	for _, p := range Pillars() {
		if got := PillarKey(PillarDisplayName(p.Key())); got != p.Key() {
			t.Fatalf("round trip %s -> %s", p.Key(), got)
		}
	}
	for _, k := range []string{"finance", "people-analytics"} {
		if got := PillarKey(PillarDisplayName(k)); got != k {
			t.Fatalf("round trip unknown %s -> %s", k, got)
		}
	}
}

func TestPillarKeyFallback(t *testing.T) {
	cases := map[string]string{
		"HR Operations":       "hr-operations",
		"People  Analytics":   "people-analytics",
		"Finance\tand Budget": "finance-and-budget",
		"Legal":               "legal",
	}
	for in, want := range cases {
		if got := PillarKey(in); got != want {
			t.Fatalf("PillarKey(%q) = %q, want %q", in, got, want)
		}
	}
	if PillarDisplayName("legal") != "legal" {
		t.Fatal("unknown key should pass through")
	}
}
