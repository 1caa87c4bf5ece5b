package checklist

import (
	"testing"
	"time"
)

func TestRecomputeDerived(t *testing.T) {
	rec := newTestRecord(TailgateStacker, 1.2)
	rec.Capacity = 1000
	rec.DateInspection = "2025-01-31"
	_ = rec.SetStatus("docs-0", StatusCompliant)
	_ = rec.SetStatus("docs-1", StatusNotApplicable)
	_ = rec.SetStatus("docs-2", StatusReservation)

	v := RecomputeDerived(rec, testNow)

	if v.EquipmentLabel != "Hayon Gerbeur" {
		t.Fatalf("label = %q", v.EquipmentLabel)
	}
	if len(v.Required) != 22 {
		t.Fatalf("required = %d", len(v.Required))
	}
	if v.Loads.Dynamic != 1100 || v.Loads.Static != 1250 {
		t.Fatalf("loads = %+v", v.Loads)
	}
	if v.DerivedVerdict != VerdictReservations {
		t.Fatalf("derived verdict = %q", v.DerivedVerdict)
	}
	// Stackers are inspected every 6 months.
	if v.NextInspectionDue != "2025-07-31" {
		t.Fatalf("next due = %s", v.NextInspectionDue)
	}
	if !v.ShowsPlate {
		t.Fatal("tailgate shows plate")
	}

	docs := v.Progress[0]
	if docs.Section != SectionDocuments || docs.Completed != 2 || docs.Total != 6 || docs.Complete || !docs.Visible {
		t.Fatalf("docs progress = %+v", docs)
	}
	for _, p := range v.Progress {
		if p.Section == SectionChassis && p.Visible {
			t.Fatal("chassis should be hidden for a stacker")
		}
	}
	if rec.Verdict != VerdictUnset {
		t.Fatal("RecomputeDerived must not apply the verdict")
	}
}

func TestRecomputeDerived_NoTypeNoDate(t *testing.T) {
	rec := newTestRecord("", 0)
	rec.DateInspection = ""
	v := RecomputeDerived(rec, testNow)
	if len(v.Required) != 0 {
		t.Fatalf("nothing is required without a type, got %v", v.Required)
	}
	if v.Validation.Code != CodeNoEquipmentType {
		t.Fatalf("code = %q", v.Validation.Code)
	}
	if v.NextInspectionDue != testNow.AddDate(0, 12, 0).Format(DateLayout) {
		t.Fatalf("next due = %s", v.NextInspectionDue)
	}
}

func TestNextInspectionDue(t *testing.T) {
	d := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)
	if got := NextInspectionDue(TableMobile, d); !got.Equal(d.AddDate(0, 6, 0)) {
		t.Fatalf("mobile table = %v", got)
	}
	if got := NextInspectionDue(TailgateSide, d); !got.Equal(d.AddDate(1, 0, 0)) {
		t.Fatalf("side tailgate = %v", got)
	}
	if got := NextInspectionDue("inconnu", d); !got.Equal(d.AddDate(1, 0, 0)) {
		t.Fatalf("unknown type = %v", got)
	}
}

func TestProfileFor(t *testing.T) {
	p, ok := ProfileFor(TableFixed)
	if !ok || p.Applies(SectionChassis) || !p.Applies(SectionStabilisers) {
		t.Fatalf("fixed table profile = %+v", p)
	}
	if _, ok := ProfileFor(""); ok {
		t.Fatal("empty type has no profile")
	}
	if len(Profiles()) != 7 {
		t.Fatalf("profiles = %d", len(Profiles()))
	}
}
