package checklist

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

func newTestRecord(t EquipmentType, height float64) *Record {
	rec := NewRecord(testNow)
	rec.EquipmentType = t
	rec.Height = Measure(height)
	return rec
}

func TestValidate_NoEquipmentType(t *testing.T) {
	rec := newTestRecord("", 1.8)
	res := Validate(rec)
	if res.Valid {
		t.Fatal("record without equipment type must be invalid")
	}
	if res.Code != CodeNoEquipmentType {
		t.Fatalf("code = %q, want %q", res.Code, CodeNoEquipmentType)
	}
	if len(res.Missing) != 0 {
		t.Fatalf("missing should be empty, got %d", len(res.Missing))
	}
	if res.Message == "" {
		t.Fatal("expected a dedicated message")
	}
}

func TestValidate_FreshRecordMissesAllRequired(t *testing.T) {
	tests := []struct {
		typ    EquipmentType
		height float64
		want   int
	}{
		{TailgateFolding, 0, 17},
		{TailgateFolding, 1.8, 20},
		{TableFixed, 2, 23},
		{TableMobile, 1.8, 28},
		{TailgateStacker, 1.6, 22},
	}
	for _, tt := range tests {
		res := Validate(newTestRecord(tt.typ, tt.height))
		if res.Valid {
			t.Errorf("%s: fresh record should be invalid", tt.typ)
		}
		if res.Code != CodeIncomplete {
			t.Errorf("%s: code = %q", tt.typ, res.Code)
		}
		if len(res.Missing) != tt.want {
			t.Errorf("%s h=%v: %d missing, want %d", tt.typ, tt.height, len(res.Missing), tt.want)
		}
	}
}

func TestValidate_MissingCarriesLabelAndSection(t *testing.T) {
	res := Validate(newTestRecord(TailgateFolding, 0))
	first := res.Missing[0]
	want := MissingItem{ID: "docs-0", Label: "Plaque signalétique lisible et complète", Section: SectionDocuments}
	if first != want {
		t.Fatalf("first missing = %+v, want %+v", first, want)
	}
}

func TestValidate_AnsweringRequiredItemsMakesValid(t *testing.T) {
	statuses := []Status{StatusCompliant, StatusNotApplicable, StatusReservation, StatusBlocking}
	for _, typ := range []EquipmentType{TailgateFolding, TailgateStacker, TableFixed, TableMobile} {
		rec := newTestRecord(typ, 1.8)
		for i, m := range Validate(rec).Missing {
			if err := rec.SetStatus(m.ID, statuses[i%len(statuses)]); err != nil {
				t.Fatalf("SetStatus(%s): %v", m.ID, err)
			}
		}
		res := Validate(rec)
		if !res.Valid || len(res.Missing) != 0 {
			t.Fatalf("%s: expected valid after answering, got %+v", typ, res)
		}
		if res.Code != CodeOK {
			t.Fatalf("%s: code = %q", typ, res.Code)
		}
	}
}

func TestValidate_HiddenSectionsAreIgnored(t *testing.T) {
	rec := newTestRecord(TailgateFolding, 1.8)
	for _, m := range Validate(rec).Missing {
		_ = rec.SetStatus(m.ID, StatusCompliant)
	}
	// Lowering the height hides the guard rails: still valid.
	rec.Height = 1.2
	if res := Validate(rec); !res.Valid {
		t.Fatalf("expected valid, got %+v", res.Missing)
	}
	// Switching to a mobile table shows chassis, stabilisers, energy, station.
	rec.EquipmentType = TableMobile
	res := Validate(rec)
	if res.Valid {
		t.Fatal("mobile table sections should now be missing")
	}
	if len(res.Missing) != 11 {
		t.Fatalf("missing = %d, want 11", len(res.Missing))
	}
}

func TestValidate_NonConformityWithoutNoteIsWarningOnly(t *testing.T) {
	rec := newTestRecord(TailgateFolding, 0)
	for _, m := range Validate(rec).Missing {
		_ = rec.SetStatus(m.ID, StatusCompliant)
	}
	_ = rec.SetStatus("securite-0", StatusReservation)
	_ = rec.SetStatus("securite-1", StatusBlocking)
	_ = rec.SetNote("securite-1", "Fuite sur le limiteur")

	res := Validate(rec)
	if !res.Valid {
		t.Fatal("missing note must not invalidate the record")
	}
	if len(res.Warnings) != 1 || res.Warnings[0].ID != "securite-0" {
		t.Fatalf("warnings = %+v", res.Warnings)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	rec := newTestRecord(TableMobile, 1.8)
	_ = rec.SetStatus("docs-0", StatusReservation)
	before := rec.Clone()
	first := Validate(rec)
	second := Validate(rec)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("Validate is not idempotent")
	}
	if !reflect.DeepEqual(before, rec) {
		t.Fatal("Validate mutated the record")
	}
}

func TestVisibleSections(t *testing.T) {
	base := []SectionID{SectionDocuments, SectionVisual, SectionSafety, SectionTests}
	tests := []struct {
		name   string
		typ    EquipmentType
		height float64
		want   []SectionID
	}{
		{"folding tailgate", TailgateFolding, 0, base},
		{"mobile table high", TableMobile, 1.8, append(append([]SectionID{}, base...),
			SectionChassis, SectionStabilisers, SectionEnergy, SectionStation, SectionGuardRails)},
		{"fixed table high", TableFixed, 1.8, append(append([]SectionID{}, base...),
			SectionStabilisers, SectionEnergy, SectionGuardRails)},
		{"stacker", TailgateStacker, 1.6, append(append([]SectionID{}, base...), SectionEnergy, SectionStation)},
		{"no type", "", 1.9, append(append([]SectionID{}, base...), SectionGuardRails)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleSections(tt.typ, tt.height)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("VisibleSections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScenario_MobileAndFixedTables(t *testing.T) {
	rec := newTestRecord(TableMobile, 1.8)
	view := RecomputeDerived(rec, testNow)
	if !contains(view.VisibleSections, SectionGuardRails) || !contains(view.VisibleSections, SectionChassis) {
		t.Fatalf("mobile table at 1.8m should show guard rails and chassis: %v", view.VisibleSections)
	}
	for _, id := range []string{"gc-0", "gc-1", "gc-2"} {
		if !IsRequired(id, rec.EquipmentType, float64(rec.Height)) {
			t.Fatalf("%s should be required", id)
		}
	}

	for _, h := range []float64{0, 1.8, 3} {
		if contains(VisibleSections(TableFixed, h), SectionChassis) {
			t.Fatalf("fixed table must never show chassis (h=%v)", h)
		}
	}
}

func contains(list []SectionID, s SectionID) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
