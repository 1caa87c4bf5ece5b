package checklist

import "testing"

func TestComputeLoads(t *testing.T) {
	tests := []struct {
		name     string
		capacity float64
		ce       bool
		dyn      int
		stat     int
	}{
		{"CE 1500", 1500, true, 1650, 1875},
		{"non-CE 1500", 1500, false, 1800, 2250},
		{"CE 500", 500, true, 550, 625},
		{"zero capacity", 0, true, 0, 0},
		// 2 x 1.25 = 2.5 exactly: half rounds away from zero.
		{"CE static tie", 2, true, 2, 3},
		// 5 x 1.1 = 5.5 (5.500000000000001 in float64)
		{"CE dynamic tie", 5, true, 6, 6},
		{"non-CE tie", 1, false, 1, 2},
		{"fractional capacity", 750.5, false, 901, 1126},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLoads(tt.capacity, tt.ce)
			if got.Dynamic != tt.dyn || got.Static != tt.stat {
				t.Fatalf("ComputeLoads(%v, %v) = {%d, %d}, want {%d, %d}",
					tt.capacity, tt.ce, got.Dynamic, got.Static, tt.dyn, tt.stat)
			}
		})
	}
}

func TestComputeLoads_Coefficients(t *testing.T) {
	ce := ComputeLoads(1000, true)
	if ce.DynamicCoef != 1.1 || ce.StaticCoef != 1.25 {
		t.Fatalf("CE coefficients = %v/%v", ce.DynamicCoef, ce.StaticCoef)
	}
	nonCE := ComputeLoads(1000, false)
	if nonCE.DynamicCoef != 1.2 || nonCE.StaticCoef != 1.5 {
		t.Fatalf("non-CE coefficients = %v/%v", nonCE.DynamicCoef, nonCE.StaticCoef)
	}
}

func TestRecordLoads_EmptyMarkingIsCE(t *testing.T) {
	rec := NewRecord(testNow)
	rec.Marking = ""
	rec.Capacity = 1500
	if got := RecordLoads(rec); got.Dynamic != 1650 {
		t.Fatalf("empty marking should use CE coefficients, got %+v", got)
	}
	rec.Marking = MarkingNonCE
	if got := RecordLoads(rec); got.Static != 2250 {
		t.Fatalf("non-CE static = %d", got.Static)
	}
}
