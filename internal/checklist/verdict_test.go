package checklist

import "testing"

func items(statuses ...Status) []Item {
	out := make([]Item, len(statuses))
	for i, s := range statuses {
		out[i] = Item{ID: "x", Status: s}
	}
	return out
}

func TestDeriveVerdict(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  Verdict
	}{
		{"empty", nil, VerdictUnset},
		{"all compliant", items(StatusCompliant, StatusCompliant), VerdictUnset},
		{"not applicable only", items(StatusNotApplicable), VerdictUnset},
		{"reservation", items(StatusCompliant, StatusReservation), VerdictReservations},
		{"blocking first", items(StatusBlocking, StatusCompliant, StatusCompliant), VerdictNonCompliant},
		{"blocking last", items(StatusCompliant, StatusCompliant, StatusBlocking), VerdictNonCompliant},
		{"blocking and reservations", items(StatusReservation, StatusBlocking, StatusReservation), VerdictNonCompliant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveVerdict(tt.items); got != tt.want {
				t.Fatalf("DeriveVerdict = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyDerivedVerdict_EscalatesWithNotice(t *testing.T) {
	rec := newTestRecord(TailgateFolding, 0)

	n, changed, err := rec.Answer("visuel-0", StatusReservation)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || rec.Verdict != VerdictReservations {
		t.Fatalf("verdict = %q, changed = %v", rec.Verdict, changed)
	}
	if n.Verdict != VerdictReservations || n.Reservations != 1 || n.Message == "" {
		t.Fatalf("unexpected notice %+v", n)
	}

	n, changed, _ = rec.Answer("securite-2", StatusBlocking)
	if !changed || rec.Verdict != VerdictNonCompliant || n.Blocking != 1 {
		t.Fatalf("blocking finding should escalate: %q %+v", rec.Verdict, n)
	}

	// More reservations never bring the verdict back down.
	_, changed, _ = rec.Answer("visuel-2", StatusReservation)
	if changed || rec.Verdict != VerdictNonCompliant {
		t.Fatalf("verdict downgraded to %q", rec.Verdict)
	}
}

func TestApplyDerivedVerdict_NeverDowngradesManualVerdict(t *testing.T) {
	rec := newTestRecord(TailgateFolding, 0)
	rec.Verdict = VerdictNonCompliant
	if _, changed, _ := rec.Answer("visuel-0", StatusReservation); changed {
		t.Fatal("manual non-compliant verdict must be kept")
	}
	if rec.Verdict != VerdictNonCompliant {
		t.Fatalf("verdict = %q", rec.Verdict)
	}
}

func TestApplyDerivedVerdict_NeverSetsCompliant(t *testing.T) {
	rec := newTestRecord(TailgateFolding, 0)
	for _, id := range RequiredItems(TailgateFolding, 0) {
		if _, changed, _ := rec.Answer(id, StatusCompliant); changed {
			t.Fatalf("compliant answers must not set a verdict")
		}
	}
	if rec.Verdict != VerdictUnset {
		t.Fatalf("verdict = %q, want unset", rec.Verdict)
	}
}

func TestApplyDerivedVerdict_UserOverrideThenNewFinding(t *testing.T) {
	rec := newTestRecord(TableFixed, 0)
	_, _, _ = rec.Answer("stab-0", StatusReservation)
	// The inspector accepts the equipment anyway.
	rec.Verdict = VerdictCompliant
	if _, changed := ApplyDerivedVerdict(rec); !changed {
		t.Fatal("re-applying with an outstanding reservation should escalate again")
	}
	if rec.Verdict != VerdictReservations {
		t.Fatalf("verdict = %q", rec.Verdict)
	}
}
